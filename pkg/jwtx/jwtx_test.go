package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", 24*time.Hour, "storefront")

	token, err := m.Issue("u1", "u1@example.com", "customer")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
}

func TestParse_Expired(t *testing.T) {
	m := NewManager("secret", time.Hour, "storefront")
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, err := m.Issue("u1", "u1@example.com", "customer")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := NewManager("a", time.Hour, "x").Issue("u1", "e", "admin")
	require.NoError(t, err)

	_, err = NewManager("b", time.Hour, "x").Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
