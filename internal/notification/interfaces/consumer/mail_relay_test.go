package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/internal/notification/infrastructure/sender"
	"github.com/wyfcoding/storefront/pkg/mq"
)

type flakySender struct {
	failures int
	calls    int
	sent     []domain.Email
}

func (s *flakySender) Send(_ context.Context, e domain.Email) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("smtp busy")
	}
	s.sent = append(s.sent, e)
	return nil
}

type deadLetter struct {
	reason string
}

type deadLetterRecorder struct {
	letters []deadLetter
}

func (d *deadLetterRecorder) Send(_ context.Context, _ *mq.Message, reason string, _ error) error {
	d.letters = append(d.letters, deadLetter{reason: reason})
	return nil
}

func message(t *testing.T, v any) *mq.Message {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return &mq.Message{Topic: "storefront.mail", Key: "a@example.com", Value: b}
}

func newRelay(s domain.Sender, dead DeadLetters, tries int) *MailRelay {
	r := NewMailRelay(nil, s, dead, tries)
	r.interval = time.Millisecond
	return r
}

func TestHandle_DeliversAfterRetry(t *testing.T) {
	s := &flakySender{failures: 1}
	dead := &deadLetterRecorder{}

	newRelay(s, dead, 3).Handle(context.Background(), message(t, sender.MailCommand{To: []string{"a@example.com"}, Subject: "Hi", HTML: "x"}))

	require.Len(t, s.sent, 1)
	assert.Equal(t, "Hi", s.sent[0].Subject)
	assert.Empty(t, dead.letters)
}

func TestHandle_DeadLettersFailures(t *testing.T) {
	s := &flakySender{failures: 10}
	dead := &deadLetterRecorder{}
	relay := newRelay(s, dead, 2)

	relay.Handle(context.Background(), message(t, sender.MailCommand{To: []string{"a@example.com"}}))
	relay.Handle(context.Background(), &mq.Message{Value: []byte("{not json")})
	relay.Handle(context.Background(), message(t, sender.MailCommand{}))

	assert.Equal(t, 2, s.calls)
	require.Len(t, dead.letters, 3)
	assert.Equal(t, "mail delivery failed", dead.letters[0].reason)
	assert.Equal(t, "malformed mail command", dead.letters[1].reason)
	assert.Equal(t, "mail command without recipients", dead.letters[2].reason)
}
