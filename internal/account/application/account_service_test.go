package application

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/storefront/internal/account/domain"
	"github.com/wyfcoding/storefront/internal/account/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/internal/account/infrastructure/security"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/jwtx"
	"github.com/wyfcoding/storefront/pkg/xerrors"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	to      []string
	subject string
	html    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) SendEmail(_ context.Context, to []string, subject, html string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, html: html})
}

var codePattern = regexp.MustCompile(`<strong>(\d{6})</strong>`)

func (m *recordingMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.sent)
	match := codePattern.FindStringSubmatch(m.sent[len(m.sent)-1].html)
	require.Len(t, match, 2)
	return match[1]
}

func newService(t *testing.T) (*AccountService, *recordingMailer, *jwtx.Manager) {
	t.Helper()
	d, err := db.OpenMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, d.AutoMigrate(&mysql.AccountModel{}))
	t.Cleanup(func() { _ = d.Close() })

	mailer := &recordingMailer{}
	tokens := jwtx.NewManager("test-secret", 24*time.Hour, "storefront")
	svc := NewAccountService(mysql.NewAccountRepository(d.DB), security.NewBcryptHasher(bcrypt.MinCost), tokens, mailer, "invite-123")
	return svc, mailer, tokens
}

func register(t *testing.T, svc *AccountService) *domain.Account {
	t.Helper()
	a, err := svc.Register(context.Background(), RegisterCommand{
		Name:     "Ada",
		Email:    "Ada@Example.com",
		Password: "secret1",
		Address:  domain.Address{State: "Lagos", Street: "1 Marina"},
	})
	require.NoError(t, err)
	return a
}

func TestRegisterVerifyLogin(t *testing.T) {
	svc, mailer, tokens := newService(t)
	ctx := context.Background()

	a := register(t, svc)
	assert.Equal(t, "ada@example.com", a.Email)
	assert.Equal(t, domain.RoleCustomer, a.Role)
	assert.False(t, a.Verified)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, mailer.sent[0].to)

	_, err := svc.Login(ctx, "ada@example.com", "secret1")
	assert.True(t, xerrors.Is(err, xerrors.KindUnauthorized))

	_, err = svc.VerifyEmail(ctx, "ada@example.com", "000000x")
	assert.True(t, xerrors.Is(err, xerrors.KindValidation))

	verified, err := svc.VerifyEmail(ctx, "ADA@example.com", mailer.lastCode(t))
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	session, err := svc.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	claims, err := tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, claims.UserID)
	assert.Equal(t, "customer", claims.Role)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.True(t, xerrors.Is(err, xerrors.KindUnauthorized))
}

func TestRegister_Duplicates(t *testing.T) {
	svc, mailer, _ := newService(t)
	ctx := context.Background()

	first := register(t, svc)
	again := register(t, svc)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, mailer.sent, 2)

	_, err := svc.VerifyEmail(ctx, first.Email, mailer.lastCode(t))
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterCommand{Name: "Ada", Email: first.Email, Password: "secret1"})
	assert.True(t, xerrors.Is(err, xerrors.KindConflict))
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Register(context.Background(), RegisterCommand{Email: "not-an-email"})
	e, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.KindValidation, e.Kind)
	assert.ElementsMatch(t, []string{"name", "password"}, e.Fields)
}

func TestRegisterAdminAndAdminLogin(t *testing.T) {
	svc, mailer, _ := newService(t)
	ctx := context.Background()
	cmd := RegisterCommand{Name: "Root", Email: "root@example.com", Password: "secret1"}

	_, err := svc.RegisterAdmin(ctx, cmd, "wrong")
	assert.True(t, xerrors.Is(err, xerrors.KindForbidden))

	admin, err := svc.RegisterAdmin(ctx, cmd, "invite-123")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.Verified)

	session, err := svc.AdminLogin(ctx, "root@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, session.Account.ID)

	customer := register(t, svc)
	_, err = svc.VerifyEmail(ctx, customer.Email, mailer.lastCode(t))
	require.NoError(t, err)
	_, err = svc.AdminLogin(ctx, customer.Email, "secret1")
	assert.True(t, xerrors.Is(err, xerrors.KindForbidden))

	admins, err := svc.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
	customers, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	a := register(t, svc)

	phone := "+234 800"
	updated, err := svc.UpdateProfile(ctx, a.ID, UpdateProfileCommand{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.Name)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "Lagos", updated.Address.State)

	blank := " "
	_, err = svc.UpdateProfile(ctx, a.ID, UpdateProfileCommand{Name: &blank})
	assert.True(t, xerrors.Is(err, xerrors.KindValidation))

	_, err = svc.Profile(ctx, "missing")
	assert.True(t, xerrors.Is(err, xerrors.KindNotFound))

	found, err := svc.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}
