// Package application 账户目录应用服务：注册、邮箱验证、登录与资料维护
package application

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/wyfcoding/storefront/internal/account/domain"
	"github.com/wyfcoding/storefront/pkg/idgen"
	"github.com/wyfcoding/storefront/pkg/jwtx"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/validate"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// Mailer 邮件投递，异步且尽力而为
type Mailer interface {
	SendEmail(ctx context.Context, to []string, subject, html string)
}

// RegisterCommand 注册命令
type RegisterCommand struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Phone    string         `json:"phone"`
	Address  domain.Address `json:"address"`
}

// UpdateProfileCommand 资料更新，nil 字段保持不变
type UpdateProfileCommand struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Address *domain.Address `json:"address"`
}

// Session 登录结果
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   *domain.Account `json:"user"`
}

// AccountService 账户服务
type AccountService struct {
	repo       domain.AccountRepository
	hasher     domain.PasswordHasher
	tokens     *jwtx.Manager
	mailer     Mailer
	inviteCode string
	now        func() time.Time
}

// NewAccountService 创建账户服务；inviteCode 为空时禁止注册管理员
func NewAccountService(repo domain.AccountRepository, hasher domain.PasswordHasher, tokens *jwtx.Manager, mailer Mailer, inviteCode string) *AccountService {
	return &AccountService{
		repo:       repo,
		hasher:     hasher,
		tokens:     tokens,
		mailer:     mailer,
		inviteCode: inviteCode,
		now:        time.Now,
	}
}

// Register 注册顾客账户并发送验证码；未验证的邮箱重复注册会重新签发验证码
func (s *AccountService) Register(ctx context.Context, cmd RegisterCommand) (*domain.Account, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(cmd.Email)

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account != nil && account.Verified {
		return nil, xerrors.Conflict("Email already registered")
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}
	code, err := verificationCode()
	if err != nil {
		return nil, err
	}

	if account == nil {
		account = &domain.Account{ID: idgen.Next(), Role: domain.RoleCustomer, Email: email}
	}
	account.Name = strings.TrimSpace(cmd.Name)
	account.Phone = cmd.Phone
	account.Address = cmd.Address
	account.PasswordHash = hash
	account.VerificationCode = code

	if err := s.repo.Save(ctx, account); err != nil {
		return nil, err
	}

	s.mailer.SendEmail(ctx, []string{account.Email}, "Verify your email",
		fmt.Sprintf("<p>Hello %s,</p><p>Your verification code is <strong>%s</strong>.</p>", account.Name, code))
	logger.Info(ctx, "account registered", "account_id", account.ID)
	return account, nil
}

// VerifyEmail 校验验证码
func (s *AccountService) VerifyEmail(ctx context.Context, email, code string) (*domain.Account, error) {
	if m := missing(map[string]string{"email": email, "code": code}, "email", "code"); len(m) > 0 {
		return nil, xerrors.MissingFields(m...)
	}
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, xerrors.NotFound("account", domain.NormalizeEmail(email))
	}
	if account.Verified {
		return account, nil
	}
	if subtle.ConstantTimeCompare([]byte(account.VerificationCode), []byte(strings.TrimSpace(code))) != 1 {
		return nil, xerrors.Invalid("code", "Invalid verification code")
	}

	account.Verified = true
	account.VerificationCode = ""
	if err := s.repo.Save(ctx, account); err != nil {
		return nil, err
	}
	logger.Info(ctx, "email verified", "account_id", account.ID)
	return account, nil
}

// Login 顾客或管理员登录，未验证邮箱不允许登录
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	if m := missing(map[string]string{"email": email, "password": password}, "email", "password"); len(m) > 0 {
		return nil, xerrors.MissingFields(m...)
	}
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil || !s.hasher.Compare(account.PasswordHash, password) {
		return nil, xerrors.Unauthorized("Invalid email or password")
	}
	if !account.Verified {
		return nil, xerrors.Unauthorized("Please verify your email before logging in")
	}
	return s.issue(account)
}

// AdminLogin 仅管理员可登录
func (s *AccountService) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !session.Account.IsAdmin() {
		return nil, xerrors.Forbidden("Admin access required")
	}
	return session, nil
}

// RegisterAdmin 凭邀请码注册管理员，管理员邮箱视为已验证
func (s *AccountService) RegisterAdmin(ctx context.Context, cmd RegisterCommand, inviteCode string) (*domain.Account, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	if s.inviteCode == "" || subtle.ConstantTimeCompare([]byte(s.inviteCode), []byte(inviteCode)) != 1 {
		return nil, xerrors.Forbidden("Invalid admin invite code")
	}
	existing, err := s.repo.GetByEmail(ctx, cmd.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, xerrors.Conflict("Email already registered")
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		ID:           idgen.Next(),
		Name:         strings.TrimSpace(cmd.Name),
		Email:        domain.NormalizeEmail(cmd.Email),
		Phone:        cmd.Phone,
		Address:      cmd.Address,
		Role:         domain.RoleAdmin,
		Verified:     true,
		PasswordHash: hash,
	}
	if err := s.repo.Save(ctx, account); err != nil {
		return nil, err
	}
	logger.Info(ctx, "admin registered", "account_id", account.ID)
	return account, nil
}

// Profile 获取账户资料
func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, xerrors.NotFound("account", userID)
	}
	return account, nil
}

// UpdateProfile 更新姓名、电话与地址
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, cmd UpdateProfileCommand) (*domain.Account, error) {
	account, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return nil, xerrors.Invalid("name", "name must not be empty")
		}
		account.Name = name
	}
	if cmd.Phone != nil {
		account.Phone = *cmd.Phone
	}
	if cmd.Address != nil {
		account.Address = *cmd.Address
	}
	if err := s.repo.Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Lookup 按 ID 查找账户，不存在时返回 nil, nil
func (s *AccountService) Lookup(ctx context.Context, id string) (*domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// ListCustomers 全部顾客
func (s *AccountService) ListCustomers(ctx context.Context) ([]*domain.Account, error) {
	return s.repo.ListByRole(ctx, domain.RoleCustomer)
}

// ListAdmins 全部管理员
func (s *AccountService) ListAdmins(ctx context.Context) ([]*domain.Account, error) {
	return s.repo.ListByRole(ctx, domain.RoleAdmin)
}

func (s *AccountService) issue(account *domain.Account) (*Session, error) {
	token, err := s.tokens.Issue(account.ID, account.Email, string(account.Role))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindInternal, err, "failed to issue token")
	}
	return &Session{Token: token, ExpiresAt: s.now().Add(s.tokens.TTL()), Account: account}, nil
}

// verificationCode 6 位数字验证码
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func missing(values map[string]string, order ...string) []string {
	var out []string
	for _, k := range order {
		if strings.TrimSpace(values[k]) == "" {
			out = append(out, k)
		}
	}
	return out
}
