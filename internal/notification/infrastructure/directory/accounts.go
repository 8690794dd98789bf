// Package directory 将账户目录适配为通知接收人目录
package directory

import (
	"context"

	accountdomain "github.com/wyfcoding/storefront/internal/account/domain"
	"github.com/wyfcoding/storefront/internal/notification/domain"
)

// AccountSource 账户来源
type AccountSource interface {
	Lookup(ctx context.Context, id string) (*accountdomain.Account, error)
	ListAdmins(ctx context.Context) ([]*accountdomain.Account, error)
}

// AccountDirectory 实现 domain.RecipientDirectory
type AccountDirectory struct {
	accounts AccountSource
}

// NewAccountDirectory 创建接收人目录
func NewAccountDirectory(accounts AccountSource) *AccountDirectory {
	return &AccountDirectory{accounts: accounts}
}

func (d *AccountDirectory) Lookup(ctx context.Context, userID string) (*domain.Recipient, error) {
	a, err := d.accounts.Lookup(ctx, userID)
	if err != nil || a == nil {
		return nil, err
	}
	return &domain.Recipient{ID: a.ID, Name: a.Name, Email: a.Email}, nil
}

func (d *AccountDirectory) Admins(ctx context.Context) ([]domain.Recipient, error) {
	admins, err := d.accounts.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Recipient, len(admins))
	for i, a := range admins {
		out[i] = domain.Recipient{ID: a.ID, Name: a.Name, Email: a.Email}
	}
	return out, nil
}

// RepositorySource 直接读取账户仓储的 AccountSource
type RepositorySource struct {
	Repo accountdomain.AccountRepository
}

func (s RepositorySource) Lookup(ctx context.Context, id string) (*accountdomain.Account, error) {
	return s.Repo.Get(ctx, id)
}

func (s RepositorySource) ListAdmins(ctx context.Context) ([]*accountdomain.Account, error) {
	return s.Repo.ListByRole(ctx, accountdomain.RoleAdmin)
}
