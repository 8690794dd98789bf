// Package domain 账户目录的领域模型
package domain

import (
	"context"
	"strings"
	"time"
)

// Role 账户角色
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Address 结构化地址
type Address struct {
	State   string `json:"state"`
	Area    string `json:"area"`
	Street  string `json:"street"`
	Address string `json:"address"`
}

// IsZero 所有字段均为空
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.State+a.Area+a.Street+a.Address) == ""
}

// Account 账户实体
type Account struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Role             Role      `json:"role"`
	Address          Address   `json:"address"`
	Verified         bool      `json:"verified"`
	PasswordHash     string    `json:"-"`
	VerificationCode string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IsAdmin 是否为管理员
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// NormalizeEmail 邮箱统一小写去空白
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountRepository 账户仓储
type AccountRepository interface {
	Save(ctx context.Context, account *Account) error
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, id string) (*Account, error)
	// GetByEmail 不存在时返回 nil, nil
	GetByEmail(ctx context.Context, email string) (*Account, error)
	ListByRole(ctx context.Context, role Role) ([]*Account, error)
}

// PasswordHasher 密码哈希
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
