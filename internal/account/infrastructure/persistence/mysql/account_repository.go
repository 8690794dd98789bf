// Package mysql 账户仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/storefront/internal/account/domain"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountModel 账户表
type AccountModel struct {
	gorm.Model
	AccountID        string `gorm:"column:account_id;type:varchar(32);uniqueIndex;not null"`
	Name             string `gorm:"column:name;type:varchar(100);not null"`
	Email            string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone            string `gorm:"column:phone;type:varchar(32)"`
	Role             string `gorm:"column:role;type:varchar(16);index;not null;default:'customer'"`
	State            string `gorm:"column:state;type:varchar(100)"`
	Area             string `gorm:"column:area;type:varchar(100)"`
	Street           string `gorm:"column:street;type:varchar(255)"`
	Address          string `gorm:"column:address;type:varchar(255)"`
	Verified         bool   `gorm:"column:verified;not null;default:false"`
	PasswordHash     string `gorm:"column:password_hash;type:varchar(100);not null"`
	VerificationCode string `gorm:"column:verification_code;type:varchar(12)"`
}

// TableName 指定表名
func (AccountModel) TableName() string {
	return "accounts"
}

type accountRepositoryImpl struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储实例
func NewAccountRepository(gdb *gorm.DB) domain.AccountRepository {
	return &accountRepositoryImpl{db: gdb}
}

func (r *accountRepositoryImpl) Save(ctx context.Context, account *domain.Account) error {
	m := toModel(account)
	err := db.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "email", "phone", "role", "state", "area", "street", "address",
			"verified", "password_hash", "verification_code", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		logger.Error(ctx, "account_repository.save failed", "account_id", account.ID, "error", err)
		return fmt.Errorf("failed to save account: %w", err)
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = m.CreatedAt
	}
	account.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *accountRepositoryImpl) Get(ctx context.Context, id string) (*domain.Account, error) {
	return r.first(ctx, "account_id = ?", id)
}

func (r *accountRepositoryImpl) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

func (r *accountRepositoryImpl) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Account, error) {
	var models []AccountModel
	if err := db.Conn(ctx, r.db).Where("role = ?", string(role)).Order("id ASC").Find(&models).Error; err != nil {
		logger.Error(ctx, "account_repository.list_by_role failed", "role", role, "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	out := make([]*domain.Account, len(models))
	for i := range models {
		out[i] = toDomain(&models[i])
	}
	return out, nil
}

func (r *accountRepositoryImpl) first(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var m AccountModel
	err := db.Conn(ctx, r.db).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error(ctx, "account_repository.get failed", "query", query, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return toDomain(&m), nil
}

func toModel(a *domain.Account) *AccountModel {
	m := &AccountModel{
		AccountID:        a.ID,
		Name:             a.Name,
		Email:            domain.NormalizeEmail(a.Email),
		Phone:            a.Phone,
		Role:             string(a.Role),
		State:            a.Address.State,
		Area:             a.Address.Area,
		Street:           a.Address.Street,
		Address:          a.Address.Address,
		Verified:         a.Verified,
		PasswordHash:     a.PasswordHash,
		VerificationCode: a.VerificationCode,
	}
	if !a.CreatedAt.IsZero() {
		m.CreatedAt = a.CreatedAt
	}
	return m
}

func toDomain(m *AccountModel) *domain.Account {
	return &domain.Account{
		ID:    m.AccountID,
		Name:  m.Name,
		Email: m.Email,
		Phone: m.Phone,
		Role:  domain.Role(m.Role),
		Address: domain.Address{
			State:   m.State,
			Area:    m.Area,
			Street:  m.Street,
			Address: m.Address,
		},
		Verified:         m.Verified,
		PasswordHash:     m.PasswordHash,
		VerificationCode: m.VerificationCode,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
