// Package security 密码哈希实现
package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost 默认 bcrypt 成本
const DefaultCost = 12

// BcryptHasher 基于 bcrypt 的密码哈希
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher cost 不在 bcrypt 合法范围内时使用 DefaultCost
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
