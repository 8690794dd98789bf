package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/pkg/jwtx"
	"github.com/wyfcoding/storefront/pkg/response"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

const identityKey = "identity"

// RoleAdmin 管理员角色
const RoleAdmin = "admin"

// Identity 已认证的调用方
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin 是否为管理员
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Auth 校验 Bearer 令牌并将调用方写入上下文
func Auth(tokens *jwtx.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			response.Error(c, xerrors.Unauthorized("Access denied. No token provided."))
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			response.Error(c, xerrors.Unauthorized("Invalid or expired token."))
			return
		}

		c.Set(identityKey, Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

// RequireAdmin 仅允许管理员访问，需在 Auth 之后使用
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok || !id.IsAdmin() {
			response.Error(c, xerrors.Forbidden("Admin access required."))
			return
		}
		c.Next()
	}
}

// CurrentIdentity 读取已认证的调用方
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// SetIdentity 写入调用方（供测试与内部调用）
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}
