package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/internal/account/application"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/response"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// AccountHandler 账户 HTTP 处理器
type AccountHandler struct {
	app *application.AccountService
}

// NewAccountHandler 创建账户 HTTP 处理器实例
func NewAccountHandler(app *application.AccountService) *AccountHandler {
	return &AccountHandler{app: app}
}

// RegisterRoutes 注册认证与个人资料路由
func (h *AccountHandler) RegisterRoutes(api *gin.RouterGroup, authenticated gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/verify-email", h.VerifyEmail)
		auth.POST("/login", h.Login)
		auth.POST("/admin/register", h.RegisterAdmin)
		auth.POST("/admin/login", h.AdminLogin)
		auth.GET("/profile", authenticated, h.Profile)
		auth.PUT("/profile", authenticated, h.UpdateProfile)
	}
}

// RegisterAdminRoutes 注册账户管理路由
func (h *AccountHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/users", h.ListCustomers)
	admin.GET("/admins", h.ListAdmins)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerAdminRequest struct {
	application.RegisterCommand
	InviteCode string `json:"inviteCode"`
}

// Register 注册客户账户并发送验证码
func (h *AccountHandler) Register(c *gin.Context) {
	var cmd application.RegisterCommand
	if !bind(c, &cmd) {
		return
	}
	account, err := h.app.Register(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"user": account, "message": "Verification code sent to " + account.Email})
}

// VerifyEmail 校验邮箱验证码
func (h *AccountHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !bind(c, &req) {
		return
	}
	account, err := h.app.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, account)
}

// Login 客户登录
func (h *AccountHandler) Login(c *gin.Context) {
	var req credentials
	if !bind(c, &req) {
		return
	}
	session, err := h.app.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, session)
}

// AdminLogin 管理员登录
func (h *AccountHandler) AdminLogin(c *gin.Context) {
	var req credentials
	if !bind(c, &req) {
		return
	}
	session, err := h.app.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, session)
}

// RegisterAdmin 凭邀请码注册管理员
func (h *AccountHandler) RegisterAdmin(c *gin.Context) {
	var req registerAdminRequest
	if !bind(c, &req) {
		return
	}
	account, err := h.app.RegisterAdmin(c.Request.Context(), req.RegisterCommand, req.InviteCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

// Profile 当前用户资料
func (h *AccountHandler) Profile(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	account, err := h.app.Profile(c.Request.Context(), id.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, account)
}

// UpdateProfile 更新当前用户资料
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var cmd application.UpdateProfileCommand
	if !bind(c, &cmd) {
		return
	}
	id, _ := middleware.CurrentIdentity(c)
	account, err := h.app.UpdateProfile(c.Request.Context(), id.UserID, cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, account)
}

// ListCustomers 客户列表
func (h *AccountHandler) ListCustomers(c *gin.Context) {
	accounts, err := h.app.ListCustomers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, accounts)
}

// ListAdmins 管理员列表
func (h *AccountHandler) ListAdmins(c *gin.Context) {
	accounts, err := h.app.ListAdmins(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, accounts)
}

func bind(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, xerrors.New(xerrors.KindValidation, "invalid request body"))
		return false
	}
	return true
}
