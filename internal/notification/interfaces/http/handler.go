package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/internal/notification/application"
	"github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/response"
	"github.com/wyfcoding/storefront/pkg/validate"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// NotificationHandler 通知 HTTP 处理器
type NotificationHandler struct {
	app *application.Dispatcher
}

// NewNotificationHandler 创建通知 HTTP 处理器实例
func NewNotificationHandler(app *application.Dispatcher) *NotificationHandler {
	return &NotificationHandler{app: app}
}

// RegisterRoutes 注册当前用户的通知路由，需挂载鉴权中间件
func (h *NotificationHandler) RegisterRoutes(api *gin.RouterGroup) {
	n := api.Group("/notifications")
	{
		n.GET("", h.List)
		n.GET("/unread-count", h.UnreadCount)
		n.PUT("/:id/read", h.MarkRead)
	}
}

// RegisterAdminRoutes 管理员向用户发送通知或邮件
func (h *NotificationHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/notifications", h.SendToUser)
	admin.POST("/emails", h.SendEmail)
}

// List 当前用户的通知
func (h *NotificationHandler) List(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	list, err := h.app.ListForUser(c.Request.Context(), id.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// UnreadCount 未读通知数
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	count, err := h.app.UnreadCount(c.Request.Context(), id.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// MarkRead 标记通知已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	if err := h.app.MarkRead(c.Request.Context(), id.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": c.Param("id"), "read": true})
}

type sendToUserRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// SendToUser 发送通知
func (h *NotificationHandler) SendToUser(c *gin.Context) {
	var req sendToUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, xerrors.New(xerrors.KindValidation, "invalid request body"))
		return
	}
	n, err := h.app.NotifyUser(c.Request.Context(), req.UserID, req.Message, domain.TypeAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, n)
}

type sendEmailRequest struct {
	To      []string `json:"to" validate:"required,min=1,dive,email"`
	Subject string   `json:"subject" validate:"required"`
	HTML    string   `json:"html" validate:"required"`
}

// SendEmail 异步发送邮件
func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, xerrors.New(xerrors.KindValidation, "invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, err)
		return
	}
	h.app.SendEmail(c.Request.Context(), req.To, req.Subject, req.HTML)
	c.JSON(http.StatusAccepted, response.Body{Code: "ok", Message: "queued"})
}
