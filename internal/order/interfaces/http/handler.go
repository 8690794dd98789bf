package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/internal/order/application"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/response"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	commands *application.OrderCommandService
	queries  *application.OrderQueryService
}

// NewOrderHandler 创建订单 HTTP 处理器实例
func NewOrderHandler(commands *application.OrderCommandService, queries *application.OrderQueryService) *OrderHandler {
	return &OrderHandler{commands: commands, queries: queries}
}

// RegisterRoutes 注册订单路由，需挂载鉴权中间件
func (h *OrderHandler) RegisterRoutes(api *gin.RouterGroup) {
	orders := api.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListMine)
		orders.GET("/:id", h.GetOrder)
	}
}

// RegisterAdminRoutes 注册订单管理路由
func (h *OrderHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/orders", h.ListAll)
	admin.PUT("/orders/:id/status", h.Transition)
}

// CreateOrder 下单，用户取自令牌
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var cmd application.CreateOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, xerrors.New(xerrors.KindValidation, "invalid request body"))
		return
	}
	id, _ := middleware.CurrentIdentity(c)
	cmd.UserID = id.UserID

	order, err := h.commands.CreateOrder(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// ListMine 当前用户的订单
func (h *OrderHandler) ListMine(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	orders, err := h.queries.ListForUser(c.Request.Context(), id.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, orders)
}

// GetOrder 订单详情，仅本人或管理员可见
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)
	order, err := h.queries.Get(c.Request.Context(), application.Actor{UserID: id.UserID, Admin: id.IsAdmin()}, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, order)
}

// ListAll 全部订单
func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.queries.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, orders)
}

// Transition 变更订单状态与管理员备注
func (h *OrderHandler) Transition(c *gin.Context) {
	var cmd application.TransitionCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.Error(c, xerrors.New(xerrors.KindValidation, "invalid request body"))
		return
	}
	cmd.OrderID = c.Param("id")

	order, err := h.commands.Transition(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, order)
}
