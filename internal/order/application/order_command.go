// Package application 订单工作流应用服务
package application

import (
	"context"
	"fmt"
	"time"

	accountdomain "github.com/wyfcoding/storefront/internal/account/domain"
	inventorydomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	notificationdomain "github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/internal/order/domain"
	"github.com/wyfcoding/storefront/pkg/idgen"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/validate"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// CreateOrderCommand 下单命令
type CreateOrderCommand struct {
	UserID          string          `json:"userId" validate:"required"`
	ProductID       string          `json:"productId" validate:"required"`
	Quantity        int             `json:"quantity" validate:"required,min=1"`
	DeliveryOption  string          `json:"deliveryOption" validate:"required,oneof=delivery pickup"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required,oneof=card cash_on_delivery transfer"`
	DeliveryAddress *domain.Address `json:"deliveryAddress"`
}

// TransitionCommand 状态变更命令，Status 与 Message 至少提供一个
type TransitionCommand struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OrderCommandService 订单命令服务
type OrderCommandService struct {
	tx        TxManager
	orders    domain.OrderRepository
	products  ProductReader
	accounts  AccountReader
	stock     StockReserver
	notifier  Notifier
	events    domain.EventPublisher
	policy    domain.TransitionPolicy
	collector metrics.Collector
	now       func() time.Time
}

// Deps 订单命令服务依赖
type Deps struct {
	Tx        TxManager
	Orders    domain.OrderRepository
	Products  ProductReader
	Accounts  AccountReader
	Stock     StockReserver
	Notifier  Notifier
	Events    domain.EventPublisher
	Policy    domain.TransitionPolicy
	Collector metrics.Collector
}

// NewOrderCommandService 创建订单命令服务；Policy 为空时使用 PermissiveTransitions
func NewOrderCommandService(d Deps) *OrderCommandService {
	policy := d.Policy
	if policy == nil {
		policy = domain.PermissiveTransitions{}
	}
	collector := d.Collector
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &OrderCommandService{
		tx:        d.Tx,
		orders:    d.Orders,
		products:  d.Products,
		accounts:  d.Accounts,
		stock:     d.Stock,
		notifier:  d.Notifier,
		events:    d.Events,
		policy:    policy,
		collector: collector,
		now:       time.Now,
	}
}

// CreateOrder 下单：预留库存与订单写入在同一事务内完成，提交后通知管理员。
// 通知失败不影响已创建的订单。
func (s *OrderCommandService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	var (
		customer *accountdomain.Account
		err      error
	)
	if cmd.UserID != "" {
		if customer, err = s.accounts.Lookup(ctx, cmd.UserID); err != nil {
			return nil, err
		}
	}
	addr, ok := resolveAddress(cmd.DeliveryAddress, customer)
	var missing []string
	if !ok {
		missing = append(missing, "deliveryAddress")
	}
	if err := validate.Struct(cmd, missing...); err != nil {
		return nil, err
	}

	var (
		order       *domain.Order
		reservation *inventorydomain.Reservation
		productName string
	)
	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.products.Get(txCtx, cmd.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return xerrors.NotFound("product", cmd.ProductID)
		}
		productName = product.Name

		id := idgen.NextWithPrefix("ORD")
		if reservation, err = s.stock.Reserve(txCtx, cmd.ProductID, cmd.Quantity, id); err != nil {
			return err
		}

		order = domain.NewOrder(id, cmd.UserID, cmd.ProductID, cmd.Quantity, product.Price,
			domain.DeliveryOption(cmd.DeliveryOption), domain.PaymentMethod(cmd.PaymentMethod), addr, s.now())
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}

		return s.events.Publish(txCtx, domain.OrderCreatedTopic, order.ID, domain.OrderCreatedEvent{
			OrderID:        order.ID,
			UserID:         order.UserID,
			ProductID:      order.ProductID,
			Quantity:       order.Quantity,
			TotalAmount:    order.TotalAmount.String(),
			DeliveryOption: string(order.DeliveryOption),
			Timestamp:      order.CreatedAt,
		})
	})
	if err != nil {
		logger.Warn(ctx, "order creation failed", "user_id", cmd.UserID, "product_id", cmd.ProductID, "quantity", cmd.Quantity, "error", err)
		return nil, err
	}

	s.stock.Committed(ctx, reservation)
	s.collector.RecordOrderCreated(string(order.DeliveryOption))
	logger.Info(ctx, "order created", "order_id", order.ID, "user_id", order.UserID, "total", order.TotalAmount.String())

	msg := fmt.Sprintf("New order #%s: %d x %s by %s. Total: %s",
		order.ID, order.Quantity, productName, customerName(customer), order.TotalAmount.StringFixed(2))
	if _, err := s.notifier.NotifyAdmins(ctx, msg); err != nil {
		logger.Error(ctx, "notify admins failed", "order_id", order.ID, "error", err)
	}
	return order, nil
}

// Transition 管理员变更订单状态或备注，提交后通知下单用户与全部管理员
func (s *OrderCommandService) Transition(ctx context.Context, cmd TransitionCommand) (*domain.Order, error) {
	if cmd.Status == "" && cmd.Message == "" {
		return nil, &xerrors.Error{
			Kind:    xerrors.KindValidation,
			Message: "status or message is required",
			Fields:  []string{"status", "message"},
		}
	}
	var next domain.OrderStatus
	if cmd.Status != "" {
		st, ok := domain.ParseStatus(cmd.Status)
		if !ok {
			return nil, xerrors.Invalid("status", "unknown order status: %s", cmd.Status)
		}
		next = st
	}

	var (
		order *domain.Order
		prev  domain.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orders.Get(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return xerrors.NotFound("order", cmd.OrderID)
		}
		if prev, err = order.Transition(next, cmd.Message, s.policy, s.now()); err != nil {
			return err
		}
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		return s.events.Publish(txCtx, domain.OrderStatusChangedTopic, order.ID, domain.OrderStatusChangedEvent{
			OrderID:      order.ID,
			UserID:       order.UserID,
			OldStatus:    string(prev),
			NewStatus:    string(order.Status),
			AdminMessage: order.AdminMessage,
			Timestamp:    order.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	s.collector.RecordTransition(string(order.Status))
	logger.Info(ctx, "order transitioned", "order_id", order.ID, "from", prev, "to", order.Status)

	userMsg := fmt.Sprintf("Your order #%s status has been updated to: %s", order.ID, order.Status)
	if cmd.Message != "" {
		userMsg += ". Message: " + cmd.Message
	}
	if _, err := s.notifier.NotifyUser(ctx, order.UserID, userMsg, notificationdomain.TypeOrderUpdate); err != nil {
		logger.Error(ctx, "notify user failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
	}
	adminMsg := fmt.Sprintf("Order #%s status changed from %s to %s", order.ID, prev, order.Status)
	if _, err := s.notifier.NotifyAdmins(ctx, adminMsg); err != nil {
		logger.Error(ctx, "notify admins failed", "order_id", order.ID, "error", err)
	}
	return order, nil
}
