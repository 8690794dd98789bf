package application

import (
	"context"

	accountdomain "github.com/wyfcoding/storefront/internal/account/domain"
	"github.com/wyfcoding/storefront/internal/order/domain"
	"github.com/wyfcoding/storefront/pkg/xerrors"
)

// Actor 已认证的调用方
type Actor struct {
	UserID string
	Admin  bool
}

// OrderView 订单读模型，商品或账户被删除时名称为占位符
type OrderView struct {
	*domain.Order
	ProductName   string `json:"productName"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	orders   domain.OrderRepository
	products ProductReader
	accounts AccountReader
}

// NewOrderQueryService 创建订单查询服务
func NewOrderQueryService(orders domain.OrderRepository, products ProductReader, accounts AccountReader) *OrderQueryService {
	return &OrderQueryService{orders: orders, products: products, accounts: accounts}
}

// Get 仅订单所有者或管理员可查看
func (s *OrderQueryService) Get(ctx context.Context, actor Actor, id string) (*OrderView, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, xerrors.NotFound("order", id)
	}
	if !actor.Admin && order.UserID != actor.UserID {
		return nil, xerrors.Forbidden("Access denied")
	}
	views, err := s.views(ctx, []*domain.Order{order})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListForUser 用户自己的订单
func (s *OrderQueryService) ListForUser(ctx context.Context, userID string) ([]*OrderView, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, orders)
}

// ListAll 全部订单
func (s *OrderQueryService) ListAll(ctx context.Context) ([]*OrderView, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, orders)
}

func (s *OrderQueryService) views(ctx context.Context, orders []*domain.Order) ([]*OrderView, error) {
	productNames := map[string]string{}
	customers := map[string]*accountdomain.Account{}

	out := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		name, ok := productNames[o.ProductID]
		if !ok {
			p, err := s.products.Get(ctx, o.ProductID)
			if err != nil {
				return nil, err
			}
			name = unknownProduct
			if p != nil {
				name = p.Name
			}
			productNames[o.ProductID] = name
		}

		customer, ok := customers[o.UserID]
		if !ok {
			a, err := s.accounts.Lookup(ctx, o.UserID)
			if err != nil {
				return nil, err
			}
			customer = a
			customers[o.UserID] = a
		}

		view := &OrderView{Order: o, ProductName: name, CustomerName: customerName(customer)}
		if customer != nil {
			view.CustomerEmail = customer.Email
		}
		out = append(out, view)
	}
	return out, nil
}
