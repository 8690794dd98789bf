package application

import (
	"context"

	accountdomain "github.com/wyfcoding/storefront/internal/account/domain"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	inventorydomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	notificationdomain "github.com/wyfcoding/storefront/internal/notification/domain"
)

// TxManager 事务执行器，事务句柄经 context 传给仓储
type TxManager interface {
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// ProductReader 读取商品，不存在时返回 nil, nil
type ProductReader interface {
	Get(ctx context.Context, id string) (*catalogdomain.Product, error)
}

// AccountReader 读取账户，不存在时返回 nil, nil
type AccountReader interface {
	Lookup(ctx context.Context, id string) (*accountdomain.Account, error)
}

// StockReserver 库存预留
type StockReserver interface {
	Reserve(ctx context.Context, productID string, quantity int, orderID string) (*inventorydomain.Reservation, error)
	Committed(ctx context.Context, r *inventorydomain.Reservation)
}

// Notifier 通知分发
type Notifier interface {
	NotifyUser(ctx context.Context, userID, message string, typ notificationdomain.Type) (*notificationdomain.Notification, error)
	NotifyAdmins(ctx context.Context, message string) ([]*notificationdomain.Notification, error)
}
