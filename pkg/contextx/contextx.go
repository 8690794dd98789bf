// Package contextx 在 context 中传递数据库事务，使仓储在同一事务内协作
package contextx

import "context"

type txKey struct{}

// WithTx 将事务句柄写入 context
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx 读取 context 中的事务句柄，不存在时返回 nil
func GetTx(ctx context.Context) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(txKey{})
}
