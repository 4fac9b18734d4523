package domain

import "context"

// UnitOfWork 事务边界，fn 内的仓储写入与事件写入同时提交或回滚
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
