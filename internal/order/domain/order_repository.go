package domain

import (
	"context"
	"errors"
)

// ErrOrderNotFound 订单不存在
var ErrOrderNotFound = errors.New("order not found")

// OrderFilter 订单查询条件，空值表示不过滤
type OrderFilter struct {
	AccountID string
	Symbol    string
	Status    OrderStatus
	Limit     int
	Offset    int
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Save 保存订单
	Save(ctx context.Context, order *Order) error
	// Get 根据订单 ID 获取订单，不存在时返回 ErrOrderNotFound
	Get(ctx context.Context, orderID string) (*Order, error)
	// List 分页查询订单，返回总数
	List(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)
	// ListOpen 获取账户在某交易对上可撤销的订单
	ListOpen(ctx context.Context, accountID, symbol string) ([]*Order, error)
	// UpdateStatus 更新订单状态
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
}
