package domain

import "context"

// EventPublisher 生命周期事件发布者接口
type EventPublisher interface {
	// PublishNewOrder 发布新订单事件
	PublishNewOrder(ctx context.Context, event NewOrderEvent) error

	// PublishCancelOrder 发布撤单事件
	PublishCancelOrder(ctx context.Context, event CancelEvent) error
}
