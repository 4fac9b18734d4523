package messaging

import (
	"context"
	"time"

	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
)

// KafkaEventPublisher 直接发送到 Kafka，以交易对作为消息 key 保证同一交易对内有序
type KafkaEventPublisher struct {
	sender MessageSender
	topic  string
	now    func() time.Time
}

// NewKafkaEventPublisher 创建 Kafka 事件发布者
func NewKafkaEventPublisher(sender MessageSender, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		sender: sender,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishNewOrder 发布新订单事件
func (p *KafkaEventPublisher) PublishNewOrder(ctx context.Context, event domain.NewOrderEvent) error {
	return p.publish(ctx, domain.EventTypeNewOrder, event.Symbol, event)
}

// PublishCancelOrder 发布撤单事件
func (p *KafkaEventPublisher) PublishCancelOrder(ctx context.Context, event domain.CancelEvent) error {
	return p.publish(ctx, domain.EventTypeCancelOrder, event.Symbol, event)
}

func (p *KafkaEventPublisher) publish(ctx context.Context, eventType domain.EventType, symbol string, payload interface{}) error {
	eventID, body, err := encodeEnvelope(eventType, symbol, payload, p.now())
	if err != nil {
		return err
	}
	if err := p.sender.SendRaw(ctx, p.topic, symbol, body); err != nil {
		return err
	}

	logger.Debug(ctx, "Lifecycle event published",
		"event_id", eventID,
		"event_type", eventType,
		"symbol", symbol,
	)
	return nil
}
