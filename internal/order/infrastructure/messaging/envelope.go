// Package messaging 将订单生命周期事件投递到 Kafka，支持直接发送与 Outbox 两种模式
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
)

// Envelope 事件信封，下游按 event_type 分发
type Envelope struct {
	EventID    string           `json:"event_id"`
	EventType  domain.EventType `json:"event_type"`
	Symbol     string           `json:"symbol"`
	OccurredAt time.Time        `json:"occurred_at"`
	Data       json.RawMessage  `json:"data"`
}

// MessageSender 发送已序列化的消息，pkg/mq.KafkaProducer 实现了该接口
type MessageSender interface {
	SendRaw(ctx context.Context, topic string, key string, data []byte) error
}

// encodeEnvelope 构造并序列化事件信封，返回事件 ID 与字节
func encodeEnvelope(eventType domain.EventType, symbol string, payload interface{}, now time.Time) (string, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Symbol:     symbol,
		OccurredAt: now.UTC(),
		Data:       data,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return env.EventID, body, nil
}
