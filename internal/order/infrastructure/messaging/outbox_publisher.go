package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	pkgdb "github.com/wyfcoding/exchangeintake/pkg/db"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	sentRetention = 24 * time.Hour
)

// OutboxMessage 待投递消息
type OutboxMessage struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	EventID    string    `gorm:"type:varchar(36);index"`
	EventType  string    `gorm:"type:varchar(50);index"`
	Topic      string    `gorm:"type:varchar(100)"`
	MessageKey string    `gorm:"column:message_key;type:varchar(50)"`
	Payload    string    `gorm:"type:text"`
	Status     string    `gorm:"type:varchar(20);index;default:'pending'"`
	Attempts   int       `gorm:"default:0"`
	LastError  string    `gorm:"type:varchar(500)"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "order_outbox_messages"
}

// AutoMigrate 迁移 outbox 表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&OutboxMessage{})
}

// OutboxEventPublisher 实现 EventPublisher 接口，事件先写入 outbox 表，由 OutboxRelay 投递
// 与订单写入处于同一 pkg/db.WithTx 事务时，二者同时提交或同时回滚
type OutboxEventPublisher struct {
	db    *gorm.DB
	topic string
	now   func() time.Time
}

// NewOutboxEventPublisher 创建新的 OutboxEventPublisher 实例
func NewOutboxEventPublisher(db *gorm.DB, topic string) *OutboxEventPublisher {
	return &OutboxEventPublisher{db: db, topic: topic, now: time.Now}
}

// PublishNewOrder 发布新订单事件
func (p *OutboxEventPublisher) PublishNewOrder(ctx context.Context, event domain.NewOrderEvent) error {
	return p.publishEvent(ctx, domain.EventTypeNewOrder, event.Symbol, event)
}

// PublishCancelOrder 发布撤单事件
func (p *OutboxEventPublisher) PublishCancelOrder(ctx context.Context, event domain.CancelEvent) error {
	return p.publishEvent(ctx, domain.EventTypeCancelOrder, event.Symbol, event)
}

// publishEvent 通用事件写入方法
func (p *OutboxEventPublisher) publishEvent(ctx context.Context, eventType domain.EventType, symbol string, payload interface{}) error {
	message, err := newOutboxMessage(p.topic, eventType, symbol, payload, p.now())
	if err != nil {
		return err
	}
	if err := pkgdb.Conn(ctx, p.db).Create(message).Error; err != nil {
		return fmt.Errorf("failed to store outbox message: %w", err)
	}
	return nil
}

func newOutboxMessage(topic string, eventType domain.EventType, symbol string, payload interface{}, now time.Time) (*OutboxMessage, error) {
	eventID, body, err := encodeEnvelope(eventType, symbol, payload, now)
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		ID:         uuid.NewString(),
		EventID:    eventID,
		EventType:  string(eventType),
		Topic:      topic,
		MessageKey: symbol,
		Payload:    string(body),
		Status:     outboxStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// OutboxRelay 将 outbox 表中的待投递消息转发到 Kafka
type OutboxRelay struct {
	db        *gorm.DB
	sender    MessageSender
	batchSize int
	interval  time.Duration
}

// NewOutboxRelay 创建 outbox 投递器
func NewOutboxRelay(db *gorm.DB, sender MessageSender, batchSize int, interval time.Duration) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelay{db: db, sender: sender, batchSize: batchSize, interval: interval}
}

// Run 周期性投递，直到 ctx 取消；已投递消息保留 sentRetention 后清理
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.ProcessOutboxMessages(ctx); err != nil {
				logger.Warn(ctx, "Outbox relay batch failed", "error", err)
			}
		case <-cleanup.C:
			n, err := r.CleanupProcessedMessages(ctx, time.Now().Add(-sentRetention))
			if err != nil {
				logger.Warn(ctx, "Outbox cleanup failed", "error", err)
				continue
			}
			logger.Debug(ctx, "Outbox cleanup finished", "deleted", n)
		}
	}
}

// ProcessOutboxMessages 按写入顺序投递一批消息，返回成功条数
// 遇到失败即停止本批次，保证同一批内不乱序；多实例通过 SKIP LOCKED 分摊
func (r *OutboxRelay) ProcessOutboxMessages(ctx context.Context) (int, error) {
	sent := 0
	var relayErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var messages []OutboxMessage
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", outboxStatusPending).
			Order("created_at asc").
			Limit(r.batchSize).
			Find(&messages).Error; err != nil {
			return err
		}

		for i := range messages {
			msg := &messages[i]
			if err := r.sender.SendRaw(ctx, msg.Topic, msg.MessageKey, []byte(msg.Payload)); err != nil {
				if uerr := tx.Model(msg).Updates(map[string]interface{}{
					"attempts":   gorm.Expr("attempts + 1"),
					"last_error": truncate(err.Error(), 500),
				}).Error; uerr != nil {
					return uerr
				}
				// 提交已成功条目与失败计数，剩余消息留待下一批
				relayErr = fmt.Errorf("failed to relay outbox message %s: %w", msg.ID, err)
				return nil
			}

			if err := tx.Model(msg).Update("status", outboxStatusSent).Error; err != nil {
				return err
			}
			sent++
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return sent, relayErr
}

// CleanupProcessedMessages 清理已投递的消息
func (r *OutboxRelay) CleanupProcessedMessages(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", outboxStatusSent, before).
		Delete(&OutboxMessage{})
	return res.RowsAffected, res.Error
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
