package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
	"github.com/wyfcoding/exchangeintake/pkg/metrics"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// OrderService 订单应用服务：准入、落库、发布生命周期事件
type OrderService struct {
	engine    *AdmissionEngine
	accounts  domain.AccountLookup
	repo      domain.OrderRepository
	publisher domain.EventPublisher
	metrics   metrics.MetricsCollector
	uow       domain.UnitOfWork

	newID func() string
	now   func() time.Time
}

// NewOrderService 创建订单应用服务，accounts 为 nil 时不检查账户
func NewOrderService(
	engine *AdmissionEngine,
	accounts domain.AccountLookup,
	repo domain.OrderRepository,
	publisher domain.EventPublisher,
	collector metrics.MetricsCollector,
) *OrderService {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &OrderService{
		engine:    engine,
		accounts:  accounts,
		repo:      repo,
		publisher: publisher,
		metrics:   collector,
		uow:       noTx{},
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// WithUnitOfWork 让订单写入与事件发布共处一个事务，用于 outbox 发布模式
func (s *OrderService) WithUnitOfWork(uow domain.UnitOfWork) *OrderService {
	if uow != nil {
		s.uow = uow
	}
	return s
}

// noTx 不开启事务，按顺序直接执行
type noTx struct{}

func (noTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// PlaceOrder 下单
// 事件发布失败时返回 *domain.PublishFault；未配置事务时订单已落库，配置事务时一并回滚
func (s *OrderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*OrderDTO, error) {
	req := cmd.toRequest()

	admitted, err := s.engine.Admit(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.accounts != nil {
		exists, err := s.accounts.AccountExists(ctx, req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to check account: %w", err)
		}
		if !exists {
			s.metrics.RecordAdmission("rejected", string(domain.ReasonUnknownAccount))
			return nil, domain.Reject(domain.ReasonUnknownAccount, "account does not exist", "account_id")
		}
	}

	order := domain.NewOrder(admitted, s.newID(), s.now().UTC())
	err = s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		if err := s.publisher.PublishNewOrder(ctx, domain.NewOrderEventFrom(order)); err != nil {
			return &domain.PublishFault{EventType: domain.EventTypeNewOrder, OrderID: order.ID, Err: err}
		}
		return nil
	})
	if err != nil {
		var fault *domain.PublishFault
		if errors.As(err, &fault) {
			s.metrics.RecordPublish(string(domain.EventTypeNewOrder), false)
			logger.Error(ctx, "Failed to publish new order event", "order_id", order.ID, "error", fault.Err)
		}
		return nil, err
	}
	s.metrics.RecordPublish(string(domain.EventTypeNewOrder), true)

	logger.Info(ctx, "Order admitted",
		"order_id", order.ID,
		"account_id", order.AccountID,
		"symbol", order.Symbol,
		"side", order.Side,
		"type", order.Type,
	)
	return toOrderDTO(order), nil
}

// CancelOrder 撤销单个订单
func (s *OrderService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) (*OrderDTO, error) {
	order, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if order.AccountID != cmd.AccountID {
		return nil, ErrUnauthorized
	}
	if !order.CanBeCancelled() {
		return nil, ErrInvalidOrderStatus
	}

	if err := s.requestCancel(ctx, order, domain.Cancel(order)); err != nil {
		return nil, err
	}
	return toOrderDTO(order), nil
}

// CancelOrders 撤销账户在某交易对上的全部可撤订单
// 遇到发布失败立即停止，返回已撤销的订单与错误
func (s *OrderService) CancelOrders(ctx context.Context, accountID, symbol string) ([]*OrderDTO, error) {
	orders, err := s.repo.ListOpen(ctx, accountID, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}

	events := domain.CancelAll(orders)
	cancelled := make([]*domain.Order, 0, len(orders))
	for i, order := range orders {
		if err := s.requestCancel(ctx, order, events[i]); err != nil {
			return toOrderDTOs(cancelled), err
		}
		cancelled = append(cancelled, order)
	}

	logger.Info(ctx, "Orders cancel requested",
		"account_id", accountID,
		"symbol", symbol,
		"count", len(cancelled),
	)
	return toOrderDTOs(cancelled), nil
}

// requestCancel 发布撤单事件并将订单置为 CANCEL_REQUESTED，二者处于同一事务
func (s *OrderService) requestCancel(ctx context.Context, order *domain.Order, event domain.CancelEvent) error {
	err := s.uow.WithTx(ctx, func(ctx context.Context) error {
		if err := s.publisher.PublishCancelOrder(ctx, event); err != nil {
			return &domain.PublishFault{EventType: domain.EventTypeCancelOrder, OrderID: order.ID, Err: err}
		}
		if err := s.repo.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelRequested); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		var fault *domain.PublishFault
		if errors.As(err, &fault) {
			s.metrics.RecordPublish(string(domain.EventTypeCancelOrder), false)
			logger.Error(ctx, "Failed to publish cancel order event", "order_id", order.ID, "error", fault.Err)
		}
		return err
	}
	s.metrics.RecordPublish(string(domain.EventTypeCancelOrder), true)

	order.Status = domain.OrderStatusCancelRequested
	order.UpdatedAt = s.now().UTC()
	return nil
}

// GetOrder 获取订单
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderDTO(order), nil
}

// ListOrders 分页查询订单
func (s *OrderService) ListOrders(ctx context.Context, q ListOrdersQuery) ([]*OrderDTO, int64, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	orders, total, err := s.repo.List(ctx, domain.OrderFilter{
		AccountID: q.AccountID,
		Symbol:    q.Symbol,
		Status:    domain.OrderStatus(q.Status),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return toOrderDTOs(orders), total, nil
}

// 错误定义
var (
	ErrUnauthorized       = NewError("unauthorized", "unauthorized to cancel this order")
	ErrInvalidOrderStatus = NewError("invalid_order_status", "order status cannot be cancelled")
)

// Error 应用层错误
type Error struct {
	Code    string
	Message string
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Message
}

// NewError 创建新的错误
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}
