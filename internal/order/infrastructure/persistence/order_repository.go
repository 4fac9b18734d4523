package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	pkgdb "github.com/wyfcoding/exchangeintake/pkg/db"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// openStatuses 可撤销的订单状态
var openStatuses = []string{
	string(domain.OrderStatusNew),
	string(domain.OrderStatusPartiallyFilled),
}

// orderRepository 是 domain.OrderRepository 的 GORM 实现
// ctx 中带有事务时（pkg/db.WithTx）所有语句在该事务内执行
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

// Save 按 order_id 插入或更新
func (r *orderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := toOrderModel(order)

	err := pkgdb.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "filled_quantity", "filled_quote", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		logger.Error(ctx, "order_repository.save failed", "order_id", order.ID, "error", err)
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// Get 根据订单 ID 获取订单
func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var model OrderModel
	if err := pkgdb.Conn(ctx, r.db).Where("order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		logger.Error(ctx, "order_repository.get failed", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return toOrder(&model), nil
}

// List 分页查询
func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	query := pkgdb.Conn(ctx, r.db).Model(&OrderModel{})
	if filter.AccountID != "" {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Symbol != "" {
		query = query.Where("symbol = ?", filter.Symbol)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var models []OrderModel
	if err := query.Order("created_at desc").Limit(filter.Limit).Offset(filter.Offset).Find(&models).Error; err != nil {
		logger.Error(ctx, "order_repository.list failed", "account_id", filter.AccountID, "error", err)
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return toOrders(models), total, nil
}

// ListOpen 获取账户在某交易对上可撤销的订单，按创建时间升序
func (r *orderRepository) ListOpen(ctx context.Context, accountID, symbol string) ([]*domain.Order, error) {
	var models []OrderModel
	err := pkgdb.Conn(ctx, r.db).
		Where("account_id = ? AND symbol = ? AND status IN ?", accountID, symbol, openStatuses).
		Order("created_at asc").
		Find(&models).Error
	if err != nil {
		logger.Error(ctx, "order_repository.list_open failed", "account_id", accountID, "symbol", symbol, "error", err)
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}
	return toOrders(models), nil
}

// UpdateStatus 更新订单状态
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	res := pkgdb.Conn(ctx, r.db).Model(&OrderModel{}).
		Where("order_id = ?", orderID).
		Update("status", string(status))
	if res.Error != nil {
		logger.Error(ctx, "order_repository.update_status failed", "order_id", orderID, "error", res.Error)
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func toOrders(models []OrderModel) []*domain.Order {
	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = toOrder(&models[i])
	}
	return orders
}

// accountLookup 是 domain.AccountLookup 的 GORM 实现
type accountLookup struct {
	db *gorm.DB
}

// NewAccountLookup 创建账户查询
func NewAccountLookup(db *gorm.DB) domain.AccountLookup {
	return &accountLookup{db: db}
}

// AccountExists 账户是否存在
func (a *accountLookup) AccountExists(ctx context.Context, accountID string) (bool, error) {
	var count int64
	if err := pkgdb.Conn(ctx, a.db).Model(&AccountModel{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return count > 0, nil
}
