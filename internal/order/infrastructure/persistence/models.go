// Package persistence 提供订单仓储与账户查询的 GORM 实现，支持 PostgreSQL 与 MySQL
package persistence

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"gorm.io/gorm"
)

// OrderModel 订单数据库模型，映射 orders 表
type OrderModel struct {
	gorm.Model
	OrderID        string              `gorm:"column:order_id;type:varchar(36);uniqueIndex;not null;comment:订单唯一标识"`
	AccountID      string              `gorm:"column:account_id;type:varchar(36);index:idx_orders_open,priority:1;not null;comment:所属账户ID"`
	Symbol         string              `gorm:"column:symbol;type:varchar(20);index:idx_orders_open,priority:2;not null;comment:交易对"`
	Side           string              `gorm:"column:side;type:varchar(10);not null;comment:买卖方向(buy/sell)"`
	Type           string              `gorm:"column:type;type:varchar(10);not null;comment:订单类型(limit/market)"`
	Quantity       decimal.NullDecimal `gorm:"column:quantity;type:decimal(32,18);comment:委托数量(base)"`
	Price          decimal.NullDecimal `gorm:"column:price;type:decimal(32,18);comment:委托价格"`
	QuoteQuantity  decimal.NullDecimal `gorm:"column:quote_quantity;type:decimal(32,18);comment:委托金额(quote)"`
	Base           string              `gorm:"column:base;type:varchar(10);not null"`
	Quote          string              `gorm:"column:quote;type:varchar(10);not null"`
	FilledQuantity decimal.Decimal     `gorm:"column:filled_quantity;type:decimal(32,18);default:0;not null;comment:累计成交数量"`
	FilledQuote    decimal.Decimal     `gorm:"column:filled_quote;type:decimal(32,18);default:0;not null;comment:累计成交金额"`
	Status         string              `gorm:"column:status;type:varchar(20);index:idx_orders_open,priority:3;not null;comment:订单状态"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// AccountModel 账户表，只读
type AccountModel struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	WalletID  string    `gorm:"column:wallet_id;type:varchar(36);index"`
	Name      string    `gorm:"column:name;type:varchar(100)"`
	Type      string    `gorm:"column:type;type:varchar(20)"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName 指定表名
func (AccountModel) TableName() string {
	return "accounts"
}

// AutoMigrate 迁移订单与账户表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&OrderModel{}, &AccountModel{})
}

func toOrderModel(o *domain.Order) *OrderModel {
	m := &OrderModel{
		OrderID:        o.ID,
		AccountID:      o.AccountID,
		Symbol:         o.Symbol,
		Side:           string(o.Side),
		Type:           string(o.Type),
		Quantity:       o.Quantity,
		Price:          o.Price,
		QuoteQuantity:  o.QuoteQuantity,
		Base:           o.Base,
		Quote:          o.Quote,
		FilledQuantity: o.FilledQuantity,
		FilledQuote:    o.FilledQuote,
		Status:         string(o.Status),
	}
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	return m
}

func toOrder(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:             m.OrderID,
		AccountID:      m.AccountID,
		Symbol:         m.Symbol,
		Side:           domain.OrderSide(m.Side),
		Type:           domain.OrderType(m.Type),
		Quantity:       m.Quantity,
		Price:          m.Price,
		QuoteQuantity:  m.QuoteQuantity,
		Base:           m.Base,
		Quote:          m.Quote,
		Status:         domain.OrderStatus(m.Status),
		FilledQuantity: m.FilledQuantity,
		FilledQuote:    m.FilledQuote,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
