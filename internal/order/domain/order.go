// Package domain 包含订单准入的领域模型与规则
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelRequested OrderStatus = "CANCEL_REQUESTED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// OrderSide 订单方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

const (
	// maxSymbolLength 交易对符号最大长度
	maxSymbolLength = 20

	// 数值字段的存储范围，与 decimal(32,18) 列一致
	maxIntegerDigits  = 14
	maxFractionDigits = 18
)

// decimalUpperBound 整数部分允许的上界（不含）
var decimalUpperBound = decimal.New(1, maxIntegerDigits)

// OrderRequest 外部提交的下单请求
// Quantity/Price/QuoteQuantity 均为可选字段
type OrderRequest struct {
	AccountID     string
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Quantity      decimal.NullDecimal
	Price         decimal.NullDecimal
	QuoteQuantity decimal.NullDecimal
}

// Validate 结构校验：必填字段、枚举取值、数值非负且在可存储范围内
func (r OrderRequest) Validate() error {
	if r.AccountID == "" {
		return Reject(ReasonInvalidField, "account_id is required", "account_id")
	}
	if r.Symbol == "" || len(r.Symbol) > maxSymbolLength {
		return Reject(ReasonInvalidField, "symbol must be 1-20 characters", "symbol")
	}
	if r.Side != OrderSideBuy && r.Side != OrderSideSell {
		return Reject(ReasonInvalidField, "side must be buy or sell", "side")
	}
	if r.Type != OrderTypeLimit && r.Type != OrderTypeMarket {
		return Reject(ReasonInvalidField, "type must be limit or market", "type")
	}

	for _, f := range []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"quantity", r.Quantity},
		{"price", r.Price},
		{"quote_quantity", r.QuoteQuantity},
	} {
		if !f.value.Valid {
			continue
		}
		if f.value.Decimal.IsNegative() {
			return Reject(ReasonInvalidField, f.name+" can't be negative", f.name)
		}
		if f.value.Decimal.Truncate(0).GreaterThanOrEqual(decimalUpperBound) {
			return Reject(ReasonInvalidField, f.name+" exceeds 14 integer digits", f.name)
		}
		if ExceedsPrecision(f.value.Decimal, maxFractionDigits) {
			return Reject(ReasonInvalidField, f.name+" exceeds 18 decimal places", f.name)
		}
	}
	return nil
}

// supplied 字段存在且非零视为已提交
func supplied(v decimal.NullDecimal) bool {
	return v.Valid && !v.Decimal.IsZero()
}

// AdmittedOrder 通过准入的订单，附带交易对的 base/quote 资产
type AdmittedOrder struct {
	OrderRequest
	Base  string
	Quote string
}

// Order 订单记录
type Order struct {
	ID             string
	AccountID      string
	Symbol         string
	Side           OrderSide
	Type           OrderType
	Quantity       decimal.NullDecimal
	Price          decimal.NullDecimal
	QuoteQuantity  decimal.NullDecimal
	Base           string
	Quote          string
	Status         OrderStatus
	FilledQuantity decimal.Decimal
	FilledQuote    decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewOrder 由准入结果创建订单记录，ID 与时间由调用方分配
func NewOrder(admitted *AdmittedOrder, id string, now time.Time) *Order {
	return &Order{
		ID:             id,
		AccountID:      admitted.AccountID,
		Symbol:         admitted.Symbol,
		Side:           admitted.Side,
		Type:           admitted.Type,
		Quantity:       admitted.Quantity,
		Price:          admitted.Price,
		QuoteQuantity:  admitted.QuoteQuantity,
		Base:           admitted.Base,
		Quote:          admitted.Quote,
		Status:         OrderStatusNew,
		FilledQuantity: decimal.Zero,
		FilledQuote:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CanBeCancelled 是否可以取消
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusNew || o.Status == OrderStatusPartiallyFilled
}
