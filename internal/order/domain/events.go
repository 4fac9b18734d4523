package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType 生命周期事件类型
type EventType string

const (
	EventTypeNewOrder    EventType = "new_order"
	EventTypeCancelOrder EventType = "cancel_order"
)

// NewOrderEvent 新订单事件，交给撮合引擎
type NewOrderEvent struct {
	ID            string              `json:"id"`
	AccountID     string              `json:"account_id"`
	Symbol        string              `json:"symbol"`
	Side          OrderSide           `json:"side"`
	Type          OrderType           `json:"type"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	Price         decimal.NullDecimal `json:"price"`
	QuoteQuantity decimal.NullDecimal `json:"quote_quantity"`
	Base          string              `json:"base"`
	Quote         string              `json:"quote"`
	Status        OrderStatus         `json:"status"`
	InsertTime    time.Time           `json:"insert_time"`
}

// NewOrderEventFrom 由订单记录构造新订单事件
func NewOrderEventFrom(o *Order) NewOrderEvent {
	return NewOrderEvent{
		ID:            o.ID,
		AccountID:     o.AccountID,
		Symbol:        o.Symbol,
		Side:          o.Side,
		Type:          o.Type,
		Quantity:      o.Quantity,
		Price:         o.Price,
		QuoteQuantity: o.QuoteQuantity,
		Base:          o.Base,
		Quote:         o.Quote,
		Status:        o.Status,
		InsertTime:    o.CreatedAt,
	}
}

// CancelEvent 撤单事件
type CancelEvent struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}
