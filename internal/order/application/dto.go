package application

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
)

// PlaceOrderCommand 下单命令
type PlaceOrderCommand struct {
	AccountID     string
	Symbol        string
	Side          string
	Type          string
	Quantity      decimal.NullDecimal
	Price         decimal.NullDecimal
	QuoteQuantity decimal.NullDecimal
}

func (cmd PlaceOrderCommand) toRequest() domain.OrderRequest {
	return domain.OrderRequest{
		AccountID:     cmd.AccountID,
		Symbol:        cmd.Symbol,
		Side:          domain.OrderSide(cmd.Side),
		Type:          domain.OrderType(cmd.Type),
		Quantity:      cmd.Quantity,
		Price:         cmd.Price,
		QuoteQuantity: cmd.QuoteQuantity,
	}
}

// CancelOrderCommand 撤单命令
type CancelOrderCommand struct {
	OrderID   string
	AccountID string
}

// ListOrdersQuery 订单列表查询
type ListOrdersQuery struct {
	AccountID string
	Symbol    string
	Status    string
	Limit     int
	Offset    int
}

// OrderDTO API 输出结构
type OrderDTO struct {
	ID             string              `json:"id"`
	AccountID      string              `json:"account_id"`
	Symbol         string              `json:"symbol"`
	Side           string              `json:"side"`
	Type           string              `json:"type"`
	Quantity       decimal.NullDecimal `json:"quantity"`
	Price          decimal.NullDecimal `json:"price"`
	QuoteQuantity  decimal.NullDecimal `json:"quote_quantity"`
	Base           string              `json:"base"`
	Quote          string              `json:"quote"`
	Status         string              `json:"status"`
	FilledQuantity decimal.Decimal     `json:"filled_quantity"`
	FilledQuote    decimal.Decimal     `json:"filled_quote"`
	InsertTime     time.Time           `json:"insert_time"`
	UpdateTime     time.Time           `json:"update_time"`
}

func toOrderDTO(o *domain.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:             o.ID,
		AccountID:      o.AccountID,
		Symbol:         o.Symbol,
		Side:           string(o.Side),
		Type:           string(o.Type),
		Quantity:       o.Quantity,
		Price:          o.Price,
		QuoteQuantity:  o.QuoteQuantity,
		Base:           o.Base,
		Quote:          o.Quote,
		Status:         string(o.Status),
		FilledQuantity: o.FilledQuantity,
		FilledQuote:    o.FilledQuote,
		InsertTime:     o.CreatedAt,
		UpdateTime:     o.UpdatedAt,
	}
}

func toOrderDTOs(orders []*domain.Order) []*OrderDTO {
	dtos := make([]*OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderDTO(o))
	}
	return dtos
}
