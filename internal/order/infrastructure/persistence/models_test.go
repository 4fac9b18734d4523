package persistence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
)

func TestOrderModelMapping(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	order := &domain.Order{
		ID:             "3f0c9a4e-8a47-4f5e-9e83-0c2b3b2f6d11",
		AccountID:      "8a1d7c3e-0c43-4b8e-9f51-6f2b8f7c1e01",
		Symbol:         "BTCUSDT",
		Side:           domain.OrderSideBuy,
		Type:           domain.OrderTypeMarket,
		QuoteQuantity:  decimal.NewNullDecimal(decimal.RequireFromString("25.50")),
		Base:           "BTC",
		Quote:          "USDT",
		Status:         domain.OrderStatusNew,
		FilledQuantity: decimal.Zero,
		FilledQuote:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m := toOrderModel(order)
	assert.Equal(t, order.ID, m.OrderID)
	assert.False(t, m.Quantity.Valid)
	assert.False(t, m.Price.Valid)
	assert.Equal(t, int32(-2), m.QuoteQuantity.Decimal.Exponent())
	assert.Equal(t, now, m.CreatedAt)

	assert.Equal(t, order, toOrder(m))
}

func TestOpenStatuses(t *testing.T) {
	for _, s := range []domain.OrderStatus{domain.OrderStatusNew, domain.OrderStatusPartiallyFilled} {
		o := &domain.Order{Status: s}
		assert.True(t, o.CanBeCancelled())
		assert.Contains(t, openStatuses, string(s))
	}
	assert.Len(t, openStatuses, 2)
}
