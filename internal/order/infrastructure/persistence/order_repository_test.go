package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，固定单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(gdb))
	return gdb
}

func limitOrder(id, accountID, symbol string, status domain.OrderStatus, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:             id,
		AccountID:      accountID,
		Symbol:         symbol,
		Side:           domain.OrderSideBuy,
		Type:           domain.OrderTypeLimit,
		Quantity:       decimal.NewNullDecimal(decimal.RequireFromString("0.5")),
		Price:          decimal.NewNullDecimal(decimal.RequireFromString("42000.25")),
		Base:           "BTC",
		Quote:          "USDT",
		Status:         status,
		FilledQuantity: decimal.Zero,
		FilledQuote:    decimal.Zero,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func orderIDs(orders []*domain.Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

func TestOrderRepositorySaveAndGet(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	order := limitOrder("order-1", "acc-1", "BTCUSDT", domain.OrderStatusNew, baseTime)
	require.NoError(t, repo.Save(ctx, order))

	got, err := repo.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.AccountID)
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.Equal(t, domain.OrderTypeLimit, got.Type)
	assert.Equal(t, domain.OrderStatusNew, got.Status)
	assert.True(t, got.Quantity.Decimal.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, got.Price.Decimal.Equal(decimal.RequireFromString("42000.25")))
	assert.False(t, got.QuoteQuantity.Valid)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepositorySaveUpsertsByOrderID(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewOrderRepository(gdb)
	ctx := context.Background()

	order := limitOrder("order-1", "acc-1", "BTCUSDT", domain.OrderStatusNew, baseTime)
	require.NoError(t, repo.Save(ctx, order))

	order.Status = domain.OrderStatusPartiallyFilled
	order.FilledQuantity = decimal.RequireFromString("0.25")
	order.UpdatedAt = baseTime.Add(time.Minute)
	require.NoError(t, repo.Save(ctx, order))

	var count int64
	require.NoError(t, gdb.Model(&OrderModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPartiallyFilled, got.Status)
	assert.True(t, got.FilledQuantity.Equal(decimal.RequireFromString("0.25")))
}

func TestOrderRepositoryListOpen(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	for _, o := range []*domain.Order{
		limitOrder("newest-open", "acc-1", "BTCUSDT", domain.OrderStatusNew, baseTime.Add(2*time.Second)),
		limitOrder("oldest-open", "acc-1", "BTCUSDT", domain.OrderStatusPartiallyFilled, baseTime.Add(time.Second)),
		limitOrder("filled", "acc-1", "BTCUSDT", domain.OrderStatusFilled, baseTime),
		limitOrder("cancelled", "acc-1", "BTCUSDT", domain.OrderStatusCancelled, baseTime),
		limitOrder("cancel-requested", "acc-1", "BTCUSDT", domain.OrderStatusCancelRequested, baseTime),
		limitOrder("other-symbol", "acc-1", "ETHUSDT", domain.OrderStatusNew, baseTime),
		limitOrder("other-account", "acc-2", "BTCUSDT", domain.OrderStatusNew, baseTime),
	} {
		require.NoError(t, repo.Save(ctx, o))
	}

	open, err := repo.ListOpen(ctx, "acc-1", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, []string{"oldest-open", "newest-open"}, orderIDs(open))

	open, err = repo.ListOpen(ctx, "acc-3", "BTCUSDT")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestOrderRepositoryUpdateStatus(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, limitOrder("order-1", "acc-1", "BTCUSDT", domain.OrderStatusNew, baseTime)))
	require.NoError(t, repo.UpdateStatus(ctx, "order-1", domain.OrderStatusCancelRequested))

	got, err := repo.Get(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelRequested, got.Status)

	err = repo.UpdateStatus(ctx, "missing", domain.OrderStatusCancelRequested)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepositoryList(t *testing.T) {
	repo := NewOrderRepository(newTestDB(t))
	ctx := context.Background()

	for i, status := range []domain.OrderStatus{
		domain.OrderStatusNew, domain.OrderStatusFilled, domain.OrderStatusNew, domain.OrderStatusNew,
	} {
		id := []string{"a", "b", "c", "d"}[i]
		require.NoError(t, repo.Save(ctx, limitOrder(id, "acc-1", "BTCUSDT", status, baseTime.Add(time.Duration(i)*time.Second))))
	}
	require.NoError(t, repo.Save(ctx, limitOrder("e", "acc-2", "BTCUSDT", domain.OrderStatusNew, baseTime)))

	orders, total, err := repo.List(ctx, domain.OrderFilter{AccountID: "acc-1", Status: domain.OrderStatusNew, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"d", "c"}, orderIDs(orders))

	orders, total, err = repo.List(ctx, domain.OrderFilter{AccountID: "acc-1", Status: domain.OrderStatusNew, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"a"}, orderIDs(orders))
}

func TestAccountLookup(t *testing.T) {
	gdb := newTestDB(t)
	require.NoError(t, gdb.Create(&AccountModel{ID: "acc-1", Name: "alice", Type: "spot", CreatedAt: baseTime}).Error)
	lookup := NewAccountLookup(gdb)

	ok, err := lookup.AccountExists(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lookup.AccountExists(context.Background(), "acc-2")
	require.NoError(t, err)
	assert.False(t, ok)
}
