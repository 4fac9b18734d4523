package application

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/exchangeintake/internal/order/domain"
)

type fakeProvider struct {
	mu    sync.Mutex
	rules map[string]domain.SymbolRules
	err   error
	calls int
}

func (p *fakeProvider) Lookup(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	r, ok := p.rules[symbol]
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return &r, nil
}

type fakeAccounts struct {
	known map[string]bool
	err   error
}

func (a *fakeAccounts) AccountExists(ctx context.Context, accountID string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.known[accountID], nil
}

type fakeRepo struct {
	mu         sync.Mutex
	orders     map[string]*domain.Order
	lastFilter domain.OrderFilter
	// 每次写入时 ctx 中的事务标记
	writeTxs []interface{}
}

func newFakeRepo(orders ...*domain.Order) *fakeRepo {
	r := &fakeRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeRepo) Save(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeTxs = append(r.writeTxs, ctx.Value(txKey{}))
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	var out []*domain.Order
	for _, o := range r.orders {
		if filter.AccountID != "" && o.AccountID != filter.AccountID {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) ListOpen(ctx context.Context, accountID, symbol string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.AccountID == accountID && o.Symbol == symbol && o.CanBeCancelled() {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeTxs = append(r.writeTxs, ctx.Value(txKey{}))
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

type txKey struct{}

// fakeUnitOfWork 给每个事务编号并写入 ctx，fn 失败时把仓储还原到事务开始前
type fakeUnitOfWork struct {
	repo  *fakeRepo
	calls int
}

func (u *fakeUnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.calls++
	snapshot := u.repo.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, u.calls)); err != nil {
		u.repo.restore(snapshot)
		return err
	}
	return nil
}

func (r *fakeRepo) snapshot() map[string]domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]domain.Order, len(r.orders))
	for id, o := range r.orders {
		out[id] = *o
	}
	return out
}

func (r *fakeRepo) restore(snapshot map[string]domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = make(map[string]*domain.Order, len(snapshot))
	for id, o := range snapshot {
		o := o
		r.orders[id] = &o
	}
}

type fakePublisher struct {
	mu        sync.Mutex
	newOrders []domain.NewOrderEvent
	cancels   []domain.CancelEvent
	err       error
	// failAfter 成功发布的撤单数达到该值后开始失败，0 表示不限制
	failAfter int
	// 每次发布时 ctx 中的事务标记
	txs []interface{}
}

func (p *fakePublisher) PublishNewOrder(ctx context.Context, event domain.NewOrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs = append(p.txs, ctx.Value(txKey{}))
	if p.err != nil {
		return p.err
	}
	p.newOrders = append(p.newOrders, event)
	return nil
}

func (p *fakePublisher) PublishCancelOrder(ctx context.Context, event domain.CancelEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs = append(p.txs, ctx.Value(txKey{}))
	if p.err != nil && (p.failAfter == 0 || len(p.cancels) >= p.failAfter) {
		return p.err
	}
	p.cancels = append(p.cancels, event)
	return nil
}

type countingCollector struct {
	mu         sync.Mutex
	admissions map[string]int
}

func newCountingCollector() *countingCollector {
	return &countingCollector{admissions: make(map[string]int)}
}

func (c *countingCollector) RecordHTTPRequest(string, string, int, float64) {}
func (c *countingCollector) RecordRuleLookup(string, float64) {}
func (c *countingCollector) RecordPublish(string, bool) {}

func (c *countingCollector) RecordAdmission(result, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.admissions[result+"/"+reason]++
}
