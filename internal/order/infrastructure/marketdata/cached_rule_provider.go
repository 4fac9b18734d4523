package marketdata

import (
	"context"
	"time"

	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	ruleCacheKeyPrefix = "intake:symbol_rules:"

	// 合并回源的请求不跟随任何单个调用方的取消，仅受该上限约束
	sharedLookupTimeout = 10 * time.Second
)

// RuleCache 规则缓存，pkg/cache.RedisCache 实现了该接口
type RuleCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CachedRuleProvider 读穿缓存，同一交易对的并发未命中只回源一次
// 缓存不可用时直接回源，不存在的交易对不缓存
type CachedRuleProvider struct {
	next  domain.SymbolRuleProvider
	cache RuleCache
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedRuleProvider 创建带缓存的规则查询
func NewCachedRuleProvider(next domain.SymbolRuleProvider, cache RuleCache, ttl time.Duration) *CachedRuleProvider {
	return &CachedRuleProvider{
		next:  next,
		cache: cache,
		ttl:   ttl,
	}
}

// Lookup 查询交易对规则
func (c *CachedRuleProvider) Lookup(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	key := ruleCacheKeyPrefix + symbol

	var cached domain.SymbolRules
	hit, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warn(ctx, "Symbol rules cache read failed", "symbol", symbol, "error", err)
	} else if hit {
		return &cached, nil
	}

	ch := c.group.DoChan(symbol, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		rules, err := c.next.Lookup(shared, symbol)
		if err != nil {
			return nil, err
		}
		if err := c.cache.SetJSON(shared, key, rules, c.ttl); err != nil {
			logger.Warn(ctx, "Symbol rules cache write failed", "symbol", symbol, "error", err)
		}
		return rules, nil
	})

	var v interface{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v = res.Val
	}

	// 每个调用方拿到独立的副本
	rules := *v.(*domain.SymbolRules)
	return &rules, nil
}
