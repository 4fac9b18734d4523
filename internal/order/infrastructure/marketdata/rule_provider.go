// Package marketdata 从市场服务获取交易对规则
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
)

// Config 市场服务客户端配置
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	// 连续失败次数达到该值时熔断
	BreakerFailures uint32
	// 熔断后进入半开状态前的等待时间
	BreakerTimeout time.Duration
}

// HTTPRuleProvider 通过 HTTP 查询市场服务 GET /symbol/{symbol}
type HTTPRuleProvider struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPRuleProvider 创建规则查询客户端
func NewHTTPRuleProvider(cfg Config) *HTTPRuleProvider {
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "market-symbol-rules",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// 交易对不存在是正常应答，不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrSymbolNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &HTTPRuleProvider{client: client, breaker: breaker}
}

// Lookup 查询交易对规则
func (p *HTTPRuleProvider) Lookup(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	if symbol == "" {
		return nil, domain.ErrSymbolNotFound
	}

	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.SymbolRules), nil
}

func (p *HTTPRuleProvider) fetch(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		Get("/symbol/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("failed to request market service: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrSymbolNotFound
	default:
		return nil, fmt.Errorf("market service returned status %d", resp.StatusCode())
	}

	var rules domain.SymbolRules
	if err := json.Unmarshal(resp.Body(), &rules); err != nil {
		return nil, fmt.Errorf("failed to decode symbol rules: %w", err)
	}
	if rules.Symbol == "" {
		rules.Symbol = symbol
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid symbol rules for %s: %w", symbol, err)
	}
	return &rules, nil
}
