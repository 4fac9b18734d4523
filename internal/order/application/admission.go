package application

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
	"github.com/wyfcoding/exchangeintake/pkg/metrics"
)

// AdmissionEngine 订单准入引擎：查询交易对规则后交由领域规则校验
// 无内部状态，可并发使用，不做重试
type AdmissionEngine struct {
	provider domain.SymbolRuleProvider
	metrics  metrics.MetricsCollector
}

// NewAdmissionEngine 创建准入引擎
func NewAdmissionEngine(provider domain.SymbolRuleProvider, collector metrics.MetricsCollector) *AdmissionEngine {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &AdmissionEngine{
		provider: provider,
		metrics:  collector,
	}
}

// Admit 对下单请求做准入判断
// 错误为 *domain.Rejection 或 *domain.ProviderFault 之一
func (e *AdmissionEngine) Admit(ctx context.Context, req domain.OrderRequest) (*domain.AdmittedOrder, error) {
	start := time.Now()
	rules, err := e.provider.Lookup(ctx, req.Symbol)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		if errors.Is(err, domain.ErrSymbolNotFound) {
			e.metrics.RecordRuleLookup("not_found", elapsed)
			return nil, e.reject(ctx, req, domain.Reject(domain.ReasonUnknownSymbol, "symbol does not exist", "symbol"))
		}

		e.metrics.RecordRuleLookup("error", elapsed)
		e.metrics.RecordAdmission("fault", "")
		logger.Error(ctx, "Failed to lookup symbol rules", "symbol", req.Symbol, "error", err)
		return nil, &domain.ProviderFault{Symbol: req.Symbol, Err: err}
	}
	e.metrics.RecordRuleLookup("ok", elapsed)

	if err := req.Validate(); err != nil {
		return nil, e.reject(ctx, req, err)
	}

	admitted, err := domain.Normalize(req, *rules)
	if err != nil {
		return nil, e.reject(ctx, req, err)
	}

	e.metrics.RecordAdmission("admitted", "")
	return admitted, nil
}

func (e *AdmissionEngine) reject(ctx context.Context, req domain.OrderRequest, err error) error {
	reason := "unknown"
	if rej, ok := domain.AsRejection(err); ok {
		reason = string(rej.Reason)
	}
	e.metrics.RecordAdmission("rejected", reason)
	logger.Info(ctx, "Order rejected",
		"account_id", req.AccountID,
		"symbol", req.Symbol,
		"reason", reason,
	)
	return err
}
