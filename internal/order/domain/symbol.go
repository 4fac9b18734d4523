package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrSymbolNotFound 交易对不存在
var ErrSymbolNotFound = errors.New("symbol not found")

// SymbolRules 交易对的交易规则快照
type SymbolRules struct {
	Symbol           string          `json:"symbol,omitempty"`
	BaseAsset        string          `json:"base_asset"`
	QuoteAsset       string          `json:"quote_asset"`
	MinBaseQuantity  decimal.Decimal `json:"min_base_quantity"`
	MinQuoteQuantity decimal.Decimal `json:"min_quote_quantity"`
	// base 计价数量允许的最大小数位
	BasePrecision int32 `json:"base_precision"`
	// quote 计价数量与价格允许的最大小数位
	QuotePrecision int32 `json:"quote_precision"`
}

// Validate 检查规则本身是否合法
func (r SymbolRules) Validate() error {
	if r.BaseAsset == "" || r.QuoteAsset == "" {
		return errors.New("symbol rules missing base or quote asset")
	}
	if r.MinBaseQuantity.IsNegative() || r.MinQuoteQuantity.IsNegative() {
		return errors.New("symbol rules have negative minimum quantity")
	}
	if r.BasePrecision < 0 || r.QuotePrecision < 0 {
		return errors.New("symbol rules have negative precision")
	}
	return nil
}

// SymbolRuleProvider 交易对规则查询
// 不存在时返回 ErrSymbolNotFound，其他错误视为服务故障
type SymbolRuleProvider interface {
	Lookup(ctx context.Context, symbol string) (*SymbolRules, error)
}
