package domain

// ruleKey 按订单类型与方向分派校验规则
type ruleKey struct {
	Type OrderType
	Side OrderSide
}

// ruleFunc 单个类型/方向组合的校验规则，按顺序检查，首个失败项即为结果
type ruleFunc func(req OrderRequest, rules SymbolRules) *Rejection

var admissionRules = map[ruleKey]ruleFunc{
	{OrderTypeLimit, OrderSideBuy}:   checkLimit,
	{OrderTypeLimit, OrderSideSell}:  checkLimit,
	{OrderTypeMarket, OrderSideBuy}:  checkMarketBuy,
	{OrderTypeMarket, OrderSideSell}: checkMarketSell,
}

// Normalize 按交易对规则校验订单并补全 base/quote
// 返回的错误总是 *Rejection
func Normalize(req OrderRequest, rules SymbolRules) (*AdmittedOrder, error) {
	check, ok := admissionRules[ruleKey{Type: req.Type, Side: req.Side}]
	if !ok {
		return nil, Reject(ReasonInvalidField, "unsupported order type and side", "type", "side")
	}
	if rej := check(req, rules); rej != nil {
		return nil, rej
	}

	return &AdmittedOrder{
		OrderRequest: req,
		Base:         rules.BaseAsset,
		Quote:        rules.QuoteAsset,
	}, nil
}

func checkLimit(req OrderRequest, rules SymbolRules) *Rejection {
	if supplied(req.QuoteQuantity) {
		return Reject(ReasonDisallowedField, "quote_quantity can't be sent for limit order", "quote_quantity")
	}
	if !req.Quantity.Valid {
		return Reject(ReasonUnsuppliedField, "quantity must be sent for limit order", "quantity")
	}
	if !req.Price.Valid {
		return Reject(ReasonUnsuppliedField, "price must be sent for limit order", "price")
	}

	quantity, price := req.Quantity.Decimal, req.Price.Decimal
	if quantity.LessThan(rules.MinBaseQuantity) {
		return Reject(ReasonBelowMinimumQuantity, "quantity can't be lower than min_base_quantity of symbol", "quantity")
	}
	if quantity.Mul(price).LessThan(rules.MinQuoteQuantity) {
		return Reject(ReasonBelowMinimumNotional, "order value can't be lower than min_quote_quantity of symbol", "quantity", "price")
	}
	// quantity 对应 quote_precision，price 对应 base_precision，与市场服务现行规则一致，不要互换
	if ExceedsPrecision(quantity, rules.QuotePrecision) {
		return Reject(ReasonPrecisionExceeded, "quantity decimal precision exceeds symbol limit", "quantity")
	}
	if ExceedsPrecision(price, rules.BasePrecision) {
		return Reject(ReasonPrecisionExceeded, "price decimal precision exceeds symbol limit", "price")
	}
	return nil
}

func checkMarketBuy(req OrderRequest, rules SymbolRules) *Rejection {
	if rej := rejectMarketPrice(req); rej != nil {
		return rej
	}
	if supplied(req.Quantity) {
		return Reject(ReasonDisallowedField, "quantity can't be sent for market buy order", "quantity")
	}
	if !supplied(req.QuoteQuantity) {
		return Reject(ReasonUnsuppliedField, "quote_quantity must be sent for market buy order", "quote_quantity")
	}

	quoteQuantity := req.QuoteQuantity.Decimal
	if ExceedsPrecision(quoteQuantity, rules.BasePrecision) {
		return Reject(ReasonPrecisionExceeded, "quote_quantity decimal precision exceeds symbol limit", "quote_quantity")
	}
	if quoteQuantity.LessThan(rules.MinQuoteQuantity) {
		return Reject(ReasonBelowMinimumNotional, "order value can't be lower than min_quote_quantity of symbol", "quote_quantity")
	}
	return nil
}

func checkMarketSell(req OrderRequest, rules SymbolRules) *Rejection {
	if rej := rejectMarketPrice(req); rej != nil {
		return rej
	}
	if supplied(req.QuoteQuantity) {
		return Reject(ReasonDisallowedField, "quote_quantity can't be sent for market sell order", "quote_quantity")
	}
	if !supplied(req.Quantity) {
		return Reject(ReasonUnsuppliedField, "quantity must be sent for market sell order", "quantity")
	}
	if ExceedsPrecision(req.Quantity.Decimal, rules.QuotePrecision) {
		return Reject(ReasonPrecisionExceeded, "quantity decimal precision exceeds symbol limit", "quantity")
	}
	return nil
}

// 市价单不能带价格
func rejectMarketPrice(req OrderRequest) *Rejection {
	if supplied(req.Price) {
		return Reject(ReasonDisallowedField, "price can't be sent for market order", "price")
	}
	return nil
}
