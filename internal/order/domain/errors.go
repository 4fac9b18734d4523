package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RejectionReason 拒绝原因
type RejectionReason string

const (
	ReasonUnsuppliedField      RejectionReason = "unsupplied_field"
	ReasonDisallowedField      RejectionReason = "disallowed_field_for_type"
	ReasonBelowMinimumQuantity RejectionReason = "below_minimum_quantity"
	ReasonBelowMinimumNotional RejectionReason = "below_minimum_notional"
	ReasonPrecisionExceeded    RejectionReason = "precision_exceeded"
	ReasonUnknownSymbol        RejectionReason = "unknown_symbol"
	ReasonInvalidField         RejectionReason = "invalid_field"
	ReasonUnknownAccount       RejectionReason = "unknown_account"
)

// Rejection 订单校验拒绝，可原样返回给下单方
type Rejection struct {
	Reason  RejectionReason
	Fields  []string
	Message string
}

// Reject 创建拒绝
func Reject(reason RejectionReason, message string, fields ...string) *Rejection {
	return &Rejection{Reason: reason, Fields: fields, Message: message}
}

func (r *Rejection) Error() string {
	if len(r.Fields) == 0 {
		return fmt.Sprintf("order rejected: %s: %s", r.Reason, r.Message)
	}
	return fmt.Sprintf("order rejected: %s(%s): %s", r.Reason, strings.Join(r.Fields, ","), r.Message)
}

// ProviderFault 交易对规则服务不可用或出错
type ProviderFault struct {
	Symbol string
	Err    error
}

func (f *ProviderFault) Error() string {
	return fmt.Sprintf("symbol rule provider failed for %q: %v", f.Symbol, f.Err)
}

func (f *ProviderFault) Unwrap() error { return f.Err }

// PublishFault 订单已通过准入但事件发布失败
type PublishFault struct {
	EventType EventType
	OrderID   string
	Err       error
}

func (f *PublishFault) Error() string {
	return fmt.Sprintf("failed to publish %s event for order %s: %v", f.EventType, f.OrderID, f.Err)
}

func (f *PublishFault) Unwrap() error { return f.Err }

// AsRejection 判断 err 是否为拒绝
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
