package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangeintake/internal/order/application"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
	"github.com/wyfcoding/exchangeintake/pkg/response"
)

// OrderHandler HTTP 处理器
// 负责处理与订单相关的 HTTP 请求
type OrderHandler struct {
	svc *application.OrderService
}

// NewOrderHandler 创建 HTTP 处理器实例
func NewOrderHandler(svc *application.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/orders")
	{
		api.POST("", h.PlaceOrder)        // 下单
		api.GET("", h.ListOrders)         // 订单列表
		api.GET("/:id", h.GetOrder)       // 订单详情
		api.DELETE("/:id", h.CancelOrder) // 撤单
		api.DELETE("", h.CancelOrders)    // 按交易对批量撤单
	}
}

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	AccountID     string              `json:"account_id" binding:"required,uuid4"`
	Symbol        string              `json:"symbol" binding:"required,max=20"`
	Side          string              `json:"side" binding:"required,oneof=buy sell"`
	Type          string              `json:"type" binding:"required,oneof=limit market"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	Price         decimal.NullDecimal `json:"price"`
	QuoteQuantity decimal.NullDecimal `json:"quote_quantity"`
}

// PlaceOrder 下单
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	order, err := h.svc.PlaceOrder(c.Request.Context(), application.PlaceOrderCommand{
		AccountID:     req.AccountID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      req.Quantity,
		Price:         req.Price,
		QuoteQuantity: req.QuoteQuantity,
	})
	if err != nil {
		h.writeError(c, "Failed to place order", err)
		return
	}

	response.SuccessWithStatus(c, http.StatusCreated, order)
}

// ListOrdersRequest 订单列表查询参数
type ListOrdersRequest struct {
	AccountID string `form:"account_id"`
	Symbol    string `form:"symbol" binding:"max=20"`
	Status    string `form:"status" binding:"omitempty,oneof=NEW PARTIALLY_FILLED FILLED CANCEL_REQUESTED CANCELLED"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// ListOrders 订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	orders, total, err := h.svc.ListOrders(c.Request.Context(), application.ListOrdersQuery{
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Status:    req.Status,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		h.writeError(c, "Failed to list orders", err)
		return
	}

	response.Success(c, gin.H{"items": orders, "total": total})
}

// GetOrder 获取订单
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to get order", err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 撤单，account_id 通过查询参数传入
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	accountID := c.Query("account_id")
	if accountID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "account_id is required", "")
		return
	}

	order, err := h.svc.CancelOrder(c.Request.Context(), application.CancelOrderCommand{
		OrderID:   c.Param("id"),
		AccountID: accountID,
	})
	if err != nil {
		h.writeError(c, "Failed to cancel order", err)
		return
	}
	response.Success(c, order)
}

// CancelOrdersRequest 批量撤单参数
type CancelOrdersRequest struct {
	AccountID string `form:"account_id" binding:"required"`
	Symbol    string `form:"symbol" binding:"required,max=20"`
}

// CancelOrders 撤销账户在某交易对上的全部可撤订单
func (h *OrderHandler) CancelOrders(c *gin.Context) {
	var req CancelOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	orders, err := h.svc.CancelOrders(c.Request.Context(), req.AccountID, req.Symbol)
	if err != nil {
		h.writeError(c, "Failed to cancel orders", err)
		return
	}
	response.Success(c, gin.H{"items": orders, "count": len(orders)})
}

// writeError 按错误类别映射 HTTP 状态码
func (h *OrderHandler) writeError(c *gin.Context, msg string, err error) {
	ctx := c.Request.Context()

	var (
		rej           *domain.Rejection
		providerFault *domain.ProviderFault
		publishFault  *domain.PublishFault
		appErr        *application.Error
	)
	switch {
	case errors.As(err, &rej):
		response.ErrorWithData(c, http.StatusUnprocessableEntity, rej.Message, gin.H{
			"code":   rej.Reason,
			"fields": rej.Fields,
		})
	case errors.As(err, &providerFault):
		logger.Error(ctx, msg, "error", err)
		response.ErrorWithStatus(c, http.StatusServiceUnavailable, "symbol rules unavailable", "")
	case errors.As(err, &publishFault):
		logger.Error(ctx, msg, "order_id", publishFault.OrderID, "error", err)
		response.ErrorWithData(c, http.StatusInternalServerError, "order event not published", gin.H{
			"order_id":   publishFault.OrderID,
			"event_type": publishFault.EventType,
		})
	case errors.Is(err, domain.ErrOrderNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, application.ErrUnauthorized):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	case errors.As(err, &appErr):
		response.ErrorWithStatus(c, http.StatusConflict, appErr.Message, appErr.Code)
	default:
		logger.Error(ctx, msg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "internal server error", "")
	}
}
