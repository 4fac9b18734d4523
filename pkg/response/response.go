// Package response 统一 HTTP 响应包装
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
)

// Response 响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success 返回 200
func Success(c *gin.Context, data interface{}) {
	SuccessWithStatus(c, http.StatusOK, data)
}

// SuccessWithStatus 以指定状态码返回成功
func SuccessWithStatus(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Code:      0,
		Message:   "success",
		Data:      data,
		RequestID: logger.RequestID(c.Request.Context()),
	})
}

// ErrorWithStatus 返回错误，code 使用 HTTP 状态码
func ErrorWithStatus(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, Response{
		Code:      status,
		Message:   message,
		Detail:    detail,
		RequestID: logger.RequestID(c.Request.Context()),
	})
}

// ErrorWithData 返回带结构化数据的错误
func ErrorWithData(c *gin.Context, status int, message string, data interface{}) {
	c.AbortWithStatusJSON(status, Response{
		Code:      status,
		Message:   message,
		Data:      data,
		RequestID: logger.RequestID(c.Request.Context()),
	})
}
