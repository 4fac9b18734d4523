package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchangeintake/pkg/config"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
	"github.com/wyfcoding/exchangeintake/pkg/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordedRequest struct {
	method, path string
	status       int
}

type fakeCollector struct {
	requests []recordedRequest
}

func (f *fakeCollector) RecordHTTPRequest(method, path string, statusCode int, _ float64) {
	f.requests = append(f.requests, recordedRequest{method, path, statusCode})
}
func (f *fakeCollector) RecordAdmission(string, string) {}
func (f *fakeCollector) RecordRuleLookup(string, float64) {}
func (f *fakeCollector) RecordPublish(string, bool) {}

func TestGinLoggingMiddlewarePropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(GinLoggingMiddleware())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = logger.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	// 未携带时自动生成
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestGinRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(GinRecoveryMiddleware())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGinMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	collector := &fakeCollector{}
	r := gin.New()
	r.Use(GinMetricsMiddleware(collector))
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, collector.requests, 2)
	assert.Equal(t, recordedRequest{"GET", "/orders/:id", http.StatusNotFound}, collector.requests[0])
	assert.Equal(t, "unmatched", collector.requests[1].path)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Backend: "local", QPS: 1, Burst: 1}
	r := gin.New()
	r.Use(RateLimitMiddleware(ratelimit.NewLocalRateLimiter(), cfg))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false, QPS: 1, Burst: 1}
	r := gin.New()
	r.Use(RateLimitMiddleware(ratelimit.NewLocalRateLimiter(), cfg))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestGRPCRecoveryInterceptorReturnsInternal(t *testing.T) {
	interceptor := GRPCRecoveryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/intake.Test/Boom"}

	resp, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
}
