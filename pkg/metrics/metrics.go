// Package metrics 提供 Prometheus 指标定义、注册与采集接口
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 订单准入结果计数（admitted / rejected / fault）
	AdmissionsTotal *prometheus.CounterVec
	// 交易对规则查询耗时
	RuleLookupDuration *prometheus.HistogramVec
	// 生命周期事件发布计数
	EventsPublishedTotal *prometheus.CounterVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		AdmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "order_admissions_total",
			Help:      "Order admission decisions by result and rejection reason",
		}, []string{"result", "reason"}),
		RuleLookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "symbol_rule_lookup_duration_seconds",
			Help:      "Symbol trading rule lookup duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		EventsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "lifecycle_events_published_total",
			Help:      "Order lifecycle events handed to the publisher",
		}, []string{"event_type", "result"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AdmissionsTotal,
		m.RuleLookupDuration,
		m.EventsPublishedTotal,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "Prometheus HTTP server stopped", "error", err)
		}
	}()

	return srv
}

// MetricsCollector 指标收集器接口
type MetricsCollector interface {
	// 记录 HTTP 请求
	RecordHTTPRequest(method, path string, statusCode int, duration float64)
	// 记录准入结果
	RecordAdmission(result, reason string)
	// 记录规则查询
	RecordRuleLookup(result string, duration float64)
	// 记录事件发布
	RecordPublish(eventType string, success bool)
}

// DefaultMetricsCollector 默认指标收集器实现
type DefaultMetricsCollector struct {
	metrics *Metrics
}

// NewDefaultMetricsCollector 创建默认指标收集器
func NewDefaultMetricsCollector(metrics *Metrics) *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		metrics: metrics,
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (dmc *DefaultMetricsCollector) RecordHTTPRequest(method, path string, statusCode int, duration float64) {
	dmc.metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	dmc.metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordAdmission 记录准入结果
func (dmc *DefaultMetricsCollector) RecordAdmission(result, reason string) {
	dmc.metrics.AdmissionsTotal.WithLabelValues(result, reason).Inc()
}

// RecordRuleLookup 记录规则查询
func (dmc *DefaultMetricsCollector) RecordRuleLookup(result string, duration float64) {
	dmc.metrics.RuleLookupDuration.WithLabelValues(result).Observe(duration)
}

// RecordPublish 记录事件发布
func (dmc *DefaultMetricsCollector) RecordPublish(eventType string, success bool) {
	result := "ok"
	if !success {
		result = "failed"
	}
	dmc.metrics.EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
}

// NopCollector 不做任何记录，用于测试与未启用指标的场景
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, string, int, float64) {}
func (NopCollector) RecordAdmission(string, string) {}
func (NopCollector) RecordRuleLookup(string, float64) {}
func (NopCollector) RecordPublish(string, bool) {}
