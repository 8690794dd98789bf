// Package metrics 提供 Prometheus 指标定义与采集接口
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wyfcoding/storefront/pkg/logger"
)

const namespace = "storefront"

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 订单创建数（按配送方式）
	OrdersCreated *prometheus.CounterVec
	// 订单状态变更数（按目标状态）
	OrderTransitions *prometheus.CounterVec
	// 库存预留结果（ok / insufficient / not_found）
	Reservations *prometheus.CounterVec
	// 站内通知创建数（按类型）
	NotificationsCreated *prometheus.CounterVec
	// 邮件投递结果（sent / failed / dropped）
	EmailsDispatched *prometheus.CounterVec
	// 商品缓存命中
	CatalogCache *prometheus.CounterVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "orders_created_total",
			Help:      "Orders created",
		}, []string{"delivery_option"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "order_transitions_total",
			Help:      "Order status transitions",
		}, []string{"status"}),
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "inventory_reservations_total",
			Help:      "Inventory reservation attempts by result",
		}, []string{"result"}),
		NotificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "notifications_created_total",
			Help:      "In-app notifications created",
		}, []string{"type"}),
		EmailsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "emails_dispatched_total",
			Help:      "Email dispatch outcomes",
		}, []string{"result"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "catalog_cache_total",
			Help:      "Catalog cache lookups",
		}, []string{"result"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrdersCreated,
		m.OrderTransitions,
		m.Reservations,
		m.NotificationsCreated,
		m.EmailsDispatched,
		m.CatalogCache,
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

// Collector 业务代码依赖的指标采集接口
type Collector interface {
	RecordHTTPRequest(method, route string, statusCode int, seconds float64)
	RecordOrderCreated(deliveryOption string)
	RecordTransition(status string)
	RecordReservation(result string)
	RecordNotification(notificationType string)
	RecordEmail(result string)
	RecordCacheLookup(hit bool)
}

// DefaultCollector 基于 Prometheus 的采集器
type DefaultCollector struct {
	metrics *Metrics
}

// NewDefaultCollector 创建默认指标采集器
func NewDefaultCollector(m *Metrics) *DefaultCollector {
	return &DefaultCollector{metrics: m}
}

func (c *DefaultCollector) RecordHTTPRequest(method, route string, statusCode int, seconds float64) {
	c.metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (c *DefaultCollector) RecordOrderCreated(deliveryOption string) {
	c.metrics.OrdersCreated.WithLabelValues(deliveryOption).Inc()
}

func (c *DefaultCollector) RecordTransition(status string) {
	c.metrics.OrderTransitions.WithLabelValues(status).Inc()
}

func (c *DefaultCollector) RecordReservation(result string) {
	c.metrics.Reservations.WithLabelValues(result).Inc()
}

func (c *DefaultCollector) RecordNotification(notificationType string) {
	c.metrics.NotificationsCreated.WithLabelValues(notificationType).Inc()
}

func (c *DefaultCollector) RecordEmail(result string) {
	c.metrics.EmailsDispatched.WithLabelValues(result).Inc()
}

func (c *DefaultCollector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.metrics.CatalogCache.WithLabelValues(result).Inc()
}

// Nop 不做任何记录，用于测试与未启用指标的场景
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, float64) {}
func (Nop) RecordOrderCreated(string)                     {}
func (Nop) RecordTransition(string)                       {}
func (Nop) RecordReservation(string)                      {}
func (Nop) RecordNotification(string)                     {}
func (Nop) RecordEmail(string)                            {}
func (Nop) RecordCacheLookup(bool)                        {}
