// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，同时满足 execution.Recorder 与 retry.AttemptRecorder
type Collector struct {
	// 代码执行指标
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec

	// 防护指标
	guardViolations *prometheus.CounterVec
	redactedLines   prometheus.Counter
	truncations     prometheus.Counter

	// 上游重试指标
	retryAttempts *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 在 reg 上注册全部指标；reg 为 nil 时使用 prometheus.DefaultRegisterer
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.executionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sandbox",
			Name:      "executions_total",
			Help:      "Total number of executed or saved code blocks",
		},
		[]string{"language", "status"},
	)

	c.executionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sandbox",
			Name:      "execution_duration_seconds",
			Help:      "Code block execution duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"language"},
	)

	c.guardViolations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sandbox",
			Name:      "guard_violations_total",
			Help:      "Total number of guard rejections",
		},
		[]string{"stage"}, // stage: input, output
	)

	c.redactedLines = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sandbox",
			Name:      "redacted_lines_total",
			Help:      "Total number of output lines dropped for containing secrets",
		},
	)

	c.truncations = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sandbox",
			Name:      "truncations_total",
			Help:      "Total number of truncated execution results",
		},
	)

	c.retryAttempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "retry_attempts_total",
			Help:      "Total number of failed reply generation attempts by error kind",
		},
		[]string{"kind"},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🧪 执行指标记录
// =============================================================================

// RecordExecution 记录一个代码块的处理结果
func (c *Collector) RecordExecution(language, status string, duration time.Duration) {
	c.executionsTotal.WithLabelValues(language, status).Inc()
	c.executionDuration.WithLabelValues(language).Observe(duration.Seconds())
}

// RecordGuardViolation 记录输入或输出防护拒绝
func (c *Collector) RecordGuardViolation(stage string) {
	c.guardViolations.WithLabelValues(stage).Inc()
}

// RecordRedactedLines 记录被丢弃的输出行数
func (c *Collector) RecordRedactedLines(n int) {
	if n <= 0 {
		return
	}
	c.redactedLines.Add(float64(n))
}

// RecordTruncation 记录一次输出截断
func (c *Collector) RecordTruncation() {
	c.truncations.Inc()
}

// =============================================================================
// 🔁 重试指标记录
// =============================================================================

// RecordRetryAttempt 记录一次失败的回复生成尝试
func (c *Collector) RecordRetryAttempt(kind string) {
	c.retryAttempts.WithLabelValues(kind).Inc()
}

// Handler 返回暴露 gatherer 指标的 HTTP handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
