// Package monitoring 提供预测服务的运行指标
package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
	MetricTypeSummary MetricType = "summary"
)

// Metric 指标的当前值
type Metric struct {
	Name   string            `json:"name"`
	Type   MetricType        `json:"type"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
	Help   string            `json:"help,omitempty"`
}

// LatencySummary 预测耗时摘要（毫秒）
type LatencySummary struct {
	Count   int64   `json:"count"`
	Sum     float64 `json:"sum_ms"`
	Min     float64 `json:"min_ms"`
	Max     float64 `json:"max_ms"`
	Average float64 `json:"avg_ms"`
}

// Snapshot 某一时刻的全部指标
type Snapshot struct {
	Uptime      string            `json:"uptime"`
	Predictions map[string]int64  `json:"predictions"`
	Errors      map[string]int64  `json:"errors"`
	CacheHits   int64             `json:"cache_hits"`
	Latency     LatencySummary    `json:"latency"`
	System      map[string]uint64 `json:"system"`
}

// MetricsCollector 指标收集器，所有方法并发安全
type MetricsCollector struct {
	metricsLock sync.RWMutex

	predictions map[string]int64
	errors      map[string]int64
	cacheHits   int64
	latency     LatencySummary

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		predictions: make(map[string]int64),
		errors:      make(map[string]int64),
		startTime:   time.Now(),
	}
}

// RecordPrediction 记录一次成功预测
func (mc *MetricsCollector) RecordPrediction(label string, cached bool, elapsed time.Duration) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	mc.predictions[label]++
	if cached {
		mc.cacheHits++
	}

	ms := float64(elapsed.Microseconds()) / 1000
	if mc.latency.Count == 0 || ms < mc.latency.Min {
		mc.latency.Min = ms
	}
	if ms > mc.latency.Max {
		mc.latency.Max = ms
	}
	mc.latency.Count++
	mc.latency.Sum += ms
	mc.latency.Average = mc.latency.Sum / float64(mc.latency.Count)
}

// RecordError 记录一次失败，kind为错误类别
func (mc *MetricsCollector) RecordError(kind string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	mc.errors[kind]++
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// Snapshot 返回指标副本
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s := Snapshot{
		Uptime:      mc.GetUptime().Round(time.Second).String(),
		Predictions: make(map[string]int64, len(mc.predictions)),
		Errors:      make(map[string]int64, len(mc.errors)),
		CacheHits:   mc.cacheHits,
		Latency:     mc.latency,
		System: map[string]uint64{
			"goroutines": uint64(runtime.NumGoroutine()),
			"heap_alloc": m.HeapAlloc,
			"heap_sys":   m.HeapSys,
			"gc_count":   uint64(m.NumGC),
		},
	}
	for k, v := range mc.predictions {
		s.Predictions[k] = v
	}
	for k, v := range mc.errors {
		s.Errors[k] = v
	}
	return s
}

// Metrics 以扁平列表形式返回指标，按名称和标签排序
func (mc *MetricsCollector) Metrics() []Metric {
	s := mc.Snapshot()

	var out []Metric
	for _, label := range sortedKeys(s.Predictions) {
		out = append(out, Metric{
			Name:   "studentpass_predictions_total",
			Type:   MetricTypeCounter,
			Value:  float64(s.Predictions[label]),
			Labels: map[string]string{"label": label},
			Help:   "Predictions served by label",
		})
	}
	for _, kind := range sortedKeys(s.Errors) {
		out = append(out, Metric{
			Name:   "studentpass_prediction_errors_total",
			Type:   MetricTypeCounter,
			Value:  float64(s.Errors[kind]),
			Labels: map[string]string{"kind": kind},
			Help:   "Failed submissions by error kind",
		})
	}
	out = append(out,
		Metric{Name: "studentpass_cache_hits_total", Type: MetricTypeCounter, Value: float64(s.CacheHits), Help: "Predictions answered from the memo"},
		Metric{Name: "studentpass_prediction_latency_ms_sum", Type: MetricTypeSummary, Value: s.Latency.Sum, Help: "Total prediction latency in milliseconds"},
		Metric{Name: "studentpass_prediction_latency_ms_count", Type: MetricTypeSummary, Value: float64(s.Latency.Count), Help: "Number of timed predictions"},
		Metric{Name: "system_goroutines", Type: MetricTypeGauge, Value: float64(s.System["goroutines"]), Help: "Number of goroutines"},
		Metric{Name: "memory_heap_alloc", Type: MetricTypeGauge, Value: float64(s.System["heap_alloc"]), Help: "Memory heap allocated in bytes"},
	)
	return out
}

// ExportPrometheus 导出Prometheus文本格式
func (mc *MetricsCollector) ExportPrometheus() string {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, metric := range mc.Metrics() {
		if !seen[metric.Name] {
			seen[metric.Name] = true
			fmt.Fprintf(&b, "# HELP %s %s\n", metric.Name, metric.Help)
			fmt.Fprintf(&b, "# TYPE %s %s\n", metric.Name, promType(metric.Type))
		}

		labelsStr := ""
		if len(metric.Labels) > 0 {
			labels := make([]string, 0, len(metric.Labels))
			for _, k := range sortedKeys(metric.Labels) {
				labels = append(labels, fmt.Sprintf(`%s=%q`, k, metric.Labels[k]))
			}
			labelsStr = "{" + strings.Join(labels, ",") + "}"
		}
		fmt.Fprintf(&b, "%s%s %g\n", metric.Name, labelsStr, metric.Value)
	}
	return b.String()
}

// summary的_sum/_count单独导出时按untyped处理
func promType(t MetricType) string {
	if t == MetricTypeSummary {
		return "untyped"
	}
	return string(t)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
