package gateway

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "portmapper"

// 操作结果标签
const (
	resultOK           = "ok"
	resultError        = "error"
	resultDisconnected = "disconnected"
)

// Metrics 网关客户端指标
//
// nil *Metrics 可安全使用，所有记录操作均为空操作。
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	mappings   prometheus.Gauge
}

// NewMetrics 创建并注册指标
//
// 重复注册时复用已注册的收集器，便于同一进程内创建多个客户端。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "operations_total",
			Help:      "Gateway operations by operation and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "operation_duration_seconds",
			Help:      "Latency of gateway device round trips.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		mappings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "mappings",
			Help:      "Number of mappings seen by the last enumeration.",
		}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.operations, err = register(reg, m.operations); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.mappings, err = register(reg, m.mappings); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) rejected(op string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, resultDisconnected).Inc()
}

func (m *Metrics) setMappings(n int) {
	if m == nil {
		return
	}
	m.mappings.Set(float64(n))
}
