package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider adapts Provider onto the Prometheus client library, the
// way ChuLiYu-raft-recovery's internal/metrics.Collector wires its own
// counters and histograms to a prometheus.Registerer: one prometheus metric
// per distinct instrument name, registered lazily the first time it is
// requested rather than all up front in a constructor, since Provider's
// contract creates instruments on demand.
type PrometheusProvider struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	updowns    map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusProvider builds a Provider that registers every instrument
// it creates with reg (typically prometheus.DefaultRegisterer).
func NewPrometheusProvider(reg prometheus.Registerer) *PrometheusProvider {
	return &PrometheusProvider{
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		updowns:    make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func labelNames(attrs map[string]string) []string {
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	return names
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	cfg := applyOptions(opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name,
			Help: helpOrDefault(cfg.Description, name),
		}, labelNames(cfg.Attributes))
		p.reg.MustRegister(vec)
		p.counters[name] = vec
	}
	return &promCounter{vec: vec, labels: cfg.Attributes}
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	cfg := applyOptions(opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.updowns[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: name,
			Help: helpOrDefault(cfg.Description, name),
		}, labelNames(cfg.Attributes))
		p.reg.MustRegister(vec)
		p.updowns[name] = vec
	}
	return &promUpDownCounter{vec: vec, labels: cfg.Attributes}
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	cfg := applyOptions(opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    helpOrDefault(cfg.Description, name),
			Buckets: prometheus.DefBuckets,
		}, labelNames(cfg.Attributes))
		p.reg.MustRegister(vec)
		p.histograms[name] = vec
	}
	return &promHistogram{vec: vec, labels: cfg.Attributes}
}

func helpOrDefault(desc, name string) string {
	if desc != "" {
		return desc
	}
	return name
}

type promCounter struct {
	vec    *prometheus.CounterVec
	labels map[string]string
}

func (c *promCounter) Add(n int64) { c.vec.With(c.labels).Add(float64(n)) }

type promUpDownCounter struct {
	vec    *prometheus.GaugeVec
	labels map[string]string
}

func (u *promUpDownCounter) Add(n int64) { u.vec.With(u.labels).Add(float64(n)) }

type promHistogram struct {
	vec    *prometheus.HistogramVec
	labels map[string]string
}

func (h *promHistogram) Record(v float64) { h.vec.With(h.labels).Observe(v) }
