package sagarun

import "github.com/ygrebnov/sagarun/metrics"

// Monitor observes the interpreter's effect lifecycle. Implementations
// must be safe for concurrent use, since a middleware-wrapped Store may
// dispatch from any goroutine.
type Monitor interface {
	EffectTriggered(kind EffectKind, taskID string)
	EffectResolved(kind EffectKind, taskID string)
	EffectRejected(kind EffectKind, taskID string)
	EffectCancelled(kind EffectKind, taskID string)
	ActionDispatched(action any)
}

// NoopMonitor discards every hook; it is the default when no Monitor is
// configured.
type NoopMonitor struct{}

func (NoopMonitor) EffectTriggered(EffectKind, string) {}
func (NoopMonitor) EffectResolved(EffectKind, string)  {}
func (NoopMonitor) EffectRejected(EffectKind, string)  {}
func (NoopMonitor) EffectCancelled(EffectKind, string) {}
func (NoopMonitor) ActionDispatched(any)               {}

// MetricsMonitor adapts a metrics.Provider into a Monitor: every hook
// becomes a counter increment, so any Provider — NoopProvider,
// BasicProvider, or metrics.PrometheusProvider — can back a running saga
// without this package depending on Prometheus or any other backend
// directly.
type MetricsMonitor struct {
	triggered map[EffectKind]metrics.Counter
	resolved  metrics.Counter
	rejected  metrics.Counter
	cancelled metrics.Counter
	dispatch  metrics.Counter
}

// NewMetricsMonitor builds a MetricsMonitor backed by provider.
func NewMetricsMonitor(provider metrics.Provider) *MetricsMonitor {
	m := &MetricsMonitor{
		triggered: make(map[EffectKind]metrics.Counter),
		resolved:  provider.Counter("sagarun_effects_resolved_total"),
		rejected:  provider.Counter("sagarun_effects_rejected_total"),
		cancelled: provider.Counter("sagarun_effects_cancelled_total"),
		dispatch:  provider.Counter("sagarun_actions_dispatched_total"),
	}
	for k := KindTake; k <= KindSetContext; k++ {
		m.triggered[k] = provider.Counter("sagarun_effects_triggered_total",
			metrics.WithAttributes(map[string]string{"kind": k.String()}))
	}
	return m
}

func (m *MetricsMonitor) EffectTriggered(kind EffectKind, _ string) {
	if c, ok := m.triggered[kind]; ok {
		c.Add(1)
	}
}

func (m *MetricsMonitor) EffectResolved(EffectKind, string)  { m.resolved.Add(1) }
func (m *MetricsMonitor) EffectRejected(EffectKind, string)  { m.rejected.Add(1) }
func (m *MetricsMonitor) EffectCancelled(EffectKind, string) { m.cancelled.Add(1) }
func (m *MetricsMonitor) ActionDispatched(any)               { m.dispatch.Add(1) }

func (k EffectKind) String() string {
	switch k {
	case KindTake:
		return "take"
	case KindPut:
		return "put"
	case KindCall:
		return "call"
	case KindCPS:
		return "cps"
	case KindFork:
		return "fork"
	case KindSpawn:
		return "spawn"
	case KindJoin:
		return "join"
	case KindCancel:
		return "cancel"
	case KindSelect:
		return "select"
	case KindAll:
		return "all"
	case KindRace:
		return "race"
	case KindActionChannel:
		return "action_channel"
	case KindFlush:
		return "flush"
	case KindCancelled:
		return "cancelled"
	case KindGetContext:
		return "get_context"
	case KindSetContext:
		return "set_context"
	default:
		return "unknown"
	}
}
