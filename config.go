package sagarun

import "github.com/ygrebnov/sagarun/metrics"

// runConfig centralizes the options a Run or Middleware call builds from.
type runConfig struct {
	monitor     Monitor
	middle      []EffectMiddleware
	maxConcur   int
	logger      Logger
	onError     func(error)
}

func defaultRunConfig() runConfig {
	return runConfig{
		monitor: NoopMonitor{},
		logger:  NewNoopLogger(),
	}
}

// Option configures a Run or Middleware call.
type Option func(*runConfig)

// WithMonitor installs a Monitor observing every effect this saga performs.
func WithMonitor(m Monitor) Option {
	return func(c *runConfig) { c.monitor = m }
}

// WithMetrics installs a Monitor backed by a metrics.Provider
// (metrics.NoopProvider, metrics.BasicProvider, or
// metrics.PrometheusProvider all satisfy it).
func WithMetrics(p metrics.Provider) Option {
	return func(c *runConfig) { c.monitor = NewMetricsMonitor(p) }
}

// WithEffectMiddlewares installs the effect middleware chain, applied in
// the given order before every effect reaches the interpreter.
func WithEffectMiddlewares(ms ...EffectMiddleware) Option {
	return func(c *runConfig) { c.middle = append(c.middle, ms...) }
}

// WithMaxConcurrency bounds how many forked/spawned children may be
// running at once across the whole saga tree. Zero or negative means
// unbounded (the default).
func WithMaxConcurrency(n int) Option {
	return func(c *runConfig) { c.maxConcur = n }
}

// WithLogger installs a Logger used for the interpreter's own diagnostic
// logging (uncaught aborts of a root saga).
func WithLogger(l Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// WithOnError installs a sink invoked once with the *AbortError whenever a
// root saga's main task aborts.
func WithOnError(f func(error)) Option {
	return func(c *runConfig) { c.onError = f }
}

func buildRunConfig(opts []Option) runConfig {
	c := defaultRunConfig()
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}
