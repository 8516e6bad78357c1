// Command sagarun-demo runs a small saga against the sagarun runtime: a
// root procedure that takes "ping" actions off the standard channel,
// and forks one child per ping to simulate work. It exists to exercise the
// package's ambient
// stack (config, logging, metrics) end to end, the way
// ChuLiYu-raft-recovery's cmd/demo ties its controller to a YAML config
// and a Cobra command.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ygrebnov/sagarun"
	"github.com/ygrebnov/sagarun/metrics"
)

type demoConfig struct {
	Pings       int           `mapstructure:"pings"`
	Interval    time.Duration `mapstructure:"interval"`
	MaxConcur   int           `mapstructure:"max_concurrency"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

func defaultDemoConfig() demoConfig {
	return demoConfig{
		Pings:       10,
		Interval:    200 * time.Millisecond,
		MaxConcur:   4,
		MetricsAddr: ":9090",
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:     "sagarun-demo",
		Short:   "Run a demo saga against the sagarun runtime",
		Version: "0.1.0",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runDemo(cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file (optional)")
	cmd.Flags().Int("pings", defaultDemoConfig().Pings, "number of simulated ping actions to dispatch")
	cmd.Flags().Duration("interval", defaultDemoConfig().Interval, "delay between dispatched pings")
	cmd.Flags().Int("max-concurrency", defaultDemoConfig().MaxConcur, "maximum forked children running at once")
	cmd.Flags().String("metrics-addr", defaultDemoConfig().MetricsAddr, "address to serve /metrics on")

	_ = viper.BindPFlag("pings", cmd.Flags().Lookup("pings"))
	_ = viper.BindPFlag("interval", cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("max_concurrency", cmd.Flags().Lookup("max-concurrency"))
	_ = viper.BindPFlag("metrics_addr", cmd.Flags().Lookup("metrics-addr"))

	return cmd
}

func loadConfig(path string) (demoConfig, error) {
	v := viper.GetViper()
	v.SetEnvPrefix("SAGARUN_DEMO")
	v.AutomaticEnv()

	cfg := defaultDemoConfig()
	v.SetDefault("pings", cfg.Pings)
	v.SetDefault("interval", cfg.Interval)
	v.SetDefault("max_concurrency", cfg.MaxConcur)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// pingAction is the only action type this demo's saga reacts to; it
// satisfies sagarun.Typed so Take("ping") can match it by name.
type pingAction struct{ seq int }

func (pingAction) ActionType() string { return "ping" }

// demoStore is a minimal sagarun.Store: this demo has no external state to
// reflect through Select, it only needs Middleware's Dispatch path to feed
// pingAction values onto the saga's standard channel.
type demoStore struct{}

func (demoStore) Dispatch(action any) {}
func (demoStore) GetState() any       { return nil }

func runDemo(cfg demoConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	registry := prometheus.NewRegistry()
	provider := metrics.NewPrometheusProvider(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mw := sagarun.NewMiddleware(demoStore{},
		sagarun.WithMetrics(provider),
		sagarun.WithLogger(sagarun.NewZapLogger(logger)),
		sagarun.WithMaxConcurrency(cfg.MaxConcur),
		sagarun.WithOnError(func(err error) {
			logger.Error("demo saga aborted", zap.Error(err))
		}),
	)
	root := mw.Run(ctx, demoSaga(cfg, logger))

	go dispatchPings(ctx, mw, cfg)

	logger.Info("sagarun-demo running", zap.String("task_id", root.ID.String()), zap.String("metrics_addr", cfg.MetricsAddr))

	<-ctx.Done()
	root.Cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("sagarun-demo stopped")
	return nil
}

// dispatchPings feeds the saga's standard channel from outside the
// cooperative driver, the way an HTTP handler or message consumer would
// dispatch actions into a running saga tree.
func dispatchPings(ctx context.Context, mw *sagarun.Middleware, cfg demoConfig) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for i := 0; i < cfg.Pings; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mw.SetContext(map[string]any{"last_ping": i})
			mw.Dispatch(pingAction{seq: i})
		}
	}
}

// demoSaga takes every ping action off the standard channel and forks a
// short unit of simulated work per ping, until it has handled cfg.Pings
// pings, the channel ends, or it observes Cancelled.
func demoSaga(cfg demoConfig, logger *zap.Logger) sagarun.ProcFunc {
	return func(yield sagarun.Yield) (any, error) {
		handled := 0
		for handled < cfg.Pings {
			v, err := yield(sagarun.Take("ping"))
			if err != nil {
				return handled, err
			}
			if v == sagarun.End {
				break
			}
			cancelled, _ := yield(sagarun.Cancelled())
			if c, ok := cancelled.(bool); ok && c {
				return handled, nil
			}

			action := v.(pingAction)
			_, err = yield(sagarun.Fork(processPing(action, logger)))
			if err != nil {
				return handled, err
			}
			handled++
		}
		return handled, nil
	}
}

func processPing(action pingAction, logger *zap.Logger) sagarun.ProcFunc {
	return func(yield sagarun.Yield) (any, error) {
		logger.Debug("processing ping", zap.Int("seq", action.seq))
		_, err := yield(sagarun.Call(func() (any, error) {
			time.Sleep(10 * time.Millisecond)
			return action.seq, nil
		}))
		return action.seq, err
	}
}
