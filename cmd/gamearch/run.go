package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/milk9111/gamearch/config"
	"github.com/milk9111/gamearch/metrics"
	"github.com/milk9111/gamearch/relay"
	"github.com/milk9111/gamearch/store"
	"github.com/milk9111/gamearch/tick"
)

type runOptions struct {
	Ticks       int
	Seed        uint64
	StorePath   string
	ScriptPath  string
	ConfigPath  string
	Watch       bool
	Realtime    bool
	Peer        string
	MetricsAddr string
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the headless bullet simulation",
		Long: `Run the headless simulation. Bullets are fired through the command relay,
expire on their own and leave physics debris and scripted sparks behind.

Example:
  gamearch run --ticks 600 --seed 7 --store save.yaml`,
		PreRunE: bindFlags(v),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfigAndLogger(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			opts := runOptions{
				Ticks:       v.GetInt("ticks"),
				Seed:        v.GetUint64("seed"),
				StorePath:   v.GetString("store"),
				ScriptPath:  v.GetString("script"),
				ConfigPath:  v.GetString("config"),
				Watch:       v.GetBool("watch"),
				Realtime:    v.GetBool("realtime"),
				Peer:        v.GetString("peer"),
				MetricsAddr: v.GetString("metrics-addr"),
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runSim(ctx, cmd.OutOrStdout(), cfg, opts, logger)
		},
	}
	f := cmd.Flags()
	f.Int("ticks", 600, "number of fixed steps to run (0 runs until interrupted, realtime only)")
	f.Uint64("seed", 1, "random seed")
	f.String("store", "", "YAML save file for run totals (not persisted when empty)")
	f.String("script", "", "tengo script for spark entities (built-in when empty)")
	f.Bool("watch", false, "reload presets when the config file changes")
	f.Bool("realtime", false, "pace steps with the wall clock")
	f.String("peer", "", "forward fire commands to this TCP address")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func runSim(ctx context.Context, out io.Writer, cfg config.Config, opts runOptions, logger *zap.Logger) (err error) {
	if opts.Ticks <= 0 && !opts.Realtime {
		return errors.New("run: --ticks must be positive unless --realtime is set")
	}

	st, err := store.Open(opts.StorePath)
	if err != nil {
		return err
	}

	var transport relay.Transport
	if opts.Peer != "" {
		conn, err := net.Dial("tcp", opts.Peer)
		if err != nil {
			return fmt.Errorf("run: dial peer: %w", err)
		}
		transport = relay.NewStreamTransport(conn)
	}

	s, err := buildSim(cfg, opts, logger, st, transport)
	if err != nil {
		if transport != nil {
			err = multierr.Append(err, transport.Close())
		}
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.close(), s.relay.Close())
	}()

	if opts.MetricsAddr != "" {
		shutdown, err := serveMetrics(s, opts.MetricsAddr, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	var watcher *config.Watcher
	if opts.Watch && opts.ConfigPath != "" {
		if watcher, err = config.NewWatcher(filepath.Dir(opts.ConfigPath)); err != nil {
			return fmt.Errorf("run: watch: %w", err)
		}
		defer watcher.Close()
	}

	reload := func() {
		if watcher == nil {
			return
		}
		for {
			select {
			case name := <-watcher.Events:
				if filepath.Base(name) != filepath.Base(opts.ConfigPath) {
					continue
				}
				next, err := config.Load(opts.ConfigPath)
				if err != nil {
					logger.Warn("config reload failed", zap.Error(err))
					continue
				}
				if err := s.applyPresets(next); err != nil {
					logger.Warn("presets not applied", zap.Error(err))
					continue
				}
				logger.Info("presets reloaded", zap.String("path", opts.ConfigPath))
			case err := <-watcher.Errors:
				logger.Warn("config watch error", zap.Error(err))
			default:
				return
			}
		}
	}

	logger.Info("simulation started",
		zap.Int("ticks", opts.Ticks),
		zap.Uint64("seed", opts.Seed),
		zap.Bool("realtime", opts.Realtime))

	if opts.Realtime {
		runRealtime(ctx, s.dispatcher, opts.Ticks, reload)
	} else {
		for i := 0; i < opts.Ticks && ctx.Err() == nil; i++ {
			reload()
			s.dispatcher.Step(s.dispatcher.StepSize().Seconds())
		}
	}

	if err := s.persist(); err != nil {
		return err
	}
	printStats(out, s)
	return nil
}

// buildSim wires the container and the world. The caller keeps ownership
// of transport until buildSim succeeds.
func buildSim(cfg config.Config, opts runOptions, logger *zap.Logger, st *store.Store, transport relay.Transport) (*sim, error) {
	program, err := loadSparkProgram(opts.ScriptPath)
	if err != nil {
		return nil, err
	}
	c, err := newContainer(logger, opts.Seed, st, transport)
	if err != nil {
		return nil, err
	}
	return newSim(c, cfg, program)
}

func runRealtime(ctx context.Context, d *tick.Dispatcher, ticks int, between func()) {
	ticker := time.NewTicker(d.StepSize())
	defer ticker.Stop()
	last := time.Now()
	for ticks <= 0 || d.Frame() < uint64(ticks) {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			between()
			d.Advance(now.Sub(last))
			last = now
		}
	}
}

func serveMetrics(s *sim, addr string, logger *zap.Logger) (func(), error) {
	collector := metrics.NewCollector(s.registry)
	reg := prometheus.NewRegistry()
	if err := reg.Register(collector); err != nil {
		return nil, err
	}
	s.dispatcher.Add(tick.SystemFunc(func(float64) { collector.Refresh() }), 100)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func printStats(out io.Writer, s *sim) {
	fmt.Fprintf(out, "frames=%d fired=%d expired=%d\n", s.dispatcher.Frame(), s.fired, s.expired)
	for _, st := range s.registry.Stats() {
		fmt.Fprintf(out, "%-8s free=%-4d spawned=%-4d created=%-4d discarded=%d\n",
			st.Name, st.Free, st.Spawned, st.Created, st.Discarded)
	}
}
