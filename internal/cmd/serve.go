package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Iron-Ham/lockable/internal/event"
	"github.com/Iron-Ham/lockable/internal/logging"
	"github.com/Iron-Ham/lockable/internal/metrics"
	"github.com/Iron-Ham/lockable/internal/registry"
	"github.com/Iron-Ham/lockable/internal/reload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch resource definitions and claim state, exporting metrics",
	Long: `Run in the foreground until interrupted. The resource definitions file
and the claim state file are watched and reloaded on change, registry events
are logged, and prometheus metrics (free resources per label, queue depth,
operation outcomes) are served on metrics.addr at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bus := event.NewBus()

	s, err := openSession(
		registry.WithBus(bus),
		registry.WithMetrics(metrics.NewRecorder(promReg)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	bus.SubscribeAll(logEvent(s.logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Also creates the state directory the watcher below needs.
	if err := s.view(ctx); err != nil {
		return err
	}

	debounce := s.cfg.Resources.ReloadDebounce()
	stateWatcher, err := reload.New(s.store.Path(), debounce, func() error {
		return s.view(ctx)
	}, reload.WithLogger(s.logger.With("watch", "state")))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return stateWatcher.Run(ctx) })

	if s.cfg.Resources.Watch {
		defsWatcher, err := reload.New(s.cfg.Resources.File, debounce,
			reload.Definitions(s.reg, s.cfg.Resources.File, s.logger),
			reload.WithLogger(s.logger.With("watch", "definitions")))
		if err != nil {
			return err
		}
		g.Go(func() error { return defsWatcher.Run(ctx) })
	}

	if s.cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{Registry: promReg}))
		srv := &http.Server{
			Addr:              s.cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			s.logger.Info("serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	s.logger.Info("lockable serving",
		"resources", s.reg.Len(),
		"definitions", s.cfg.Resources.File,
		"state", s.store.Path(),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d resources, press Ctrl-C to stop\n", s.reg.Len())

	err = g.Wait()
	s.logger.Info("lockable stopped")
	return err
}

// logEvent returns a bus handler that logs registry events.
func logEvent(logger *logging.Logger) event.Handler {
	return func(e event.Event) {
		switch ev := e.(type) {
		case event.ClaimEvent:
			logger.WithResource(ev.Resource).Info(ev.EventType(), "actor", ev.Actor, "on_behalf", ev.OnBehalf)
		case event.FreedEvent:
			logger.WithResource(ev.Resource).Info(ev.EventType(), "labels", ev.Labels)
		case event.QueueEvent:
			logger.WithResource(ev.Resource).WithClaimant(ev.Claimant).Info(ev.EventType(), "project", ev.Project, "ticket", ev.Ticket)
		case event.ReloadedEvent:
			logger.Info(ev.EventType(), "added", ev.Added, "removed", ev.Removed, "updated", ev.Updated)
		default:
			logger.Debug(e.EventType())
		}
	}
}
