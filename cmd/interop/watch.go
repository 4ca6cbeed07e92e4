package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jward/interop"
)

var (
	flagMetricsAddr string
	flagDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the project session warm and rebuild it when the config changes",
	Long: `Builds the selected project's session, then invalidates every session
whenever the configuration file changes. With --metrics-addr, task and
session metrics are served at /metrics until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 0, "delay before invalidating after a change (default: defaults.watch_debounce)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := openSession(interop.WithRegisterer(reg))
	if err != nil {
		return err
	}
	defer s.Close()

	debounce := flagDebounce
	if debounce == 0 {
		debounce = s.cfg.Defaults.WatchDebounce
	}
	stopWatch, err := s.bridge.WatchConfig(ctx, []string{s.configPath}, debounce)
	if err != nil {
		return fmt.Errorf("watching %s: %w", s.configPath, err)
	}
	defer stopWatch()

	// Build the session up front so the first query is fast.
	if _, err := s.project.WithContext(ctx).FindPackage("java.lang"); err != nil {
		s.log.Warn("initial session build failed", "project", s.project.Name(), "error", err)
	}
	fmt.Fprintf(os.Stderr, "Watching %s for project %s\n", s.configPath, s.project.Name())

	if flagMetricsAddr == "" {
		<-ctx.Done()
		return nil
	}
	return serveMetrics(ctx, flagMetricsAddr, reg)
}

// serveMetrics serves reg at /metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
