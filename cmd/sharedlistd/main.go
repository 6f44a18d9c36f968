// Command sharedlistd serves the shared list over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sharedlist/internal/adapters/listapi"
	"sharedlist/internal/config"
	"sharedlist/internal/core"
)

var exitFunc = os.Exit

func main() {
	if err := mainInner(os.Args[1:]); err != nil {
		slog.Error(err.Error())
		exitFunc(1)
	}
}

func mainInner(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("sharedlistd", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "the address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, ln, cfg, logger)
}

// serve runs the server on ln until ctx is cancelled, then drains in-flight
// requests and closes the store.
func serve(ctx context.Context, ln net.Listener, cfg config.Config, logger *slog.Logger) error {
	store, err := core.OpenPersistentStore(ctx, cfg.Storage(), core.NewDefaultRulesEngine(cfg.MaxItems))
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("open %s store: %w", cfg.StorageDriver, err)
	}
	defer func() {
		if err := core.CloseStore(store); err != nil {
			logger.Error("close store", "err", err)
		}
	}()

	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithAuditRecorder(core.LoggerAuditRecorder{Logger: logger}),
	}
	routerOpts := listapi.RouterOptions{Logger: logger, AllowedOrigins: cfg.AllowedOrigins}
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, core.WithMetricsRecorder(core.MultiMetricsRecorder{prom, core.NewExpvarMetricsRecorder("")}))
		routerOpts.Gatherer = reg
	}
	if cfg.LogLevel <= slog.LevelDebug {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(os.Stderr, 0)))
	}
	svc := core.NewService(store, opts...)

	srv := &http.Server{
		Handler:           listapi.NewRouter(listapi.NewHandler(svc, logger), routerOpts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String(), "storage", string(cfg.StorageDriver))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
