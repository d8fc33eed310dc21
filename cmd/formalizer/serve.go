package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"formalizer/internal/config"
	"formalizer/internal/engine"
	"formalizer/internal/httpapi"
	"formalizer/internal/rewrite"
)

// newLogger builds the process logger; unknown levels fall back to info.
func newLogger(level, format string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "formalizer").Logger()
}

func runServe(ctx context.Context, cfg config.Config, logOut io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logOut)
	eng, err := engine.New(cfg.EngineConfig())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn().Err(err).Msg("engine close")
		}
	}()

	rc := cfg.RewriteConfig()
	rc.Logger = &logger
	rw := rewrite.New(eng, rc)

	httpapi.SetLogger(logger)
	httpapi.SetRequestLogLevel(cfg.RequestLogLevel)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)
	// Canceled only after shutdown has drained or timed out.
	base, abort := context.WithCancel(context.Background())
	defer abort()
	httpapi.SetBaseContext(base)

	servers := []*http.Server{{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(rw, cfg.ModelID),
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", httpapi.MetricsHandler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	logger.Info().
		Str("addr", cfg.Addr).
		Str("metrics_addr", cfg.MetricsAddr).
		Str("engine", rw.EngineName()).
		Str("model", cfg.ModelID).
		Msg("formalizer starting")
	listeners, err := listenAll(servers)
	if err != nil {
		return err
	}
	return serveAll(ctx, servers, listeners, cfg.ShutdownTimeout.D(), abort, logger)
}

// listenAll binds every server address, closing what was opened on failure.
func listenAll(servers []*http.Server) ([]net.Listener, error) {
	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return nil, fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
		listeners = append(listeners, ln)
	}
	return listeners, nil
}

// serveAll runs every server until ctx is done or one of them fails, then
// shuts all of them down within timeout (0 waits for in-flight requests).
// abort cancels in-flight request work once shutdown returns.
func serveAll(ctx context.Context, servers []*http.Server, listeners []net.Listener, timeout time.Duration, abort context.CancelFunc, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		srv, ln := srv, listeners[i]
		g.Go(func() error {
			logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", ln.Addr(), err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(sctx, timeout)
			defer cancel()
		}
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				errs = append(errs, err)
			}
		}
		abort()
		if err := errors.Join(errs...); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
			return err
		}
		logger.Info().Msg("shut down")
		return nil
	})
	return g.Wait()
}
