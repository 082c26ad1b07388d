package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Start launches the UI loop, the engine and the metrics endpoint.
func (app *Application) Start() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if err := app.ui.Start(); err != nil {
		return &InitError{Component: "ui loop", Err: err}
	}
	if err := app.engine.Start(); err != nil {
		return &InitError{Component: "engine", Err: err}
	}
	if addr := app.config.Settings().Metrics.Listen; addr != "" {
		srv, err := startMetricsServer(addr, app.metrics.Handler())
		if err != nil {
			return &InitError{Component: "metrics", Err: err}
		}
		app.mu.Lock()
		app.server = srv
		app.mu.Unlock()
		app.logger.Info("metrics on http://%s/metrics", srv.Addr())
	}
	app.logger.Info("started")
	return nil
}

// Run starts the application and blocks until ctx is done, then shuts
// down within the given grace period.
func (app *Application) Run(ctx context.Context, grace time.Duration) error {
	if err := app.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	sctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return app.Shutdown(sctx)
}

// Shutdown stops components in reverse dependency order: the bridge first
// so no new edits are queued, then the channel so the engine drains what
// is left, then the loops.
func (app *Application) Shutdown(ctx context.Context) error {
	if !app.running.Load() {
		return ErrNotRunning
	}
	if !app.stopped.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := app.bridge.Close(); err != nil {
		errs = append(errs, err)
	}
	app.channel.Close()
	if err := app.engine.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := app.ui.Stop(); err != nil {
		errs = append(errs, err)
	}

	app.mu.Lock()
	srv := app.server
	app.server = nil
	app.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	stats := app.channel.Stats()
	app.logger.Info("stopped sent=%d syncs=%d waited=%s processed=%d",
		stats.Sent, stats.Syncs, stats.TotalWaiting, app.engine.Processed())
	app.release()
	return errors.Join(errs...)
}

// release frees resources that exist even if Start never ran.
func (app *Application) release() {
	for _, s := range app.subs {
		s.Unsubscribe()
	}
	app.subs = nil
	if app.script != nil {
		app.script.Close()
	}
	if app.config != nil {
		_ = app.config.Close()
	}
	if app.logger != nil {
		_ = app.logger.Sync()
	}
	if app.logFile != nil {
		_ = app.logFile.Close()
		app.logFile = nil
	}
}

type metricsServer struct {
	ln  net.Listener
	srv *http.Server
}

func startMetricsServer(addr string, h http.Handler) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	s := &metricsServer{ln: ln, srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
	go func() { _ = s.srv.Serve(ln) }()
	return s, nil
}

// Addr returns the bound address, useful with port 0.
func (s *metricsServer) Addr() string { return s.ln.Addr().String() }

func (s *metricsServer) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// MetricsAddr returns the metrics endpoint address, or "" when disabled.
func (app *Application) MetricsAddr() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.server == nil {
		return ""
	}
	return app.server.Addr()
}
