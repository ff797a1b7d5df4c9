package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	clhttp "github.com/fwojciec/clearline/http"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ShutdownTimeout bounds how long in-flight requests may run after the
// server is asked to stop.
const ShutdownTimeout = 10 * time.Second

// Run executes the serve command. It blocks until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	opts := []clhttp.HandlerOption{
		clhttp.WithDebug(c.Debug),
		clhttp.WithRateLimit(c.RateLimit, c.Burst),
		clhttp.WithDiagnoseTimeout(c.Timeout),
	}
	if deps.MetricsHandler != nil {
		opts = append(opts, clhttp.WithMetrics(deps.MetricsHandler))
	}
	handler := clhttp.NewHandler(deps.Diagnoser, deps.Logger, opts...)

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           otelhttp.NewHandler(handler, "clearline"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	if deps.Logger != nil {
		deps.Logger.Info("listening", "addr", c.Addr)
	}

	select {
	case err := <-errc:
		return err
	case <-deps.Ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
