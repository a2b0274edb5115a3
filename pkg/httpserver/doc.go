// Package httpserver runs an http.Handler with graceful shutdown and serves
// liveness and readiness probes.
//
// Run blocks until its context is cancelled and then drains in-flight
// requests within the shutdown timeout, which makes it a natural errgroup
// member:
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// Signal handling is left to the caller (signal.NotifyContext in main).
//
// LivenessHandler always answers 200. ReadinessHandler runs every named
// Check with a per-probe timeout and answers 503 with the failing checks
// when any of them errors. Both respond with JSON.
//
// Listen errors are wrapped with ErrStart and shutdown errors with
// ErrShutdown.
package httpserver
