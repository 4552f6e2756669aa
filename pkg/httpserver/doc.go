// Package httpserver runs the session demo's HTTP surface with graceful shutdown.
//
// Run blocks until the context is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests within the shutdown timeout. Listen
// failures are wrapped with ErrStart and drain failures with ErrShutdown.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	r := chi.NewRouter()
//	r.Get("/livez", httpserver.LivenessHandler())
//	r.Get("/readyz", httpserver.ReadinessHandler(log, httpserver.Check("redis", redis.Healthcheck(client))))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
