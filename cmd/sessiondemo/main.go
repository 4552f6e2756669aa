// Command sessiondemo serves a small site that exercises every session driver.
//
// Configuration comes from the environment (and an optional .env file):
// SESSION_DRIVER picks memory, file, redis or cookie, COOKIE_SECRETS is required,
// REDIS_URL is used by the redis driver.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	sessionredis "github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/requestid"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("sessiondemo stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = config.LoadEnv() // .env is optional

	var (
		logCfg    logger.Config
		cookieCfg cookie.Config
		sessCfg   session.Config
		redisCfg  sessionredis.Config
		httpCfg   httpserver.Config
	)
	if err := errors.Join(
		config.Load(&logCfg),
		config.Load(&cookieCfg),
		config.Load(&sessCfg),
		config.Load(&redisCfg),
		config.Load(&httpCfg),
	); err != nil {
		return err
	}

	log := logger.NewFromConfig(logCfg, logger.WithContextExtractors(requestid.LoggerExtractor()))
	logger.SetAsDefault(log)

	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return fmt.Errorf("cookie manager: %w", err)
	}

	opts := []session.Option{
		session.WithCookieManager(cookies),
		session.WithLogger(log),
	}
	var checks []httpserver.NamedCheck

	if strings.EqualFold(sessCfg.Driver, session.DriverRedis) {
		client, err := sessionredis.Connect(ctx, redisCfg, sessionredis.WithLogger(log))
		if err != nil {
			return err
		}
		defer client.Close()

		opts = append(opts, session.WithRedisClient(client))
		checks = append(checks, httpserver.Check("redis", sessionredis.Healthcheck(client)))
	}

	sessions, err := session.NewManager(sessCfg, opts...)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/livez", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, checks...))
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		routes(r)
	})

	log.InfoContext(ctx, "sessions ready",
		logger.Driver(sessions.Config().Driver),
		slog.Bool("enabled", sessions.IsEnabled()),
	)

	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
}
