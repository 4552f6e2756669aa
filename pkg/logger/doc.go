// Package logger builds the *slog.Logger used across sessionkit.
//
// New takes functional options for format (json or text), level, static
// attributes and ContextExtractor callbacks. The handler it returns is wrapped
// in LogHandlerDecorator, which runs the extractors on every *Context call so
// request-scoped values such as the request id show up without being passed
// explicitly. NewFromConfig derives the same options from APP_ENV, LOG_LEVEL
// and LOG_FORMAT.
//
// Attribute helpers in attr.go keep key names consistent:
//
//	log := logger.NewFromConfig(cfg, logger.WithContextExtractors(requestid.LoggerExtractor()))
//	log.ErrorContext(ctx, "session commit failed",
//		logger.SessionID(sess.ID()),
//		logger.Driver("redis"),
//		logger.Error(err),
//	)
//
// Error, Errors and SessionID return an empty attribute for nil or empty input,
// so callers can pass them unconditionally.
package logger
