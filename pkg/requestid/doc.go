// Package requestid tags every request with a correlation id.
//
// Middleware accepts a client-supplied X-Request-ID when it is short and made of
// letters, digits, dashes and underscores; anything else is replaced by a fresh
// UUID. The id is echoed in the response header and kept in the request context,
// where LoggerExtractor picks it up for structured logs:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r := chi.NewRouter()
//	r.Use(requestid.Middleware)
//
// Session lifecycle logs written with the request context then carry both the
// request id and the session id.
package requestid
