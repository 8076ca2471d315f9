package logutil

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

type (
	key byte
)

var (
	loggerKey = key(1)
)

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}

// AccessLog makes the logger from ctx available to every request
// and logs one line per request once the handler returns.
func AccessLog(ctx context.Context, next http.Handler) http.Handler {
	base := GetOrDefault(ctx)
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		l := GetOrDefault(r.Context())
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request served")
	})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), base)))
	})
}
