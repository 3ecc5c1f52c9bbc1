package routing

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/container"
)

// Scoped opens one container Scope per request, stores it on the request
// context and closes it when the handler returns.
func Scoped(c *container.Container, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := c.BeginScope()
			defer func() {
				if err := scope.Close(); err != nil {
					logger.Warn("closing request scope", zap.String("scope", scope.ID()), zap.Error(err))
				}
			}()
			next.ServeHTTP(w, r.WithContext(container.WithScope(r.Context(), scope)))
		})
	}
}

// RequestLogger logs one line per request with zap.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			if scope, ok := container.FromContext(r.Context()); ok {
				fields = append(fields, zap.String("scope", scope.ID()))
			}
			logger.Info("http request", fields...)
		})
	}
}
