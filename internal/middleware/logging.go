// Package middleware provides HTTP middleware for the contact service.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kakuu-clinic/contact-service/internal/logger"
)

// StructuredLogger returns middleware that logs every request in the
// service's structured format and threads the chi request ID through
// the context as a correlation ID.
func StructuredLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimw.GetReqID(r.Context())
			r = r.WithContext(logger.SetCorrelationID(r.Context(), requestID))

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			attrs := []any{
				slog.String("correlation_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}

			switch {
			case ww.Status() >= 500:
				log.Error("HTTP request completed with server error", attrs...)
			case ww.Status() >= 400:
				log.Warn("HTTP request completed with client error", attrs...)
			default:
				log.Info("HTTP request completed", attrs...)
			}
		})
	}
}
