package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/logger"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID back to the client
const RequestIDHeader = "X-Request-ID"

// Logging logs every request with its status, size and duration. It reuses the
// chi request ID when present and echoes it in the response.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimw.GetReqID(r.Context())
			if requestID == "" {
				requestID = r.Header.Get(RequestIDHeader)
			}
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			reqLog := logger.WithRequest(log, r.Method, r.URL.Path, requestID)
			if userCtx, ok := auth.FromContext(r.Context()); ok {
				reqLog = logger.WithUser(reqLog, userCtx.UserID, userCtx.DisplayName, string(userCtx.Role))
			}

			fields := []zap.Field{
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status_code", status),
				zap.Int("response_size", ww.BytesWritten()),
				zap.Duration("duration", duration),
			}
			msg := fmt.Sprintf("%s %-30s -> %3d (%s)", r.Method, r.URL.Path, status, duration.Truncate(time.Microsecond))

			switch {
			case status >= 500:
				reqLog.Error(msg, fields...)
			case status >= 400:
				reqLog.Warn(msg, fields...)
			default:
				reqLog.Info(msg, fields...)
			}
		})
	}
}
