package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/spectrum-media/quote-api/internal/domain"
	"go.uber.org/zap"
)

// Recovery turns panics into a 500 problem response and logs the stack
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(domain.APIError{
					Type:   domain.ErrorTypeInternal,
					Title:  "Internal Server Error",
					Status: http.StatusInternalServerError,
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
