package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/spectrum-media/quote-api/internal/config"
	"go.uber.org/zap"
)

func isDevEnvironment(env string) bool {
	return env == "" || env == "development" || env == "local"
}

// CORS builds the cross-origin middleware. A "*" origin or an empty list in
// development allows any origin; an empty list elsewhere denies all.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   append(slices.Clone(cfg.ExposedHeaders), RequestIDHeader, "Content-Disposition"),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	anyOrigin := func(r *http.Request, origin string) bool { return origin != "" }

	switch {
	case slices.Contains(cfg.AllowedOrigins, "*"):
		if !isDevEnvironment(environment) {
			logger.Warn("CORS allows any origin outside development", zap.String("environment", environment))
		}
		options.AllowOriginFunc = anyOrigin
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
	case isDevEnvironment(environment):
		options.AllowOriginFunc = anyOrigin
		logger.Info("CORS allows all origins in development")
	default:
		// an empty AllowedOrigins would mean "*" to the cors package
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS has no allowed origins, cross-origin requests are denied", zap.String("environment", environment))
	}

	return cors.Handler(options)
}
