package logger

import (
	"fmt"
	"strings"

	"github.com/spectrum-media/quote-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates the application logger. JSON output is used in production
// or when logging.format is "json"; otherwise a colored console encoder.
// logging.output takes a comma separated list of zap sinks such as
// "stdout" or a file path.
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if outputs := splitOutputs(cfg.Output); len(outputs) > 0 {
		zapCfg.OutputPaths = outputs
	}
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}

func splitOutputs(output string) []string {
	var outputs []string
	for _, o := range strings.Split(output, ",") {
		if o = strings.TrimSpace(o); o != "" {
			outputs = append(outputs, o)
		}
	}
	return outputs
}

// WithRequest adds request context to logger
func WithRequest(logger *zap.Logger, method, path, requestID string) *zap.Logger {
	return logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)
}

// WithUser adds the caller and their role
func WithUser(logger *zap.Logger, userID, displayName, role string) *zap.Logger {
	return logger.With(
		zap.String("user_id", userID),
		zap.String("user_name", displayName),
		zap.String("user_role", role),
	)
}

// WithQuote tags log lines emitted while working on a single quote
func WithQuote(logger *zap.Logger, quoteID, status string) *zap.Logger {
	return logger.With(
		zap.String("quote_id", quoteID),
		zap.String("quote_status", status),
	)
}

// WithExpense tags log lines for a recorded expense
func WithExpense(logger *zap.Logger, expenseID, category string) *zap.Logger {
	return logger.With(
		zap.String("expense_id", expenseID),
		zap.String("expense_category", category),
	)
}

// WithJob tags log lines emitted by a scheduled job run
func WithJob(logger *zap.Logger, name string) *zap.Logger {
	return logger.With(zap.String("job_name", name))
}
