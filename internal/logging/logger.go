package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds a production ready structured logger.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	return cfg.Build()
}

// WithOperation enriches the logger with the operation and the entity it acts on.
func WithOperation(logger *zap.Logger, operation, entityID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if entityID != "" {
		fields = append(fields, zap.String("entity_id", entityID))
	}
	return logger.With(fields...)
}
