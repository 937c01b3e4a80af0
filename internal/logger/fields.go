package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldComponent names the subsystem emitting the entry.
	FieldComponent = "component"
	// FieldModel is the embedding or generation model identifier.
	FieldModel = "model"
	// FieldAnalysisID correlates entries that belong to one analysis.
	FieldAnalysisID = "analysis_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, falling back to a no-op logger
// when nil is passed.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ForComponent returns a logger tagged with the component and, when known,
// the model it drives.
func ForComponent(logger *zap.Logger, component, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldComponent, Value: component},
		StringField{Key: FieldModel, Value: model},
	)...)
}
