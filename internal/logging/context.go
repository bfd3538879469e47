package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldScanID is the structured logging key for the identifier of one scan.
	FieldScanID = "scan_id"
	// FieldPath is the structured logging key for file paths.
	FieldPath = "path"
	// FieldEventType is the structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldImpact is the structured logging key for the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type scanIDKey struct{}

// WithScanID returns a context carrying the scan identifier.
func WithScanID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, scanIDKey{}, id)
}

// ScanIDFromContext returns the scan identifier stored on ctx.
func ScanIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(scanIDKey{}).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if id, ok := ScanIDFromContext(ctx); ok {
		return []slog.Attr{slog.String(FieldScanID, id)}
	}
	return nil
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}
