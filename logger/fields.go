package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across resonance.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldDomainID = "domain_id"

	// Components
	FieldComponent = "component"
	FieldBackend   = "backend"

	// Operations
	FieldOperation = "operation"
	FieldPath      = "path"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorCode = "error_code"

	// Counts and sizes
	FieldCount   = "count"
	FieldSize    = "size"
	FieldPages   = "pages"
	FieldWorkers = "workers"

	// Status
	FieldState = "state"

	// Region and ledger
	FieldSymbol  = "symbol"  // component glyph (Φ, ≡, ◈, ...)
	FieldResidue = "residue" // region byte sum mod 96
	FieldClass   = "class"   // resonance class 0..95
	FieldBudget  = "budget"  // ledger value 0..95
	FieldAmount  = "amount"  // alloc/release amount
	FieldWitness = "witness" // witness CID text form
	FieldSlot    = "slot"    // harmonic window slot
)

// Context keys for propagating logging context
type contextKey string

const (
	domainIDKey  contextKey = "logger_domain_id"
	componentKey contextKey = "logger_component"
)

// WithDomainID adds a domain ID to the context for logging
func WithDomainID(ctx context.Context, domainID string) context.Context {
	return context.WithValue(ctx, domainIDKey, domainID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if id, ok := ctx.Value(domainIDKey).(string); ok && id != "" {
		fields = append(fields, FieldDomainID, id)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns the global logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	return WithContext(ctx, Logger)
}

// WithContext adds the fields carried by ctx to l.
func WithContext(ctx context.Context, l *zap.SugaredLogger) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
