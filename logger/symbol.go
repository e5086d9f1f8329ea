package logger

import (
	"go.uber.org/zap"

	"github.com/teranos/resonance/sym"
)

// Symbol-aware logging helpers.
// The symbol is logged as a structured field, not in the message, so logs
// stay queryable by component.
//
// Usage:
//
//	d.log = logger.AddDomainSymbol(logger.Or(l))
//	d.log.Infow("Domain committed", logger.FieldDomainID, d.id)

// WithSymbol returns the global logger with the given symbol as a field.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Logger.With(FieldSymbol, symbol)
}

// AddDomainSymbol wraps a logger with the Domain symbol (⌬)
func AddDomainSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Domain)
}

// AddWitnessSymbol wraps a logger with the Witness symbol (◈)
func AddWitnessSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Witness)
}

// AddClusterSymbol wraps a logger with the Cluster symbol (⋈)
func AddClusterSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Cluster)
}

// AddPulseSymbol wraps a logger with the Pulse symbol (꩜)
func AddPulseSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Pulse)
}

// AddPulseOpenSymbol wraps a logger with the startup symbol (✿)
func AddPulseOpenSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.PulseOpen)
}

// AddPulseCloseSymbol wraps a logger with the shutdown symbol (❀)
func AddPulseCloseSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.PulseClose)
}

// AddDBSymbol wraps a logger with the DB symbol (⊔)
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.DB)
}

// AddConserveSymbol wraps a logger with the Conserve symbol (≡)
func AddConserveSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Conserve)
}
