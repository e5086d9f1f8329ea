package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/resonance/sym"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Logger
			t.Cleanup(func() { Logger = prev; JSONOutput = false })

			Logger = nil
			require.NoError(t, Initialize(tt.jsonOutput))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
		})
	}
}

func TestInitializeWithVerbosity(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, InitializeWithVerbosity(false, VerbosityDebug))
	assert.True(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.Equal(t, VerbosityDebug, Verbosity())

	require.NoError(t, InitializeWithVerbosity(false, VerbosityUser))
	assert.False(t, Logger.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Logger.Desugar().Core().Enabled(zapcore.WarnLevel))
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
}

func TestShouldLog(t *testing.T) {
	assert.False(t, ShouldLogTrace(VerbosityDebug))
	assert.True(t, ShouldLogTrace(VerbosityTrace))
	assert.False(t, ShouldLogAll(VerbosityTrace))
	assert.True(t, ShouldLogAll(6))
}

func TestOr(t *testing.T) {
	own := zap.NewNop().Sugar()
	assert.Same(t, own, Or(own))
	assert.Same(t, Logger, Or(nil))
}

func TestSymbolHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core).Sugar()

	AddDomainSymbol(base).Infow("committed")
	AddClusterSymbol(base).Infow("built")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, sym.Domain, entries[0].ContextMap()[FieldSymbol])
	assert.Equal(t, sym.Cluster, entries[1].ContextMap()[FieldSymbol])
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FieldsFromContext(ctx))

	ctx = WithDomainID(ctx, "d-1")
	ctx = WithComponent(ctx, "cluster")
	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{FieldDomainID, "d-1", FieldComponent, "cluster"}, fields)
}

func TestLoggerFromContext(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	core, logs := observer.New(zapcore.InfoLevel)
	Logger = zap.New(core).Sugar()

	LoggerFromContext(WithDomainID(context.Background(), "d-9")).Infow("hello")
	LoggerFromContext(context.Background()).Infow("bare")
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "d-9", logs.All()[0].ContextMap()[FieldDomainID])
	assert.Empty(t, logs.All()[1].ContextMap())
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).Sugar()

	ctx := WithComponent(context.Background(), "commit")
	WithContext(ctx, AddWitnessSymbol(base)).Infow("recorded")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "commit", fields[FieldComponent])
	assert.Equal(t, sym.Witness, fields[FieldSymbol])
}

func TestWithSymbol(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	core, logs := observer.New(zapcore.InfoLevel)
	Logger = zap.New(core).Sugar()

	WithSymbol(sym.AM).Infow("configured")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, sym.AM, logs.All()[0].ContextMap()[FieldSymbol])
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(VerbosityUser))
	assert.Equal(t, "Trace (-vvv)", LevelName(VerbosityTrace))
	assert.Equal(t, "All (-vvvv+)", LevelName(9))
	assert.Equal(t, "Unknown", LevelName(-1))
}
