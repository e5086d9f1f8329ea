// Package sym defines canonical symbols for resonance components and system markers.
// These symbols are stable across CLI output and structured logs, where they
// appear as the value of the "symbol" field.
package sym

// Core component symbols.
const (
	Region   = "Φ" // attached 48×256 region, linearized coordinates
	Conserve = "≡" // conservation predicate and conserved primitives
	Witness  = "◈" // content witness generation and verification
	Budget   = "⊕" // per-domain budget ledger
	Domain   = "⌬" // domain lifecycle (open → committed)
	Cluster  = "⋈" // CSR cluster builder
	Window   = "✦" // harmonic window scheduler
)

// System infrastructure symbols.
const (
	Pulse      = "꩜" // ticker loop
	PulseOpen  = "✿" // graceful startup
	PulseClose = "❀" // graceful shutdown
	DB         = "⊔" // database/storage layer
	AM         = "≣" // configuration
)

// entry binds a glyph to its command and description.
type entry struct {
	glyph       string
	command     string
	description string
}

// registry is the canonical list of component symbols, in CLI help order.
var registry = []entry{
	{Region, "classify", "Classify region bytes into resonance classes"},
	{Cluster, "cluster", "Partition coordinates by resonance class"},
	{Domain, "commit", "Attach, verify and commit a region"},
	{Witness, "verify", "Verify a region against its stored witness"},
	{Window, "window", "Compute the next harmonic window for a class"},
	{Conserve, "watch", "Re-verify a region file whenever it changes"},
	{AM, "am", "Show and validate configuration"},
}

// SymbolToCommand maps glyph strings to their CLI command equivalents.
var SymbolToCommand = map[string]string{}

// CommandToSymbol maps CLI commands to their canonical glyph strings.
var CommandToSymbol = map[string]string{}

// CommandDescriptions provides human-readable explanations for help output.
var CommandDescriptions = map[string]string{}

func init() {
	for _, e := range registry {
		SymbolToCommand[e.glyph] = e.command
		CommandToSymbol[e.command] = e.glyph
		CommandDescriptions[e.command] = e.description
	}
}

// PaletteOrder lists component symbols in CLI help order.
func PaletteOrder() []string {
	out := make([]string, len(registry))
	for i, e := range registry {
		out[i] = e.glyph
	}
	return out
}

// Short returns the one-line help text of a command, prefixed by its glyph.
func Short(command string) string {
	glyph, ok := CommandToSymbol[command]
	if !ok {
		return ""
	}
	return glyph + " " + CommandDescriptions[command]
}
