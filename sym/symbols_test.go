package sym

import "testing"

func TestCommandMappingsRoundTrip(t *testing.T) {
	for glyph, cmd := range SymbolToCommand {
		if got := CommandToSymbol[cmd]; got != glyph {
			t.Errorf("CommandToSymbol[%q] = %q, want %q", cmd, got, glyph)
		}
		if CommandDescriptions[cmd] == "" {
			t.Errorf("command %q has no description", cmd)
		}
	}
}

func TestPaletteOrderUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, g := range PaletteOrder() {
		if seen[g] {
			t.Errorf("duplicate glyph %q in palette", g)
		}
		seen[g] = true
	}
	if len(seen) != len(registry) {
		t.Errorf("palette has %d glyphs, registry has %d", len(seen), len(registry))
	}
}

func TestShort(t *testing.T) {
	if got, want := Short("commit"), Domain+" Attach, verify and commit a region"; got != want {
		t.Errorf("Short(commit) = %q, want %q", got, want)
	}
	if got := Short("nope"); got != "" {
		t.Errorf("Short(nope) = %q, want empty", got)
	}
}
