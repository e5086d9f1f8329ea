package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/resonance/cmd/resonance/commands"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/sym"
)

var rootCmd = &cobra.Command{
	Use:   "resonance",
	Short: "resonance - conserved regions, witnesses and harmonic windows",
	Long: `resonance - conserved memory regions with witnessed commits.

A region is 48 pages of 256 bytes whose byte sum must stay 0 mod 96.
resonance classifies regions into 96 classes, builds class-partitioned
coordinate indexes, commits regions under a content witness and computes
the harmonic window in which each class is scheduled.

Available commands (the glyph may be typed instead of the name):
` + paletteHelp() + `
  syscap     Show CPU capabilities and the selected backend
  version    Show version information

Examples:
  resonance classify region.bin        # Class histogram and residue
  resonance commit region.bin          # Commit and record the witness
  resonance verify region.bin          # Verify against the latest witness
  resonance window --now 1000 --class 7`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger.WithSymbol(sym.AM).Infow("Logger initialized", "verbosity", logger.LevelName(verbosity))

		cmd.SetContext(logger.WithComponent(cmd.Context(), cmd.Name()))
		return commands.ApplyConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

// paletteHelp lists the glyph commands in palette order, one per line.
func paletteHelp() string {
	var b strings.Builder
	for i, glyph := range sym.PaletteOrder() {
		if i > 0 {
			b.WriteByte('\n')
		}
		name := sym.SymbolToCommand[glyph]
		fmt.Fprintf(&b, "  %s %-8s %s", glyph, name, sym.CommandDescriptions[name])
	}
	return b.String()
}

// resolveGlyph rewrites a leading command glyph (e.g. "⋈") to its command name.
func resolveGlyph(args []string) []string {
	if len(args) == 0 {
		return args
	}
	name, ok := sym.SymbolToCommand[args[0]]
	if !ok {
		return args
	}
	return append([]string{name}, args[1:]...)
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.ClassifyCmd)
	rootCmd.AddCommand(commands.ClusterCmd)
	rootCmd.AddCommand(commands.CommitCmd)
	rootCmd.AddCommand(commands.VerifyCmd)
	rootCmd.AddCommand(commands.WindowCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.SyscapCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	rootCmd.SetArgs(resolveGlyph(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		// Exit status is the status code of the failure, so scripts can
		// tell a conservation violation from a budget failure.
		os.Exit(int(errors.CodeOf(err)))
	}
}
