package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/resonance/am"
	"github.com/teranos/resonance/conserve"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/sym"
	"github.com/teranos/resonance/syscap"
)

// SyscapCmd shows the host capabilities behind backend and worker selection.
var SyscapCmd = &cobra.Command{
	Use:   "syscap",
	Short: sym.Conserve + " Show CPU capabilities and the selected backend",
	Long: sym.Conserve + ` syscap - Show CPU capabilities and the selected backend

Reports the CPU features backend detection looks at, the detected and
active conserved-primitive backends, host memory, and the cluster worker
count recommended for the configured region.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		r := syscap.Collect(cfg.Region.Pages)

		if jsonOutput {
			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		data := pterm.TableData{
			{"Property", "Value"},
			{"CPU", strings.TrimSpace(r.CPU.Vendor + " " + r.CPU.Brand)},
			{"Word size", fmt.Sprintf("%d-bit", r.CPU.WordBits)},
			{"Features", features(r.CPU)},
			{"Logical CPUs", fmt.Sprint(r.LogicalCPUs)},
			{"Detected backend", r.Detected},
			{"Active backend", r.Active},
			{"Backends", strings.Join(r.Backends, ", ")},
			{"Cluster workers", fmt.Sprint(r.ClusterWorkers)},
		}
		if r.MemoryErr != "" {
			data = append(data, []string{"Memory", "unavailable: " + r.MemoryErr})
		} else {
			data = append(data, []string{"Memory", fmt.Sprintf("%.1f / %.1f GB (%.0f%%)", r.MemoryUsedGB, r.MemoryTotalGB, r.MemoryPercent)})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

func init() {
	SyscapCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

func features(c conserve.Capabilities) string {
	var out []string
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"sse2", c.SSE2},
		{"avx2", c.AVX2},
		{"avx512", c.AVX512},
		{"asimd", c.ASIMD},
	} {
		if f.on {
			out = append(out, f.name)
		}
	}
	if len(out) == 0 {
		return "none"
	}
	return strings.Join(out, " ")
}
