package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/resonance/conserve"
	"github.com/teranos/resonance/resonance"
	"github.com/teranos/resonance/sym"
)

// ClassifyCmd prints the class histogram and conservation residue of a region file.
var ClassifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: sym.Short("classify"),
	Long: sym.Region + ` classify - Histogram a region file by resonance class

Every byte is reduced modulo 96. The histogram counts bytes per class and
the residue is the byte sum modulo 96; a region is conserved when the
residue is 0.

Examples:
  resonance classify region.bin
  resonance classify region.bin --all     # Include empty classes
  resonance classify region.bin --json`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	ClassifyCmd.Flags().Bool("all", false, "Show classes with zero bytes")
	ClassifyCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

type classifyResult struct {
	Path      string                    `json:"path"`
	Bytes     int                       `json:"bytes"`
	Residue   int                       `json:"residue"`
	Conserved bool                      `json:"conserved"`
	Histogram [resonance.Classes]uint64 `json:"histogram"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	showAll, _ := cmd.Flags().GetBool("all")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	buf, err := readRegion(args[0])
	if err != nil {
		return err
	}

	res := classifyResult{
		Path:      args[0],
		Bytes:     len(buf),
		Residue:   int(conserve.Residue(buf)),
		Conserved: conserve.Holds(buf),
		Histogram: resonance.HistogramRegion(buf),
	}

	if jsonOutput {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	pterm.DefaultHeader.Println(fmt.Sprintf("%s %s (%d bytes)", sym.Region, res.Path, res.Bytes))

	data := pterm.TableData{{"Class", "Bytes", "Share"}}
	for r, n := range res.Histogram {
		if n == 0 && !showAll {
			continue
		}
		data = append(data, []string{
			fmt.Sprint(r),
			fmt.Sprint(n),
			fmt.Sprintf("%.2f%%", float64(n)*100/float64(res.Bytes)),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	if res.Conserved {
		pterm.Success.Printfln("%s conserved (residue 0)", sym.Conserve)
	} else {
		pterm.Warning.Printfln("%s not conserved (residue %d)", sym.Conserve, res.Residue)
	}
	return nil
}
