package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/resonance/am"
	"github.com/teranos/resonance/cluster"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/resonance"
	"github.com/teranos/resonance/sym"
	"github.com/teranos/resonance/syscap"
)

// ClusterCmd builds the class-partitioned coordinate index of a region file.
var ClusterCmd = &cobra.Command{
	Use:   "cluster <file>",
	Short: sym.Short("cluster"),
	Long: sym.Cluster + ` cluster - Build the CSR class index of a region file

Partitions every coordinate (page*256 + offset) by the resonance class of
its byte. Coordinates within a class are ascending, so serial and parallel
builds produce identical indexes; the fingerprint makes that checkable.

Examples:
  resonance cluster region.bin
  resonance cluster region.bin --workers 8
  resonance cluster region.bin --auto      # One worker per CPU, at most one per 4 pages
  resonance cluster region.bin --class 7   # List the coordinates of class 7`,
	Args: cobra.ExactArgs(1),
	RunE: runCluster,
}

func init() {
	ClusterCmd.Flags().Int("workers", -1, "Worker goroutines (0 or 1 = serial, -1 = cluster.workers)")
	ClusterCmd.Flags().Bool("auto", false, "Use the worker count recommended for this host")
	ClusterCmd.Flags().Int("class", -1, "List the coordinates of one class")
	ClusterCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

type clusterResult struct {
	Pages       int                       `json:"pages"`
	Workers     int                       `json:"workers"`
	Fingerprint string                    `json:"fingerprint"`
	Elapsed     string                    `json:"elapsed"`
	Counts      [resonance.Classes]uint64 `json:"counts"`
	Class       *int                      `json:"class,omitempty"`
	Coordinates []uint32                  `json:"coordinates,omitempty"`
}

func runCluster(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	auto, _ := cmd.Flags().GetBool("auto")
	class, _ := cmd.Flags().GetInt("class")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if class >= resonance.Classes {
		return errors.NewInvalidArgumentError("class must be in [0,%d], got %d", resonance.Classes-1, class)
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	buf, err := readRegion(args[0])
	if err != nil {
		return err
	}
	pages := len(buf) / resonance.PageSize
	if pages == 0 {
		return errors.NewInvalidArgumentError("region %s is shorter than one page", args[0])
	}

	switch {
	case auto:
		workers = syscap.Collect(pages).ClusterWorkers
	case workers < 0:
		workers = cfg.Cluster.Workers
	}

	b := cluster.NewBuilder(workers, cfg.Cluster.MinPagesPerWorker, logger.LoggerFromContext(cmd.Context()))
	start := time.Now()
	view, err := b.Build(cmd.Context(), buf, pages)
	if err != nil {
		return err
	}
	defer view.Release()

	res := clusterResult{
		Pages:       pages,
		Workers:     workers,
		Fingerprint: fmt.Sprintf("%016x", view.Fingerprint()),
		Elapsed:     time.Since(start).String(),
		Counts:      view.Histogram(),
	}
	if class >= 0 {
		res.Class = &class
		res.Coordinates = append([]uint32(nil), view.Class(class)...)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	pterm.DefaultHeader.Println(fmt.Sprintf("%s %d pages, %d workers", sym.Cluster, res.Pages, res.Workers))

	if res.Class != nil {
		data := pterm.TableData{{"Coordinate", "Page", "Offset"}}
		for _, c := range res.Coordinates {
			p, off := resonance.SplitCoordinate(c)
			data = append(data, []string{fmt.Sprint(c), fmt.Sprint(p), fmt.Sprint(off)})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
		pterm.Info.Printfln("class %d: %d coordinates", class, len(res.Coordinates))
	} else {
		data := pterm.TableData{{"Class", "Coordinates"}}
		for r, n := range res.Counts {
			if n == 0 {
				continue
			}
			data = append(data, []string{fmt.Sprint(r), fmt.Sprint(n)})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
	}

	pterm.Success.Printfln("fingerprint %s (%d coordinates in %s)", res.Fingerprint, view.Len(), res.Elapsed)
	return nil
}
