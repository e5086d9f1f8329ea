package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/resonance/am"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/pulse/schedule"
	"github.com/teranos/resonance/sym"
)

// WindowCmd computes the next harmonic windows of a class.
var WindowCmd = &cobra.Command{
	Use:   "window",
	Short: sym.Short("window"),
	Long: sym.Window + ` window - Compute the next harmonic windows for a class

Slot t is the window of class r when (t + r) mod 96 == 0. Without --now
the current slot is derived from the wall clock and schedule.tick_ms,
and each window is also shown as a time.

Examples:
  resonance window --now 1000 --class 7           # 1049
  resonance window --class 0 --count 3
  resonance window --now 5                        # Which class owns slot 5`,
	RunE: runWindow,
}

func init() {
	WindowCmd.Flags().Int64("now", -1, "Current slot (default: derived from the clock)")
	WindowCmd.Flags().Int("class", -1, "Resonance class; values above 95 act modulo 96")
	WindowCmd.Flags().Int("count", 1, "Number of windows to list")
	WindowCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

type windowResult struct {
	Now     uint64   `json:"now"`
	Owner   int      `json:"owner"`
	Class   *int     `json:"class,omitempty"`
	Windows []uint64 `json:"windows,omitempty"`
	Wait    *uint64  `json:"wait,omitempty"`
	Times   []string `json:"times,omitempty"`
}

func runWindow(cmd *cobra.Command, args []string) error {
	nowFlag, _ := cmd.Flags().GetInt64("now")
	class, _ := cmd.Flags().GetInt("class")
	count, _ := cmd.Flags().GetInt("count")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if count <= 0 {
		return errors.NewInvalidArgumentError("count must be positive, got %d", count)
	}
	if class > 255 {
		return errors.NewInvalidArgumentError("class must be in [0,255], got %d", class)
	}

	var (
		ticker *schedule.Ticker
		at     time.Time
		res    windowResult
	)
	if nowFlag >= 0 {
		res.Now = uint64(nowFlag)
	} else {
		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		ticker, err = schedule.NewTicker(schedule.TickerConfig{Interval: cfg.TickInterval()}, nil)
		if err != nil {
			return err
		}
		at = time.Now()
		res.Now = ticker.Slot(at)
	}
	res.Owner = int(schedule.ClassAt(res.Now))

	if class >= 0 {
		r := uint8(class)
		norm := int(r) % schedule.Period
		res.Class = &norm
		res.Windows = schedule.Windows(res.Now, r, count)
		wait := schedule.Wait(res.Now, r)
		res.Wait = &wait
		if ticker != nil {
			next := ticker.Next(at, r)
			for i := range res.Windows {
				res.Times = append(res.Times, next.Add(time.Duration(i*schedule.Period)*ticker.Interval()).Format(time.RFC3339Nano))
			}
		}
	}

	if jsonOutput {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	pterm.Info.Printfln("%s slot %d opens class %d", sym.Window, res.Now, res.Owner)
	if res.Class == nil {
		return nil
	}
	data := pterm.TableData{{"#", "Slot", "Time"}}
	for i, w := range res.Windows {
		at := ""
		if i < len(res.Times) {
			at = res.Times[i]
		}
		data = append(data, []string{fmt.Sprint(i + 1), fmt.Sprint(w), at})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Success.Printfln("class %d opens in %d slots", *res.Class, *res.Wait)
	return nil
}
