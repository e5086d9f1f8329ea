package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/resonance/am"
	"github.com/teranos/resonance/domain"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/pulse/budget"
	"github.com/teranos/resonance/sym"
	"github.com/teranos/resonance/witness"
)

// CommitCmd attaches a region file to a fresh domain, commits it and
// records the witness.
var CommitCmd = &cobra.Command{
	Use:   "commit <file>",
	Short: sym.Short("commit"),
	Long: sym.Domain + ` commit - Attach, verify and commit a region file

Creates a domain sized by region.pages, attaches the file, checks
conservation and commits it. The witness of the committed bytes is stored
in the database under the domain id, so "resonance verify" can later
check the file against it.

The exit status is the status code of any failure, e.g. 1 for a
conservation violation.

Examples:
  resonance commit region.bin
  resonance commit region.bin --budget 10
  resonance commit region.bin --no-store`,
	Args: cobra.ExactArgs(1),
	RunE: runCommit,
}

func init() {
	CommitCmd.Flags().Int("budget", 0, "Budget units to allocate before committing")
	CommitCmd.Flags().Bool("no-store", false, "Do not record the witness in the database")
	CommitCmd.Flags().String("db", "", "Database path (default: database.path)")
	CommitCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

type commitResult struct {
	DomainID    string `json:"domain_id"`
	Witness     string `json:"witness"`
	Hash        string `json:"hash"`
	Bytes       int    `json:"bytes"`
	Budget      int    `json:"budget"`
	CommittedAt string `json:"committed_at"`
	Stored      bool   `json:"stored"`
}

func runCommit(cmd *cobra.Command, args []string) error {
	units, _ := cmd.Flags().GetInt("budget")
	noStore, _ := cmd.Flags().GetBool("no-store")
	dbPath, _ := cmd.Flags().GetString("db")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	buf, err := readRegion(args[0])
	if err != nil {
		return err
	}

	d, err := domain.New(cfg.RegionSize(), cfg.Domain.BudgetClass, logger.LoggerFromContext(cmd.Context()))
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Attach(buf); err != nil {
		return err
	}
	if units > 0 {
		if err := d.BudgetAlloc(units); err != nil {
			return err
		}
	}
	if err := d.Commit(); err != nil {
		return err
	}

	w := d.Witness()
	res := commitResult{
		DomainID:    d.ID(),
		Witness:     w.String(),
		Hash:        w.HashName(),
		Bytes:       w.Len(),
		Budget:      d.Budget(),
		CommittedAt: d.CommittedAt().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	if !noStore {
		database, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		store := witness.NewStore(database, logger.Logger)
		if err := store.Save(cmd.Context(), witness.Record{
			DomainID:    d.ID(),
			Witness:     w,
			Budget:      d.Budget(),
			CommittedAt: d.CommittedAt(),
		}); err != nil {
			return err
		}
		res.Stored = true
	}

	if jsonOutput {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	pterm.Success.Printfln("%s committed %s", sym.Domain, res.DomainID)
	pterm.Info.Printfln("%s %s (%s over %d bytes)", sym.Witness, res.Witness, res.Hash, res.Bytes)
	pterm.Info.Printfln("%s budget %d/%d", sym.Budget, res.Budget, budget.Max)
	if !res.Stored {
		pterm.Warning.Println("witness not stored (--no-store)")
	}
	return nil
}
