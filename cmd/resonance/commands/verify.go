package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/resonance/conserve"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/metrics"
	"github.com/teranos/resonance/sym"
	"github.com/teranos/resonance/witness"
)

// VerifyCmd checks a region file against a stored witness.
var VerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: sym.Short("verify"),
	Long: sym.Witness + ` verify - Check a region file against a stored witness

Recomputes the digest of the file and compares it with the witness stored
for --domain, or with the most recent witness when no domain is given.
Conservation is reported as well. A mismatch exits with status 2.

Examples:
  resonance verify region.bin
  resonance verify region.bin --domain 6f1c...
  resonance verify --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	VerifyCmd.Flags().String("domain", "", "Domain id whose witness to check against (default: latest)")
	VerifyCmd.Flags().Bool("list", false, "List stored witnesses instead of verifying")
	VerifyCmd.Flags().Int("limit", 20, "Maximum witnesses to list")
	VerifyCmd.Flags().String("db", "", "Database path (default: database.path)")
	VerifyCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

type verifyResult struct {
	DomainID  string `json:"domain_id"`
	Witness   string `json:"witness"`
	Match     bool   `json:"match"`
	Conserved bool   `json:"conserved"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	domainID, _ := cmd.Flags().GetString("domain")
	list, _ := cmd.Flags().GetBool("list")
	limit, _ := cmd.Flags().GetInt("limit")
	dbPath, _ := cmd.Flags().GetString("db")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	database, err := openDatabase(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	store := witness.NewStore(database, logger.Logger)

	if list {
		return listWitnesses(cmd, store, limit, jsonOutput)
	}
	if len(args) == 0 {
		return errors.NewInvalidArgumentError("verify needs a region file (or --list)")
	}

	var rec *witness.Record
	if domainID != "" {
		rec, err = store.Get(cmd.Context(), domainID)
	} else {
		rec, err = store.Latest(cmd.Context())
	}
	if err != nil {
		return err
	}

	buf, err := readRegion(args[0])
	if err != nil {
		return err
	}

	checkErr := witness.Check(rec.Witness, buf)
	metrics.RecordWitness("verify", checkErr == nil)
	res := verifyResult{
		DomainID:  rec.DomainID,
		Witness:   rec.Witness.String(),
		Match:     checkErr == nil,
		Conserved: conserve.Holds(buf),
	}

	if jsonOutput {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		if res.Match {
			pterm.Success.Printfln("%s %s matches domain %s", sym.Witness, args[0], res.DomainID)
		} else {
			pterm.Error.Printfln("%s %s does not match domain %s", sym.Witness, args[0], res.DomainID)
		}
		if !res.Conserved {
			pterm.Warning.Printfln("%s residue %d", sym.Conserve, conserve.Residue(buf))
		}
	}
	return checkErr
}

func listWitnesses(cmd *cobra.Command, store *witness.Store, limit int, jsonOutput bool) error {
	recs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		type row struct {
			DomainID    string `json:"domain_id"`
			Witness     string `json:"witness"`
			Bytes       int    `json:"bytes"`
			Budget      int    `json:"budget"`
			CommittedAt string `json:"committed_at"`
		}
		rows := make([]row, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, row{r.DomainID, r.Witness.String(), r.Witness.Len(), r.Budget, r.CommittedAt.Format("2006-01-02T15:04:05Z07:00")})
		}
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(recs) == 0 {
		pterm.Info.Println("no witnesses recorded")
		return nil
	}
	data := pterm.TableData{{"Domain", "Witness", "Bytes", "Budget", "Committed"}}
	for _, r := range recs {
		data = append(data, []string{
			r.DomainID,
			r.Witness.String(),
			fmt.Sprint(r.Witness.Len()),
			fmt.Sprint(r.Budget),
			r.CommittedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
