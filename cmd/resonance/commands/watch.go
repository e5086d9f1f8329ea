package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/resonance/am"
	"github.com/teranos/resonance/conserve"
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
	"github.com/teranos/resonance/metrics"
	"github.com/teranos/resonance/pulse/schedule"
	"github.com/teranos/resonance/resonance"
	"github.com/teranos/resonance/sym"
	"github.com/teranos/resonance/watch"
	"github.com/teranos/resonance/witness"
)

// WatchCmd re-verifies a region file whenever it changes.
var WatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: sym.Short("watch"),
	Long: sym.Conserve + ` watch - Re-verify a region file whenever it changes

Each settled change to the file is checked for conservation and, with
--domain, against the stored witness of that domain. Windows of the
classes given by --class are announced as their slots open. When
metrics.address is set, /metrics is served for the life of the command.

Stops on SIGINT or SIGTERM.

Examples:
  resonance watch region.bin
  resonance watch region.bin --domain 6f1c... --class 0 --class 7`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	WatchCmd.Flags().String("domain", "", "Domain id whose witness each change is checked against")
	WatchCmd.Flags().IntSlice("class", nil, "Classes whose windows are announced (repeatable)")
	WatchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a change is checked")
	WatchCmd.Flags().String("db", "", "Database path (default: database.path)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	domainID, _ := cmd.Flags().GetString("domain")
	classes, _ := cmd.Flags().GetIntSlice("class")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	dbPath, _ := cmd.Flags().GetString("db")

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	log := logger.AddConserveSymbol(logger.LoggerFromContext(cmd.Context()))

	var want *witness.Witness
	if domainID != "" {
		database, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		rec, err := witness.NewStore(database, logger.Logger).Get(cmd.Context(), domainID)
		database.Close()
		if err != nil {
			return err
		}
		want = rec.Witness
	}

	tickerCfg := schedule.DefaultTickerConfig()
	tickerCfg.Interval = cfg.TickInterval()
	for _, c := range classes {
		if c < 0 || c >= resonance.Classes {
			return errors.NewInvalidArgumentError("class must be in [0,%d], got %d", resonance.Classes-1, c)
		}
		tickerCfg.Classes = append(tickerCfg.Classes, resonance.Class(c))
	}

	fw, err := watch.New(args[0], debounce, log)
	if err != nil {
		return err
	}
	fw.OnChange(func(path string) error {
		return checkRegion(path, want)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return fw.Run(ctx) })

	if len(tickerCfg.Classes) > 0 {
		ticker, err := schedule.NewTickerWithContext(ctx, tickerCfg, logger.LoggerFromContext(cmd.Context()))
		if err != nil {
			return err
		}
		ticker.Start()
		g.Go(func() error {
			defer ticker.Stop()
			for w := range ticker.C() {
				pterm.Info.Printfln("%s slot %d opens class %d", sym.Window, w.Slot, w.Class)
			}
			return nil
		})
	}

	if cfg.Metrics.Address != "" {
		g.Go(func() error { return serveMetrics(ctx, cfg.Metrics.Address) })
	}

	pterm.Info.Printfln("%s watching %s", sym.Conserve, fw.Path())
	// Check once up front so the first report does not wait for an edit.
	if err := checkRegion(fw.Path(), want); err != nil {
		log.Warnw("Initial check failed", logger.FieldError, err)
	}

	return g.Wait()
}

// checkRegion reports conservation of the file at path and, when want is
// set, whether its bytes still match that witness.
func checkRegion(path string, want *witness.Witness) error {
	buf, err := readRegion(path)
	if err != nil {
		return err
	}

	ok := conserve.Holds(buf)
	metrics.RecordConservationCheck("watch", ok)
	if ok {
		pterm.Success.Printfln("%s %s conserved (%d bytes)", sym.Conserve, path, len(buf))
	} else {
		pterm.Warning.Printfln("%s %s residue %d", sym.Conserve, path, conserve.Residue(buf))
	}

	if want == nil {
		return nil
	}
	checkErr := witness.Check(want, buf)
	metrics.RecordWitness("verify", checkErr == nil)
	if checkErr != nil {
		pterm.Error.Printfln("%s %s no longer matches its witness", sym.Witness, path)
		return checkErr
	}
	pterm.Success.Printfln("%s %s matches its witness", sym.Witness, path)
	return nil
}

// serveMetrics serves /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("Serving metrics", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrapf(err, "metrics server on %s", addr)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
