package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"GemSentinel/internal/analysis"
	"GemSentinel/internal/backtest"
	"GemSentinel/internal/strategy"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a one-off momentum analysis",
		Long: `Fetches monthly prices, computes the trailing momentum of every instrument,
replays the monthly signal and prints the current decision with the
equity summary and recent ranking.`,
		RunE: runAnalyze,
	}
	cmd.Flags().StringSlice("risky", nil, "Risky instrument ids (default: configured)")
	cmd.Flags().String("safe", "", "Safe instrument id (default: configured)")
	cmd.Flags().String("benchmark", "", "Benchmark instrument id (default: configured)")
	cmd.Flags().String("start", "", "History start date YYYY-MM-DD")
	cmd.Flags().String("as-of", "", "Analyze as of this date YYYY-MM-DD (default: latest data)")
	cmd.Flags().String("rule", "", "Decision rule: dual or relative")
	cmd.Flags().Int("window", 0, "Momentum look-back in months")
	cmd.Flags().Int("display-months", 0, "Months covered by the summary (-1 for all)")
	cmd.Flags().Bool("watchlist", false, "Use the watchlist as the risky set")
	cmd.Flags().String("csv", "", "Write the equity ledger to this CSV file")
	cmd.Flags().Bool("json", false, "Print the full result as JSON")
	cmd.Flags().Bool("no-record", false, "Do not store the run in the database")
	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if noRecord, _ := cmd.Flags().GetBool("no-record"); !noRecord {
		a.openRecorder()
		defer a.Close()
	}

	req, err := analyzeRequest(cmd, a)
	if err != nil {
		return err
	}

	res, err := a.service.Run(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if a.recorder != nil {
		if _, err := a.recorder.RecordRun(cmd.Context(), analysis.Snapshot(res, "cli")); err != nil {
			log.Warn().Err(err).Msg("record run failed")
		}
	}

	if path, _ := cmd.Flags().GetString("csv"); path != "" {
		ledger := &backtest.Result{Ledger: res.Ledger, Benchmark: res.Benchmark, HasBenchmark: res.Benchmark != ""}
		if err := backtest.WriteLedgerCSV(path, ledger); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		log.Info().Str("path", path).Int("rows", len(res.Ledger)).Msg("ledger written")
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printResult(os.Stdout, res, a.cfg.DisplayName)
}

// analyzeRequest overlays the command flags on the configured request.
func analyzeRequest(cmd *cobra.Command, a *app) (analysis.Request, error) {
	req := a.request
	flags := cmd.Flags()

	safe, _ := flags.GetString("safe")
	if safe == "" {
		safe = req.Instruments.Safe
	}
	risky := req.Instruments.Risky
	if v, _ := flags.GetStringSlice("risky"); len(v) > 0 {
		risky = normalizeIDs(v)
	}
	if useWL, _ := flags.GetBool("watchlist"); useWL {
		if !a.watchlist.Ready() {
			return req, fmt.Errorf("watchlist needs at least two symbols, have %d", len(a.watchlist.List()))
		}
		risky = a.watchlist.List()
	}
	req.Instruments.Safe = strings.ToUpper(strings.TrimSpace(safe))
	req = req.WithRisky(risky)

	if v, _ := flags.GetString("benchmark"); v != "" {
		req.Benchmark = strings.ToUpper(strings.TrimSpace(v))
	}
	if v, _ := flags.GetString("start"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return req, fmt.Errorf("invalid --start: %w", err)
		}
		req.Start = t
	}
	if v, _ := flags.GetString("as-of"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return req, fmt.Errorf("invalid --as-of: %w", err)
		}
		req.AsOf = t
	}
	if v, _ := flags.GetString("rule"); v != "" {
		rule, err := strategy.ParseRule(v)
		if err != nil {
			return req, err
		}
		req.Rule = rule
	}
	if v, _ := flags.GetInt("window"); v != 0 {
		req.Window = v
	}
	if v, _ := flags.GetInt("display-months"); v != 0 {
		req.DisplayMonths = v
	}
	return req, req.Validate()
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.ToUpper(strings.TrimSpace(id)); id != "" {
			out = append(out, id)
		}
	}
	return out
}
