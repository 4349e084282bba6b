package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"GemSentinel/internal/analysis"
	"GemSentinel/internal/backtest"
	"GemSentinel/internal/model"
	"GemSentinel/internal/notifier"
)

// printResult renders an analysis as aligned plain text.
func printResult(out io.Writer, res *analysis.Result, name func(string) string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Status:\t%s\n", res.Status)
	fmt.Fprintf(w, "Rule:\t%s, %d-month window\n", res.Rule, res.Window)
	fmt.Fprintf(w, "Risky:\t%s\n", strings.Join(res.Instruments.Risky, ", "))
	fmt.Fprintf(w, "Safe:\t%s\n", res.Instruments.Safe)
	if res.Benchmark != "" {
		fmt.Fprintf(w, "Benchmark:\t%s\n", res.Benchmark)
	}
	if len(res.Missing) > 0 {
		fmt.Fprintf(w, "Missing:\t%s\n", strings.Join(res.Missing, ", "))
	}
	if res.Status != analysis.StatusOK {
		return w.Flush()
	}

	fmt.Fprintf(w, "As of:\t%s\n", res.AsOf.Format("2006-01-02"))
	if d := res.Current; d != nil && d.Decided {
		fmt.Fprintf(w, "Hold next month:\t%s (%s)\n", d.Instrument, name(d.Instrument))
		fmt.Fprintf(w, "Reason:\t%s\n", notifier.ReasonText(d.Reason))
		fmt.Fprintf(w, "Best risky:\t%s %s\n", d.BestRisky, notifier.FormatPercent(d.BestValue))
		fmt.Fprintf(w, "Safe momentum:\t%s\n", notifier.FormatPercent(d.SafeValue))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "\tStrategy\tBenchmark")
	printSummary(w, res.Summary)
	if n := len(res.Ledger); n > 0 {
		last := res.Ledger[n-1]
		bench := "-"
		if res.Benchmark != "" {
			bench = notifier.FormatMoney(last.BenchmarkEquity)
		}
		fmt.Fprintf(w, "Equity\t%s\t%s\n", notifier.FormatMoney(last.Equity), bench)
	}
	fmt.Fprintln(w)

	if n := len(res.Ranks); n > 0 {
		printRanks(w, res.Ranks[n-1])
	}
	return w.Flush()
}

func printSummary(w io.Writer, s backtest.Summary) {
	bench := func(f func(backtest.Metrics) string) string {
		if s.Benchmark == nil {
			return "-"
		}
		return f(*s.Benchmark)
	}
	fmt.Fprintf(w, "Period\t%s .. %s (%d months)\t\n",
		s.Strategy.Start.Format("2006-01"), s.Strategy.End.Format("2006-01"), s.Strategy.Months)
	fmt.Fprintf(w, "Total return\t%s\t%s\n", notifier.FormatPercent(s.Strategy.TotalReturn),
		bench(func(m backtest.Metrics) string { return notifier.FormatPercent(m.TotalReturn) }))
	fmt.Fprintf(w, "Max drawdown\t%s\t%s\n", notifier.FormatPercent(s.Strategy.MaxDrawdown),
		bench(func(m backtest.Metrics) string { return notifier.FormatPercent(m.MaxDrawdown) }))
	fmt.Fprintf(w, "Sharpe\t%.2f\t%s\n", s.Strategy.Sharpe,
		bench(func(m backtest.Metrics) string { return fmt.Sprintf("%.2f", m.Sharpe) }))
}

func printRanks(w io.Writer, snap model.RankSnapshot) {
	fmt.Fprintf(w, "Ranking %s\tMomentum\tMove\n", snap.Date.Format("2006-01-02"))
	for _, e := range snap.Entries {
		fmt.Fprintf(w, "%d. %s\t%s\t%s\n", e.Rank, e.Instrument, notifier.FormatPercent(e.Value), e.Movement)
	}
}
