package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

// WriteLedgerCSV writes the ledger to path.
func WriteLedgerCSV(path string, res *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, res)
}

// EncodeLedgerCSV writes the ledger as CSV to w.
func EncodeLedgerCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"date",
		"held",
		"strategy_ret",
		"equity",
		"benchmark_ret",
		"benchmark_equity",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range res.Ledger {
		row := []string{
			fmtDate(r.Date),
			r.Held,
			fmtFloat(r.StrategyRet),
			fmtFloat(r.Equity),
			fmtFloat(r.BenchmarkRet),
			fmtFloat(r.BenchmarkEquity),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
