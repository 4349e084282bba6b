package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"GemSentinel/internal/analysis"
	"GemSentinel/internal/backtest"
	"GemSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// Namer resolves an instrument ID to a display name.
type Namer func(id string) string

func (n Namer) name(id string) string {
	if n == nil {
		return id
	}
	return n(id)
}

// FormatSignalReport formats the monthly signal into a Telegram message.
func FormatSignalReport(res *analysis.Result, names Namer) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>GEM signal</b> | as of %s\n\n", asOf(res)))

	switch res.Status {
	case analysis.StatusNoSafeData:
		b.WriteString(fmt.Sprintf("⚠️ No prices for the safe instrument %s, no signal can be generated.\n",
			code(res.Instruments.Safe)))
		writeMissing(&b, res.Missing)
		return b.String()
	case analysis.StatusInsufficientData:
		b.WriteString(fmt.Sprintf("⚠️ Insufficient data: at least %d months of complete history are needed.\n", res.Window+1))
		writeMissing(&b, res.Missing)
		return b.String()
	}

	if cur := res.Current; cur != nil {
		b.WriteString(fmt.Sprintf("🎯 <b>Hold next month:</b> %s (%s)\n", code(cur.Instrument), html.EscapeString(names.name(cur.Instrument))))
		b.WriteString(fmt.Sprintf("   %s\n", ReasonText(cur.Reason)))
		if prev := previousHolding(res); prev != "" && prev != cur.Instrument {
			b.WriteString(fmt.Sprintf("   🔁 switch from %s\n", code(prev)))
		}
	}
	if res.Rule != "dual" {
		b.WriteString("   ⚠️ relative-only rule: the absolute momentum filter is off\n")
	}

	b.WriteString(fmt.Sprintf("\n📈 <b>%d-month momentum:</b>\n", res.Window))
	for i, id := range sortedByValue(res.Momentum) {
		marker := ""
		if id == res.Instruments.Safe {
			marker = " (safe)"
		}
		b.WriteString(fmt.Sprintf("  %d. %s %s%s\n", i+1, code(id), FormatPercent(res.Momentum[id]), marker))
	}

	s := res.Summary.Strategy
	b.WriteString(fmt.Sprintf("\n💰 <b>Strategy</b> %s → %s\n", s.Start.Format(dateLayout), s.End.Format(dateLayout)))
	writeMetrics(&b, s)
	if n := len(res.Ledger); n > 0 {
		b.WriteString(fmt.Sprintf("   Equity: %s\n", FormatMoney(res.Ledger[n-1].Equity)))
	}
	if bm := res.Summary.Benchmark; bm != nil {
		b.WriteString(fmt.Sprintf("\n📉 <b>Benchmark</b> %s\n", code(res.Benchmark)))
		writeMetrics(&b, *bm)
	}

	writeMissing(&b, res.Missing)
	return b.String()
}

// FormatRankDigest formats the rank history with movement arrows.
func FormatRankDigest(res *analysis.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏁 <b>Momentum ranking</b> | %d-month window\n", res.Window))
	if len(res.Ranks) == 0 {
		b.WriteString("\nNo ranking available yet.\n")
		writeMissing(&b, res.Missing)
		return b.String()
	}
	for _, snap := range res.Ranks {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", snap.Date.Format(dateLayout)))
		if len(snap.Entries) == 0 {
			b.WriteString("  –\n")
			continue
		}
		for _, e := range snap.Entries {
			b.WriteString(fmt.Sprintf("  %d. %s %s %s\n", e.Rank, code(e.Instrument), FormatPercent(e.Value), e.Movement))
		}
	}
	writeMissing(&b, res.Missing)
	return b.String()
}

// FormatWatchlist formats the selected instruments.
func FormatWatchlist(symbols []string, ready bool) string {
	var b strings.Builder
	b.WriteString("📋 <b>Watchlist</b>\n\n")
	if len(symbols) == 0 {
		b.WriteString("Empty. Add instruments with /add SYMBOL.\n")
		return b.String()
	}
	for i, s := range symbols {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, code(s)))
	}
	if !ready {
		b.WriteString("\nAdd at least one more instrument to compare.\n")
	}
	return b.String()
}

// FormatSearchResults formats instrument search hits.
func FormatSearchResults(query string, quotes []model.Quote) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>Search:</b> %s\n\n", html.EscapeString(query)))
	if len(quotes) == 0 {
		b.WriteString("No instruments found.\n")
		return b.String()
	}
	for _, q := range quotes {
		b.WriteString(fmt.Sprintf("%s %s", code(q.Symbol), html.EscapeString(q.Name)))
		if q.Exchange != "" || q.Type != "" {
			b.WriteString(fmt.Sprintf(" (%s)", html.EscapeString(strings.Trim(q.Exchange+" "+q.Type, " "))))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nTip: prefer .DE (Xetra) or .AS (Amsterdam) listings.\n")
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return "🤖 <b>GemSentinel commands</b>\n\n" +
		"/signal – current dual-momentum signal\n" +
		"/rank – recent momentum ranking\n" +
		"/list – show the watchlist\n" +
		"/add SYMBOL – add to the watchlist\n" +
		"/remove SYMBOL – remove from the watchlist\n" +
		"/search TEXT – look up instruments\n" +
		"/help – this message\n"
}

// FormatError formats a failed action for the chat.
func FormatError(action string, err error) string {
	return fmt.Sprintf("❌ %s failed: %s", html.EscapeString(action), html.EscapeString(err.Error()))
}

// ReasonText explains a decision reason in words.
func ReasonText(r model.Reason) string {
	switch r {
	case model.ReasonRiskyLeads:
		return "strongest risky momentum beats the safe instrument"
	case model.ReasonSafeLeads:
		return "safe instrument momentum is at least as strong as every risky one"
	case model.ReasonNotPositive:
		return "best risky momentum is not positive (absolute filter)"
	default:
		return "no momentum data"
	}
}

// FormatPercent renders a fraction as a signed percentage, e.g. +12.3%.
func FormatPercent(v float64) string {
	d := decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100))
	sign := ""
	if d.IsPositive() {
		sign = "+"
	}
	return sign + d.StringFixed(1) + "%"
}

// FormatMoney renders an amount in euros with thousands separators.
func FormatMoney(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := "€" + b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func writeMetrics(b *strings.Builder, m backtest.Metrics) {
	b.WriteString(fmt.Sprintf("   Total return: %s | Max drawdown: %s | Sharpe: %s\n",
		FormatPercent(m.TotalReturn), FormatPercent(m.MaxDrawdown), decimal.NewFromFloat(m.Sharpe).StringFixed(2)))
}

func writeMissing(b *strings.Builder, missing []string) {
	if len(missing) == 0 {
		return
	}
	codes := make([]string, len(missing))
	for i, m := range missing {
		codes[i] = code(m)
	}
	b.WriteString(fmt.Sprintf("\n⚠️ No data for: %s\n", strings.Join(codes, ", ")))
}

func previousHolding(res *analysis.Result) string {
	n := len(res.Decisions)
	if n < 2 || !res.Decisions[n-2].Decided {
		return ""
	}
	return res.Decisions[n-2].Instrument
}

func sortedByValue(values map[string]float64) []string {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if values[ids[i]] != values[ids[j]] {
			return values[ids[i]] > values[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func code(s string) string {
	return "<code>" + html.EscapeString(s) + "</code>"
}

func asOf(res *analysis.Result) string {
	if res.AsOf.IsZero() {
		return "n/a"
	}
	return res.AsOf.Format(dateLayout)
}
