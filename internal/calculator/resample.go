package calculator

import (
	"math"
	"sort"
	"time"

	"GemSentinel/internal/model"
)

// DefaultMaxFillMonths is how many consecutive missing months are carried
// forward from the last observed price before a row is dropped.
const DefaultMaxFillMonths = 2

// SeriesOptions controls how raw daily closes become a PriceSeries.
type SeriesOptions struct {
	MaxFillMonths int
	// AsOf drops every observation dated after its calendar day (UTC).
	// Zero means unbounded.
	AsOf time.Time
	// Reference symbols are aligned and forward-filled like the others but
	// never cause a row to be dropped. They land in PriceSeries.Refs.
	Reference []string
}

// MonthEnd returns the last calendar day of t's month, midnight UTC.
func MonthEnd(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// ResampleMonthly keeps the last valid close observed in each calendar
// month, keyed by the month-end date.
func ResampleMonthly(bars []model.DailyClose) map[time.Time]float64 {
	sorted := make([]model.DailyClose, 0, len(bars))
	for _, b := range bars {
		if validPrice(b.Close) {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := make(map[time.Time]float64)
	for _, b := range sorted {
		out[MonthEnd(b.Time)] = b.Close
	}
	return out
}

// BuildSeries resamples every symbol to month-end, aligns them on the union
// of months, forward-fills small gaps and drops rows that are still
// incomplete. Symbols without a single usable price are returned as missing.
func BuildSeries(raw map[string][]model.DailyClose, opts SeriesOptions) (*model.PriceSeries, []string) {
	symbols := make([]string, 0, len(raw))
	for s := range raw {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	isRef := make(map[string]bool, len(opts.Reference))
	for _, s := range opts.Reference {
		isRef[s] = true
	}

	var missing []string
	monthly := make(map[string]map[time.Time]float64, len(symbols))
	months := make(map[time.Time]bool)
	for _, s := range symbols {
		bars := raw[s]
		if !opts.AsOf.IsZero() {
			bars = until(bars, opts.AsOf)
		}
		m := ResampleMonthly(bars)
		if len(m) == 0 {
			missing = append(missing, s)
			continue
		}
		monthly[s] = m
		if isRef[s] {
			continue
		}
		for d := range m {
			months[d] = true
		}
	}

	active := make([]string, 0, len(monthly))
	var refs []string
	for _, s := range symbols {
		if _, ok := monthly[s]; !ok {
			continue
		}
		if isRef[s] {
			refs = append(refs, s)
		} else {
			active = append(active, s)
		}
	}

	axis := make([]time.Time, 0, len(months))
	for d := range months {
		axis = append(axis, d)
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })

	limit := opts.MaxFillMonths
	if limit < 0 {
		limit = 0
	}
	cols := make(map[string][]float64, len(active))
	for _, s := range active {
		cols[s] = forwardFill(monthly[s], axis, limit)
	}

	ps := &model.PriceSeries{Symbols: active, Closes: make(map[string][]float64, len(active))}
	for i, d := range axis {
		complete := true
		for _, s := range active {
			if math.IsNaN(cols[s][i]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		ps.Dates = append(ps.Dates, d)
		for _, s := range active {
			ps.Closes[s] = append(ps.Closes[s], cols[s][i])
		}
	}
	for _, s := range active {
		if ps.Closes[s] == nil {
			ps.Closes[s] = []float64{}
		}
	}

	// Reference columns follow the kept rows and stay NaN where the
	// reference has no price.
	if len(refs) > 0 {
		ps.Refs = make(map[string][]float64, len(refs))
		for _, s := range refs {
			ps.Refs[s] = alignReference(monthly[s], ps.Dates, limit)
		}
	}
	return ps, missing
}

func forwardFill(values map[time.Time]float64, axis []time.Time, limit int) []float64 {
	col := make([]float64, len(axis))
	last := math.NaN()
	gap := 0
	for i, d := range axis {
		if v, ok := values[d]; ok {
			col[i] = v
			last = v
			gap = 0
			continue
		}
		gap++
		if !math.IsNaN(last) && gap <= limit {
			col[i] = last
		} else {
			col[i] = math.NaN()
		}
	}
	return col
}

// alignReference forward-fills values over their own months merged with
// dates and returns the values at dates.
func alignReference(values map[time.Time]float64, dates []time.Time, limit int) []float64 {
	seen := make(map[time.Time]bool, len(values)+len(dates))
	axis := make([]time.Time, 0, len(values)+len(dates))
	for d := range values {
		seen[d] = true
		axis = append(axis, d)
	}
	for _, d := range dates {
		if !seen[d] {
			seen[d] = true
			axis = append(axis, d)
		}
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Before(axis[j]) })

	filled := forwardFill(values, axis, limit)
	at := make(map[time.Time]float64, len(axis))
	for i, d := range axis {
		at[d] = filled[i]
	}
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = at[d]
	}
	return out
}

// until keeps the bars stamped on or before t's calendar day. Daily bars
// carry intraday timestamps, so a bar on that day may be later than t.
func until(bars []model.DailyClose, t time.Time) []model.DailyClose {
	y, m, d := t.UTC().Date()
	cutoff := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	out := make([]model.DailyClose, 0, len(bars))
	for _, b := range bars {
		if b.Time.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
