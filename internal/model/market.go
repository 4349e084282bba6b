package model

import "time"

// DailyClose is a single adjusted closing price observation.
type DailyClose struct {
	Time  time.Time
	Close float64
}

// PriceSeries is a cleaned month-end price table.
// Dates are strictly increasing and every symbol in Symbols has a finite,
// positive price on every date. Refs holds comparison columns aligned to
// Dates that may be NaN where the reference had no price; they never
// take part in momentum or ranking.
type PriceSeries struct {
	Dates   []time.Time
	Symbols []string
	Closes  map[string][]float64
	Refs    map[string][]float64
}

// Len returns the number of month-end rows.
func (p *PriceSeries) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Dates)
}

// Empty reports whether there is nothing to compute on.
func (p *PriceSeries) Empty() bool {
	return p.Len() == 0 || len(p.Symbols) == 0
}

// Has reports whether the symbol is an active column.
func (p *PriceSeries) Has(symbol string) bool {
	if p == nil {
		return false
	}
	_, ok := p.Closes[symbol]
	return ok
}

// Column returns the price column for symbol, or nil.
func (p *PriceSeries) Column(symbol string) []float64 {
	if p == nil {
		return nil
	}
	return p.Closes[symbol]
}

// Reference returns the column for symbol from Closes or Refs, or nil.
func (p *PriceSeries) Reference(symbol string) []float64 {
	if p == nil {
		return nil
	}
	if col, ok := p.Closes[symbol]; ok {
		return col
	}
	return p.Refs[symbol]
}

// HasReference reports whether symbol is an active or reference column.
func (p *PriceSeries) HasReference(symbol string) bool {
	if p == nil {
		return false
	}
	if _, ok := p.Refs[symbol]; ok {
		return true
	}
	return p.Has(symbol)
}

// IndexOf returns the row index of date, or -1.
func (p *PriceSeries) IndexOf(date time.Time) int {
	for i, d := range p.Dates {
		if d.Equal(date) {
			return i
		}
	}
	return -1
}

// Head returns a copy holding the first n rows.
func (p *PriceSeries) Head(n int) *PriceSeries {
	if n > p.Len() {
		n = p.Len()
	}
	if n < 0 {
		n = 0
	}
	out := &PriceSeries{
		Dates:   append([]time.Time(nil), p.Dates[:n]...),
		Symbols: append([]string(nil), p.Symbols...),
		Closes:  make(map[string][]float64, len(p.Closes)),
	}
	for s, col := range p.Closes {
		out.Closes[s] = append([]float64(nil), col[:n]...)
	}
	if p.Refs != nil {
		out.Refs = make(map[string][]float64, len(p.Refs))
		for s, col := range p.Refs {
			out.Refs[s] = append([]float64(nil), col[:n]...)
		}
	}
	return out
}

// Until returns the rows dated on or before t.
func (p *PriceSeries) Until(t time.Time) *PriceSeries {
	n := 0
	for n < p.Len() && !p.Dates[n].After(t) {
		n++
	}
	return p.Head(n)
}
