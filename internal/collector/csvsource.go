package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"GemSentinel/internal/model"
)

// CSVFetcher reads daily closes from <Dir>/<SYMBOL>.csv files. The files
// need a date column (YYYY-MM-DD) and an "adj close" or "close" column,
// which is the layout of a Yahoo Finance history export.
type CSVFetcher struct {
	Dir string
}

// NewCSVFetcher creates a fetcher for offline price files.
func NewCSVFetcher(dir string) *CSVFetcher {
	return &CSVFetcher{Dir: dir}
}

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) FetchDailyCloses(_ context.Context, symbol string, start, end time.Time) ([]model.DailyClose, error) {
	path := filepath.Join(f.Dir, symbol+".csv")
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("csv %s: %w", symbol, ErrSymbolNotFound)
		}
		return nil, err
	}
	defer file.Close()

	bars, err := ParseCloses(file)
	if err != nil {
		return nil, fmt.Errorf("csv %s: %w", path, err)
	}
	out := bars[:0]
	for _, b := range bars {
		if b.Time.Before(start) || (!end.IsZero() && b.Time.After(end)) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// ParseCloses reads a date/close CSV with a header row. Rows whose price
// does not parse (e.g. "null") are skipped.
func ParseCloses(r io.Reader) ([]model.DailyClose, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateCol, priceCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateCol = i
		case "adj close", "adj_close", "adjclose":
			priceCol = i
		case "close":
			if priceCol < 0 {
				priceCol = i
			}
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return nil, errors.New("header needs date and close columns")
	}

	var bars []model.DailyClose
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateCol >= len(rec) || priceCol >= len(rec) {
			continue
		}
		t, err := time.Parse("2006-01-02", strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", rec[dateCol], err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			continue
		}
		bars = append(bars, model.DailyClose{Time: t, Close: v})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
