package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GemSentinel/internal/model"
)

func TestCollector_ExcludesFailingSymbols(t *testing.T) {
	start := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	m := &MockFetcher{
		Closes: map[string][]model.DailyClose{
			"A":     GenerateMonthlyCloses(start, 1, 2, 3),
			"EMPTY": {},
		},
		Errs: map[string]error{"BROKEN": errors.New("timeout")},
	}
	c := NewCollector(m)
	raw, missing := c.Collect(context.Background(), []string{"A", "BROKEN", "A", "GHOST", "EMPTY", ""}, start, time.Time{})

	assert.Equal(t, []string{"BROKEN", "EMPTY", "GHOST"}, missing)
	require.Contains(t, raw, "A")
	assert.Len(t, raw["A"], 3)
	assert.Equal(t, 4, m.Calls, "duplicates and blanks are not fetched")
}

func TestCollector_AllFailYieldsEmpty(t *testing.T) {
	c := NewCollector(&MockFetcher{})
	raw, missing := c.Collect(context.Background(), []string{"X", "Y"}, time.Now(), time.Time{})
	assert.Empty(t, raw)
	assert.Equal(t, []string{"X", "Y"}, missing)
}

func TestParseCloses(t *testing.T) {
	in := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"2024-01-03,1,1,1,10,9.5,100\n" +
		"2024-01-02,1,1,1,11,null,100\n" +
		"2024-01-04,1,1,1,12,11.5,100\n"
	bars, err := ParseCloses(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 9.5, bars[0].Close)
	assert.Equal(t, 11.5, bars[1].Close)

	_, err = ParseCloses(strings.NewReader("when,price\n"))
	assert.Error(t, err)
}

func TestCSVFetcher(t *testing.T) {
	dir := t.TempDir()
	data := "date,close\n2023-12-29,99\n2024-01-31,100\n2024-02-29,101\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "EUNL.DE.csv"), []byte(data), 0o644))

	f := NewCSVFetcher(dir)
	bars, err := f.FetchDailyCloses(context.Background(), "EUNL.DE", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	assert.Len(t, bars, 2)

	_, err = f.FetchDailyCloses(context.Background(), "MISSING", time.Time{}, time.Time{})
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
}
