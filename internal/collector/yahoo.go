package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"GemSentinel/internal/metrics"
	"GemSentinel/internal/model"
)

const (
	yahooBaseURL   = "https://query2.finance.yahoo.com"
	yahooUserAgent = "Mozilla/5.0"
)

// YahooFetcher implements Fetcher and Searcher using Yahoo Finance public APIs.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	Metrics *metrics.Registry

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy
// support. Requests are limited to rps per second.
func NewYahooFetcher(proxyURL string, rps float64) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if rps <= 0 {
		rps = 2
	}
	st := gobreaker.Settings{
		Name:     "yahoo",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSymbolNotFound) || errors.Is(err, context.Canceled)
		},
	}
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// yahooSearch is the response structure from the Yahoo Finance search API.
type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		LongName  string `json:"longname"`
		ShortName string `json:"shortname"`
		ExchDisp  string `json:"exchDisp"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// FetchDailyCloses returns adjusted daily closes between start and end.
// The adjusted close is used when present, otherwise the raw close; null
// bars are skipped.
func (f *YahooFetcher) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]model.DailyClose, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&includeAdjustedClose=true&events=div%%7Csplit",
		f.BaseURL, url.PathEscape(symbol), start.Unix(), end.Unix())

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	var closes, adj []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]model.DailyClose, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		v := pick(adj, i)
		if v == nil {
			v = pick(closes, i)
		}
		if v == nil || *v <= 0 {
			continue // holidays and halted days come back as null
		}
		bars = append(bars, model.DailyClose{Time: time.Unix(ts, 0).UTC(), Close: *v})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// Search looks up instruments by free text.
func (f *YahooFetcher) Search(ctx context.Context, query string, limit int) ([]model.Quote, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=%d&newsCount=0",
		f.BaseURL, url.QueryEscape(query), limit)

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var res yahooSearch
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("yahoo search decode: %w", err)
	}

	out := make([]model.Quote, 0, len(res.Quotes))
	for _, q := range res.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		out = append(out, model.Quote{Symbol: q.Symbol, Name: name, Exchange: q.ExchDisp, Type: q.QuoteType})
	}
	return out, nil
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := f.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", yahooUserAgent)

		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("yahoo fetch: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("yahoo read body: %w", err)
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			// The chart API reports unknown symbols as 404 with a JSON error body.
			return body, nil
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(body, 200))
		}
		return body, nil
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.Metrics.ObserveFetch(f.Name(), status)
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func pick(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
