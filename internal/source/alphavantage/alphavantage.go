// Package alphavantage implements the Alpha Vantage data source.
//
// Alpha Vantage is the strict outlier among the adapters: the
// granularity token must map onto one of its API "function" modes, and
// an unknown token fails with source.ErrInvalidInterval before any
// request is issued instead of falling back to daily.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockfetch/internal/source"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// HTTPClient is the transport dependency, satisfied by *httpx.Client.
//
//go:generate mockgen -package=alphavantage_test -destination=mock_http_client_test.go -source=alphavantage.go HTTPClient
type HTTPClient interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL string
	APIKey  string
}

type Source struct {
	cfg    Config
	client HTTPClient
}

func New(cfg Config, client HTTPClient) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Source{cfg: cfg, client: client}
}

func (s *Source) Name() string { return "Alpha Vantage" }

// intervalFunctions maps the granularity token onto the upstream
// "function" mode. All intraday buckets share one mode.
var intervalFunctions = map[string]string{
	"1min":    "TIME_SERIES_INTRADAY",
	"5min":    "TIME_SERIES_INTRADAY",
	"15min":   "TIME_SERIES_INTRADAY",
	"30min":   "TIME_SERIES_INTRADAY",
	"60min":   "TIME_SERIES_INTRADAY",
	"daily":   "TIME_SERIES_DAILY",
	"weekly":  "TIME_SERIES_WEEKLY",
	"monthly": "TIME_SERIES_MONTHLY",
}

// seriesKeys selects the response dictionary key per function mode.
var seriesKeys = map[string]string{
	"TIME_SERIES_INTRADAY": "Time Series (1min)",
	"TIME_SERIES_DAILY":    "Time Series (Daily)",
	"TIME_SERIES_WEEKLY":   "Weekly Time Series",
	"TIME_SERIES_MONTHLY":  "Monthly Time Series",
}

func (s *Source) GetHistoricalData(ctx context.Context, symbol, startDate, endDate, interval string) ([]source.Bar, error) {
	start, end, err := source.ParseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	function, ok := intervalFunctions[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %q", source.ErrInvalidInterval, interval)
	}

	slog.Info("fetching historical data",
		"provider", s.Name(), "symbol", symbol,
		"start", startDate, "end", endDate, "interval", interval)

	payload, err := s.query(ctx, url.Values{
		"function":   {function},
		"symbol":     {symbol},
		"apikey":     {s.cfg.APIKey},
		"outputsize": {"full"},
	})
	if err != nil {
		return nil, err
	}

	raw, ok := payload[seriesKeys[function]]
	if !ok {
		slog.Warn("no data found for symbol", "provider", s.Name(), "symbol", symbol)
		return nil, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("%w: time series: %v", source.ErrDataSource, err)
	}

	bars := make([]source.Bar, 0, len(series))
	for date, values := range series {
		day, err := time.Parse(source.DateLayout, dayPrefix(date))
		if err != nil {
			return nil, fmt.Errorf("%w: bar date %q: %v", source.ErrDataSource, date, err)
		}
		// Range inclusion is tested against the 10-char day prefix, so
		// intraday rows on the end day are all included.
		if day.Before(start) || day.After(end) {
			continue
		}
		bar := source.Bar{Date: date, Interval: interval}
		if bar.Open, err = floatField(values, "1. open"); err != nil {
			return nil, err
		}
		if bar.High, err = floatField(values, "2. high"); err != nil {
			return nil, err
		}
		if bar.Low, err = floatField(values, "3. low"); err != nil {
			return nil, err
		}
		if bar.Close, err = floatField(values, "4. close"); err != nil {
			return nil, err
		}
		if bar.Volume, err = intField(values, "5. volume"); err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	// The upstream object is keyed by date; JSON object order is not
	// preserved through a Go map, so restore ascending time order.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	slog.Info("fetched historical data", "provider", s.Name(), "symbol", symbol, "bars", len(bars))
	return bars, nil
}

func (s *Source) GetRealtimeData(ctx context.Context, symbol string) (source.Quote, error) {
	slog.Info("fetching real-time data", "provider", s.Name(), "symbol", symbol)

	payload, err := s.query(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
		"apikey":   {s.cfg.APIKey},
	})
	if err != nil {
		return source.Quote{}, err
	}

	raw, ok := payload["Global Quote"]
	if !ok {
		slog.Warn("no data found for symbol", "provider", s.Name(), "symbol", symbol)
		return source.Quote{}, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}
	var gq map[string]string
	if err := json.Unmarshal(raw, &gq); err != nil {
		return source.Quote{}, fmt.Errorf("%w: global quote: %v", source.ErrDataSource, err)
	}
	if len(gq) == 0 {
		return source.Quote{}, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}

	quote := source.Quote{Symbol: symbol}
	if quote.Price, err = floatField(gq, "05. price"); err != nil {
		return source.Quote{}, err
	}
	if quote.Change, err = floatField(gq, "09. change"); err != nil {
		return source.Quote{}, err
	}
	pct, err := stringField(gq, "10. change percent")
	if err != nil {
		return source.Quote{}, err
	}
	if quote.ChangePercent, err = parseFloat("10. change percent", strings.TrimSuffix(pct, "%")); err != nil {
		return source.Quote{}, err
	}
	if quote.Volume, err = intField(gq, "06. volume"); err != nil {
		return source.Quote{}, err
	}
	if quote.LastUpdated, err = stringField(gq, "07. latest trading day"); err != nil {
		return source.Quote{}, err
	}

	quote.Extra = map[string]any{}
	for name, key := range map[string]string{
		"open":           "02. open",
		"high":           "03. high",
		"low":            "04. low",
		"previous_close": "08. previous close",
	} {
		v, err := floatField(gq, key)
		if err != nil {
			return source.Quote{}, err
		}
		quote.Extra[name] = v
	}
	return quote, nil
}

// query issues one GET against the base URL and decodes the top-level
// JSON object, leaving the values raw for mode-specific decoding.
func (s *Source) query(ctx context.Context, params url.Values) (map[string]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrAPIFailure, err)
	}
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrAPIFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("%w: %s -> %d: %s", source.ErrAPIFailure, s.cfg.BaseURL, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", source.ErrDataSource, err)
	}
	return payload, nil
}

// dayPrefix strips a time-of-day suffix from an intraday timestamp
// before range comparison.
func dayPrefix(date string) string {
	if len(date) > 10 {
		return date[:10]
	}
	return date
}

func stringField(values map[string]string, key string) (string, error) {
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", source.ErrDataSource, key)
	}
	return v, nil
}

func floatField(values map[string]string, key string) (float64, error) {
	v, err := stringField(values, key)
	if err != nil {
		return 0, err
	}
	return parseFloat(key, v)
}

func parseFloat(key, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %v", source.ErrDataSource, key, err)
	}
	return f, nil
}

func intField(values map[string]string, key string) (int64, error) {
	v, err := stringField(values, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q: %v", source.ErrDataSource, key, err)
	}
	return n, nil
}
