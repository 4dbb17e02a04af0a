// Package iexcloud implements the IEX Cloud data source.
//
// IEX returns a flat list of bar objects, so there is no time-series
// dictionary keying: required fields are read by direct key access and
// only missing-key / wrong-type failures map to source.ErrDataSource.
// Optional enrichment fields pass through silently when absent. The
// granularity token is forwarded untouched and defaults to daily.
package iexcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"stockfetch/internal/source"
)

const defaultBaseURL = "https://cloud.iexapis.com/stable"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Source struct {
	cfg    Config
	client *resty.Client
}

func New(cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := resty.New().SetBaseURL(cfg.BaseURL).SetHeader("User-Agent", "stockfetch/1.0")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Source{cfg: cfg, client: client}
}

func (s *Source) Name() string { return "IEX Cloud" }

// optionalBarFields are enrichment keys copied into Bar.Extra when the
// upstream includes them.
var optionalBarFields = map[string]string{
	"change":           "change",
	"changePercent":    "change_percent",
	"vwap":             "vwap",
	"unadjustedVolume": "unadjusted_volume",
	"marketCap":        "market_cap",
}

func (s *Source) GetHistoricalData(ctx context.Context, symbol, startDate, endDate, interval string) ([]source.Bar, error) {
	if _, _, err := source.ParseRange(startDate, endDate); err != nil {
		return nil, err
	}
	if interval == "" {
		interval = "1d"
	}

	slog.Info("fetching historical data",
		"provider", s.Name(), "symbol", symbol,
		"start", startDate, "end", endDate, "interval", interval)

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"token":         s.cfg.APIKey,
			"from":          startDate,
			"to":            endDate,
			"chartInterval": interval,
		}).
		Get(fmt.Sprintf("/stock/%s/chart/range", url.PathEscape(symbol)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrAPIFailure, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: GET %s -> %d", source.ErrAPIFailure, resp.Request.URL, resp.StatusCode())
	}

	var rows []map[string]any
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", source.ErrDataSource, err)
	}
	if len(rows) == 0 {
		slog.Warn("no data found for symbol", "provider", s.Name(), "symbol", symbol)
		return nil, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}

	bars := make([]source.Bar, 0, len(rows))
	for _, row := range rows {
		bar := source.Bar{Interval: interval}
		if bar.Date, err = stringKey(row, "date"); err != nil {
			return nil, err
		}
		if bar.Open, err = floatKey(row, "open"); err != nil {
			return nil, err
		}
		if bar.High, err = floatKey(row, "high"); err != nil {
			return nil, err
		}
		if bar.Low, err = floatKey(row, "low"); err != nil {
			return nil, err
		}
		if bar.Close, err = floatKey(row, "close"); err != nil {
			return nil, err
		}
		if bar.Volume, err = intKey(row, "volume"); err != nil {
			return nil, err
		}
		for key, name := range optionalBarFields {
			if v, ok := row[key]; ok && v != nil {
				if bar.Extra == nil {
					bar.Extra = map[string]any{}
				}
				bar.Extra[name] = v
			}
		}
		bars = append(bars, bar)
	}

	slog.Info("fetched historical data", "provider", s.Name(), "symbol", symbol, "bars", len(bars))
	return bars, nil
}

func (s *Source) GetRealtimeData(ctx context.Context, symbol string) (source.Quote, error) {
	slog.Info("fetching real-time data", "provider", s.Name(), "symbol", symbol)

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("token", s.cfg.APIKey).
		Get(fmt.Sprintf("/stock/%s/quote", url.PathEscape(symbol)))
	if err != nil {
		return source.Quote{}, fmt.Errorf("%w: %v", source.ErrAPIFailure, err)
	}
	if resp.IsError() {
		return source.Quote{}, fmt.Errorf("%w: GET %s -> %d", source.ErrAPIFailure, resp.Request.URL, resp.StatusCode())
	}

	var data map[string]any
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return source.Quote{}, fmt.Errorf("%w: decode: %v", source.ErrDataSource, err)
	}
	if len(data) == 0 {
		slog.Warn("no data found for symbol", "provider", s.Name(), "symbol", symbol)
		return source.Quote{}, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}

	quote := source.Quote{Extra: map[string]any{}}
	if quote.Symbol, err = stringKey(data, "symbol"); err != nil {
		return source.Quote{}, err
	}
	if quote.Price, err = floatKey(data, "latestPrice"); err != nil {
		return source.Quote{}, err
	}
	if quote.Change, err = floatKey(data, "change"); err != nil {
		return source.Quote{}, err
	}
	if quote.ChangePercent, err = floatKey(data, "changePercent"); err != nil {
		return source.Quote{}, err
	}
	if quote.Volume, err = intKey(data, "volume"); err != nil {
		return source.Quote{}, err
	}
	updated, err := floatKey(data, "latestUpdate")
	if err != nil {
		return source.Quote{}, err
	}
	quote.LastUpdated = fmt.Sprintf("%d", int64(updated))

	for key, name := range map[string]string{
		"open":          "open",
		"high":          "high",
		"low":           "low",
		"previousClose": "previous_close",
		"marketCap":     "market_cap",
		"peRatio":       "pe_ratio",
		"week52High":    "week_52_high",
		"week52Low":     "week_52_low",
		"ytdChange":     "ytd_change",
	} {
		v, err := anyKey(data, key)
		if err != nil {
			return source.Quote{}, err
		}
		quote.Extra[name] = v
	}
	// Bid/ask depth is optional and absent outside market hours.
	for key, name := range map[string]string{
		"iexBidPrice": "bid",
		"iexAskPrice": "ask",
		"iexBidSize":  "bid_size",
		"iexAskSize":  "ask_size",
	} {
		if v, ok := data[key]; ok && v != nil {
			quote.Extra[name] = v
		}
	}
	return quote, nil
}

func anyKey(data map[string]any, key string) (any, error) {
	v, ok := data[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing key %q", source.ErrDataSource, key)
	}
	return v, nil
}

func stringKey(data map[string]any, key string) (string, error) {
	v, err := anyKey(data, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: key %q: want string, got %T", source.ErrDataSource, key, v)
	}
	return s, nil
}

func floatKey(data map[string]any, key string) (float64, error) {
	v, err := anyKey(data, key)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: key %q: want number, got %T", source.ErrDataSource, key, v)
	}
	return f, nil
}

func intKey(data map[string]any, key string) (int64, error) {
	f, err := floatKey(data, key)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
