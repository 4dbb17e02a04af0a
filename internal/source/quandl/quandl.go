// Package quandl implements the Quandl (WIKI datasets) data source.
//
// Quandl returns tabular data: a column-name list plus positional rows.
// Every field access resolves its column index by name against the
// returned header, so reordered upstream columns still normalize
// correctly. Quandl has no real-time feed; GetRealtimeData returns the
// most recent historical row as a substitute quote. That degradation is
// deliberate, not a bug.
package quandl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"stockfetch/internal/httpx"
	"stockfetch/internal/source"
)

const defaultBaseURL = "https://www.quandl.com/api/v3/datasets"

type Config struct {
	BaseURL string
	APIKey  string
}

type Source struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, client *httpx.Client) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Source{cfg: cfg, client: client}
}

func (s *Source) Name() string { return "Quandl" }

type dataset struct {
	ColumnNames []string `json:"column_names"`
	Data        [][]any  `json:"data"`
}

func (s *Source) GetHistoricalData(ctx context.Context, symbol, startDate, endDate, interval string) ([]source.Bar, error) {
	if _, _, err := source.ParseRange(startDate, endDate); err != nil {
		return nil, err
	}

	slog.Info("fetching historical data",
		"provider", s.Name(), "symbol", symbol,
		"start", startDate, "end", endDate, "interval", interval)

	params := url.Values{
		"api_key":    {s.cfg.APIKey},
		"start_date": {startDate},
		"end_date":   {endDate},
	}
	// Granularity rides through as the upstream collapse parameter with
	// no local validation.
	if interval != "" {
		params.Set("collapse", interval)
	}
	ds, err := s.fetchDataset(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	if len(ds.Data) == 0 {
		slog.Warn("no data found for symbol", "provider", s.Name(), "symbol", symbol)
		return nil, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}

	bars := make([]source.Bar, 0, len(ds.Data))
	for _, row := range ds.Data {
		bar, err := barFromRow(ds.ColumnNames, row, interval)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	// Upstream rows arrive newest first; the contract is ascending.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	slog.Info("fetched historical data", "provider", s.Name(), "symbol", symbol, "bars", len(bars))
	return bars, nil
}

func (s *Source) GetRealtimeData(ctx context.Context, symbol string) (source.Quote, error) {
	slog.Info("fetching latest data", "provider", s.Name(), "symbol", symbol)

	ds, err := s.fetchDataset(ctx, symbol, url.Values{
		"api_key": {s.cfg.APIKey},
		"limit":   {"1"},
	})
	if err != nil {
		return source.Quote{}, err
	}
	if len(ds.Data) == 0 {
		slog.Warn("no data found for symbol", "provider", s.Name(), "symbol", symbol)
		return source.Quote{}, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}

	// Substitute quote from the most recent row: price is the close,
	// change is measured against that row's open.
	row := ds.Data[0]
	date, err := stringCell(ds.ColumnNames, row, "Date")
	if err != nil {
		return source.Quote{}, err
	}
	open, err := floatCell(ds.ColumnNames, row, "Open")
	if err != nil {
		return source.Quote{}, err
	}
	closing, err := floatCell(ds.ColumnNames, row, "Close")
	if err != nil {
		return source.Quote{}, err
	}
	volume, err := intCell(ds.ColumnNames, row, "Volume")
	if err != nil {
		return source.Quote{}, err
	}
	change := closing - open
	var changePercent float64
	if open != 0 {
		changePercent = change / open * 100
	}
	slog.Info("substituting latest historical row for real-time quote", "provider", s.Name(), "symbol", symbol, "date", date)
	return source.Quote{
		Symbol:        symbol,
		Price:         closing,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        volume,
		LastUpdated:   date,
	}, nil
}

func (s *Source) fetchDataset(ctx context.Context, symbol string, params url.Values) (*dataset, error) {
	endpoint := fmt.Sprintf("%s/WIKI/%s.json?%s", s.cfg.BaseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
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
		return nil, fmt.Errorf("%w: GET %s -> %d: %s", source.ErrAPIFailure, endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var body struct {
		Dataset *dataset `json:"dataset"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", source.ErrDataSource, err)
	}
	if body.Dataset == nil || body.Dataset.Data == nil {
		return nil, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}
	return body.Dataset, nil
}

func barFromRow(columns []string, row []any, interval string) (source.Bar, error) {
	var bar source.Bar
	var err error
	if bar.Date, err = stringCell(columns, row, "Date"); err != nil {
		return source.Bar{}, err
	}
	if bar.Open, err = floatCell(columns, row, "Open"); err != nil {
		return source.Bar{}, err
	}
	if bar.High, err = floatCell(columns, row, "High"); err != nil {
		return source.Bar{}, err
	}
	if bar.Low, err = floatCell(columns, row, "Low"); err != nil {
		return source.Bar{}, err
	}
	if bar.Close, err = floatCell(columns, row, "Close"); err != nil {
		return source.Bar{}, err
	}
	if bar.Volume, err = intCell(columns, row, "Volume"); err != nil {
		return source.Bar{}, err
	}
	bar.Interval = interval
	return bar, nil
}

// cell looks a field up by column name in a positional row. The index
// is re-resolved on every access; the header is authoritative.
func cell(columns []string, row []any, name string) (any, error) {
	for i, c := range columns {
		if c != name {
			continue
		}
		if i >= len(row) {
			return nil, fmt.Errorf("%w: row shorter than header at column %q", source.ErrDataSource, name)
		}
		return row[i], nil
	}
	return nil, fmt.Errorf("%w: missing column %q", source.ErrDataSource, name)
}

func stringCell(columns []string, row []any, name string) (string, error) {
	v, err := cell(columns, row, name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: column %q: want string, got %T", source.ErrDataSource, name, v)
	}
	return s, nil
}

func floatCell(columns []string, row []any, name string) (float64, error) {
	v, err := cell(columns, row, name)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: column %q: want number, got %T", source.ErrDataSource, name, v)
	}
	return f, nil
}

func intCell(columns []string, row []any, name string) (int64, error) {
	f, err := floatCell(columns, row, name)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
