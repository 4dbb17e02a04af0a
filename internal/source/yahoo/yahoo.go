// Package yahoo implements the Yahoo Finance data source on top of the
// finance-go client library.
//
// Two behaviors distinguish it from the HTTP adapters. Intraday
// granularities are limited upstream to the trailing week, so a longer
// requested window is silently clamped to the last 7 days with a logged
// warning instead of failing. And where the other adapters pass absent
// optional fields through, the real-time path treats an incomplete
// quote as a hard failure: Yahoo either knows the symbol fully or the
// payload is not trusted at all.
package yahoo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"stockfetch/internal/source"
)

const timestampLayout = "2006-01-02 15:04:05"

// intervals maps granularity tokens onto the library's interval
// vocabulary. Unrecognized tokens fall back to daily.
var intervals = map[string]datetime.Interval{
	"1m":  datetime.OneMin,
	"5m":  datetime.FiveMins,
	"15m": datetime.FifteenMins,
	"30m": datetime.ThirtyMins,
	"60m": datetime.SixtyMins,
	"1h":  datetime.OneHour,
	"1d":  datetime.OneDay,
	"1mo": datetime.OneMonth,
}

// intraday holds the sub-90-minute buckets subject to the 7-day clamp.
var intraday = map[datetime.Interval]bool{
	datetime.OneMin:      true,
	datetime.FiveMins:    true,
	datetime.FifteenMins: true,
	datetime.ThirtyMins:  true,
	datetime.SixtyMins:   true,
	datetime.OneHour:     true,
}

type Source struct {
	history func(symbol string, start, end time.Time, interval datetime.Interval) ([]*finance.ChartBar, error)
	quote   func(symbol string) (*finance.Quote, error)
}

func New() *Source {
	return &Source{history: fetchChart, quote: quote.Get}
}

func (s *Source) Name() string { return "Yahoo Finance" }

func (s *Source) GetHistoricalData(ctx context.Context, symbol, startDate, endDate, interval string) ([]source.Bar, error) {
	start, end, err := source.ParseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	iv, ok := intervals[interval]
	if !ok {
		slog.Warn("unrecognized granularity, defaulting to daily",
			"provider", s.Name(), "interval", interval)
		iv = datetime.OneDay
	}
	if intraday[iv] && end.Sub(start) > 7*24*time.Hour {
		clamped := end.AddDate(0, 0, -7)
		slog.Warn("intraday data limited to the last 7 days, narrowing window",
			"provider", s.Name(), "interval", interval,
			"requested_start", startDate, "effective_start", clamped.Format(source.DateLayout))
		start = clamped
	}

	slog.Info("fetching historical data",
		"provider", s.Name(), "symbol", symbol,
		"start", start.Format(source.DateLayout), "end", endDate, "interval", string(iv))

	bars, err := s.history(symbol, start, end, iv)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", source.ErrAPIFailure, s.Name(), err)
	}
	if len(bars) == 0 {
		slog.Warn("no data found for symbol", "provider", s.Name(), "symbol", symbol)
		return nil, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}

	out := make([]source.Bar, 0, len(bars))
	for _, b := range bars {
		ts := time.Unix(int64(b.Timestamp), 0).UTC()
		out = append(out, source.Bar{
			Date:     ts.Format(timestampLayout),
			Open:     b.Open.InexactFloat64(),
			High:     b.High.InexactFloat64(),
			Low:      b.Low.InexactFloat64(),
			Close:    b.Close.InexactFloat64(),
			Volume:   int64(b.Volume),
			Interval: interval,
			Extra:    map[string]any{"adj_close": b.AdjClose.InexactFloat64()},
		})
	}
	slog.Info("fetched historical data", "provider", s.Name(), "symbol", symbol, "bars", len(out))
	return out, nil
}

func (s *Source) GetRealtimeData(ctx context.Context, symbol string) (source.Quote, error) {
	slog.Info("fetching real-time data", "provider", s.Name(), "symbol", symbol)

	q, err := s.quote(symbol)
	if err != nil {
		return source.Quote{}, fmt.Errorf("%w: %s: %v", source.ErrAPIFailure, s.Name(), err)
	}
	if q == nil {
		slog.Warn("no data found for symbol", "provider", s.Name(), "symbol", symbol)
		return source.Quote{}, fmt.Errorf("%w: %s", source.ErrInvalidSymbol, symbol)
	}
	// Completeness gate: a known symbol always carries a market price
	// and a market time. Anything less is not served as a partial quote.
	if q.RegularMarketPrice == 0 || q.RegularMarketTime == 0 {
		return source.Quote{}, fmt.Errorf("%w: %s: incomplete quote for %s", source.ErrDataSource, s.Name(), symbol)
	}

	return source.Quote{
		Symbol:        symbol,
		Price:         q.RegularMarketPrice,
		Change:        q.RegularMarketChange,
		ChangePercent: q.RegularMarketChangePercent,
		Volume:        int64(q.RegularMarketVolume),
		LastUpdated:   time.Unix(int64(q.RegularMarketTime), 0).UTC().Format(timestampLayout),
		Extra: map[string]any{
			"previous_close":      q.RegularMarketPreviousClose,
			"fifty_two_week_low":  q.FiftyTwoWeekLow,
			"fifty_two_week_high": q.FiftyTwoWeekHigh,
			"bid":                 q.Bid,
			"ask":                 q.Ask,
		},
	}, nil
}

func fetchChart(symbol string, start, end time.Time, interval datetime.Interval) ([]*finance.ChartBar, error) {
	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: interval,
	})
	var bars []*finance.ChartBar
	for iter.Next() {
		bars = append(bars, iter.Bar())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}
