// Package investing implements the Investing.com data source as a
// synthetic generator: a seeded random walk stands in for the upstream
// feed. The granularity token is ignored by the generator; the contract
// is exactly one bar per calendar day in the requested range.
package investing

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"stockfetch/internal/source"
)

type Source struct{}

func New() *Source { return &Source{} }

func (s *Source) Name() string { return "Investing.com" }

func (s *Source) GetHistoricalData(ctx context.Context, symbol, startDate, endDate, interval string) ([]source.Bar, error) {
	start, end, err := source.ParseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	slog.Info("generating mock historical data",
		"provider", s.Name(), "symbol", symbol, "start", startDate, "end", endDate)

	base := uniform(50, 200)
	var bars []source.Bar
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		price := base + uniform(-5, 5)
		bar := source.Bar{
			Date:     day.Format(source.DateLayout),
			Open:     round2(price),
			High:     round2(price * (1 + uniform(0, 0.02))),
			Low:      round2(price * (1 - uniform(0, 0.02))),
			Close:    round2(price * (1 + uniform(-0.01, 0.01))),
			Volume:   100000 + rand.Int64N(900001),
			Interval: interval,
		}
		bars = append(bars, bar)
		// The walk continues from the generated close.
		base = bar.Close
	}

	slog.Info("generated mock historical data", "provider", s.Name(), "symbol", symbol, "bars", len(bars))
	return bars, nil
}

func (s *Source) GetRealtimeData(ctx context.Context, symbol string) (source.Quote, error) {
	if symbol == "" {
		return source.Quote{}, fmt.Errorf("%w: empty symbol", source.ErrInvalidSymbol)
	}

	slog.Info("generating mock real-time data", "provider", s.Name(), "symbol", symbol)

	price := uniform(50, 200)
	change := uniform(-5, 5)
	return source.Quote{
		Symbol:        symbol,
		Price:         round2(price),
		Change:        round2(change),
		ChangePercent: round2(change / price * 100),
		Volume:        100000 + rand.Int64N(900001),
		LastUpdated:   time.Now().Format(time.RFC3339),
	}, nil
}

func uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*rand.Float64()
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
