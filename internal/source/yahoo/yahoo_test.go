package yahoo

import (
	"errors"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockfetch/internal/source"
)

func chartBar(ts int64, open, high, low, closing float64, volume int) *finance.ChartBar {
	return &finance.ChartBar{
		Open:      decimal.NewFromFloat(open),
		High:      decimal.NewFromFloat(high),
		Low:       decimal.NewFromFloat(low),
		Close:     decimal.NewFromFloat(closing),
		AdjClose:  decimal.NewFromFloat(closing),
		Volume:    volume,
		Timestamp: int(ts),
	}
}

func TestGetHistoricalData(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 1, 3, 14, 30, 0, 0, time.UTC)
	src := &Source{
		history: func(symbol string, start, end time.Time, interval datetime.Interval) ([]*finance.ChartBar, error) {
			require.Equal(t, "AAPL", symbol)
			require.Equal(t, datetime.OneDay, interval)
			return []*finance.ChartBar{chartBar(ts.Unix(), 130.28, 130.90, 124.17, 125.07, 112117500)}, nil
		},
	}

	bars, err := src.GetHistoricalData(t.Context(), "AAPL", "2023-01-01", "2023-01-31", "1d")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	require.Equal(t, "2023-01-03 14:30:00", bars[0].Date)
	require.Equal(t, 130.28, bars[0].Open)
	require.Equal(t, 125.07, bars[0].Close)
	require.Equal(t, int64(112117500), bars[0].Volume)
	require.Equal(t, 125.07, bars[0].Extra["adj_close"])
}

func TestGetHistoricalData_IntradayClamp(t *testing.T) {
	t.Parallel()

	// A month-long 5m request narrows to the trailing week instead of
	// failing; the requested end is untouched.
	var gotStart, gotEnd time.Time
	src := &Source{
		history: func(symbol string, start, end time.Time, interval datetime.Interval) ([]*finance.ChartBar, error) {
			gotStart, gotEnd = start, end
			require.Equal(t, datetime.FiveMins, interval)
			return []*finance.ChartBar{chartBar(end.Unix(), 1, 2, 0.5, 1.5, 100)}, nil
		},
	}

	_, err := src.GetHistoricalData(t.Context(), "AAPL", "2023-01-01", "2023-01-31", "5m")
	require.NoError(t, err)
	end, _ := time.Parse(source.DateLayout, "2023-01-31")
	require.Equal(t, end, gotEnd)
	require.Equal(t, end.AddDate(0, 0, -7), gotStart)
}

func TestGetHistoricalData_DailyNotClamped(t *testing.T) {
	t.Parallel()

	var gotStart time.Time
	src := &Source{
		history: func(symbol string, start, end time.Time, interval datetime.Interval) ([]*finance.ChartBar, error) {
			gotStart = start
			return []*finance.ChartBar{chartBar(start.Unix(), 1, 2, 0.5, 1.5, 100)}, nil
		},
	}

	_, err := src.GetHistoricalData(t.Context(), "AAPL", "2022-01-01", "2023-01-31", "1d")
	require.NoError(t, err)
	start, _ := time.Parse(source.DateLayout, "2022-01-01")
	require.Equal(t, start, gotStart)
}

func TestGetHistoricalData_UnknownIntervalDefaultsToDaily(t *testing.T) {
	t.Parallel()

	src := &Source{
		history: func(symbol string, start, end time.Time, interval datetime.Interval) ([]*finance.ChartBar, error) {
			require.Equal(t, datetime.OneDay, interval)
			return []*finance.ChartBar{chartBar(start.Unix(), 1, 2, 0.5, 1.5, 100)}, nil
		},
	}

	_, err := src.GetHistoricalData(t.Context(), "AAPL", "2023-01-01", "2023-01-31", "45m")
	require.NoError(t, err)
}

func TestGetHistoricalData_NoData(t *testing.T) {
	t.Parallel()

	src := &Source{
		history: func(symbol string, start, end time.Time, interval datetime.Interval) ([]*finance.ChartBar, error) {
			return nil, nil
		},
	}

	_, err := src.GetHistoricalData(t.Context(), "NOPE", "2023-01-01", "2023-01-31", "1d")
	require.ErrorIs(t, err, source.ErrInvalidSymbol)
}

func TestGetHistoricalData_UpstreamError(t *testing.T) {
	t.Parallel()

	src := &Source{
		history: func(symbol string, start, end time.Time, interval datetime.Interval) ([]*finance.ChartBar, error) {
			return nil, errors.New("boom")
		},
	}

	_, err := src.GetHistoricalData(t.Context(), "AAPL", "2023-01-01", "2023-01-31", "1d")
	require.ErrorIs(t, err, source.ErrAPIFailure)
}

func TestGetRealtimeData(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 1, 3, 21, 0, 0, 0, time.UTC)
	src := &Source{
		quote: func(symbol string) (*finance.Quote, error) {
			return &finance.Quote{
				RegularMarketPrice:         125.07,
				RegularMarketChange:        -4.86,
				RegularMarketChangePercent: -3.74,
				RegularMarketVolume:        112117500,
				RegularMarketTime:          int(ts.Unix()),
				RegularMarketPreviousClose: 129.93,
			}, nil
		},
	}

	quote, err := src.GetRealtimeData(t.Context(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", quote.Symbol)
	require.Equal(t, 125.07, quote.Price)
	require.Equal(t, "2023-01-03 21:00:00", quote.LastUpdated)
	require.Equal(t, 129.93, quote.Extra["previous_close"])
}

func TestGetRealtimeData_IncompleteQuote(t *testing.T) {
	t.Parallel()

	// A quote without a market price is rejected outright, never served
	// partially filled.
	src := &Source{
		quote: func(symbol string) (*finance.Quote, error) {
			return &finance.Quote{RegularMarketTime: int(time.Now().Unix())}, nil
		},
	}

	_, err := src.GetRealtimeData(t.Context(), "AAPL")
	require.ErrorIs(t, err, source.ErrDataSource)
}

func TestGetRealtimeData_NoData(t *testing.T) {
	t.Parallel()

	src := &Source{
		quote: func(symbol string) (*finance.Quote, error) { return nil, nil },
	}

	_, err := src.GetRealtimeData(t.Context(), "NOPE")
	require.ErrorIs(t, err, source.ErrInvalidSymbol)
}

func TestGetRealtimeData_UpstreamError(t *testing.T) {
	t.Parallel()

	src := &Source{
		quote: func(symbol string) (*finance.Quote, error) { return nil, errors.New("boom") },
	}

	_, err := src.GetRealtimeData(t.Context(), "AAPL")
	require.ErrorIs(t, err, source.ErrAPIFailure)
}
