package source

import "context"

// DataSource is the capability contract every provider adapter
// implements. Adapters are cheap to construct and hold no mutable
// cross-call state, so a single instance may be used concurrently.
type DataSource interface {
	Name() string

	// GetHistoricalData returns bars whose timestamp lies within
	// [startDate, endDate] inclusive (both YYYY-MM-DD), ordered
	// ascending in time. interval is a provider-recognized granularity
	// token; unrecognized tokens fall back to a daily default except
	// where a provider validates strictly.
	GetHistoricalData(ctx context.Context, symbol, startDate, endDate, interval string) ([]Bar, error)

	// GetRealtimeData returns the latest snapshot for symbol. Providers
	// without a real-time feed substitute their most recent historical
	// row.
	GetRealtimeData(ctx context.Context, symbol string) (Quote, error)
}
