package source

// Bar is one normalized historical data point (OHLCV). The struct
// fields are the canonical subset every adapter guarantees; anything
// provider-specific (adjusted close, VWAP, market cap, ...) lands in
// Extra and may be absent.
type Bar struct {
	// Date is the bar timestamp as reported by the provider, either a
	// plain YYYY-MM-DD day or a date-time for intraday granularities.
	Date     string         `json:"date"`
	Open     float64        `json:"open"`
	High     float64        `json:"high"`
	Low      float64        `json:"low"`
	Close    float64        `json:"close"`
	Volume   int64          `json:"volume"`
	Interval string         `json:"interval,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Quote is a normalized latest-price snapshot. LastUpdated is an opaque
// provider-formatted timestamp string and is not normalized further.
type Quote struct {
	Symbol        string         `json:"symbol"`
	Price         float64        `json:"price"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"change_percent"`
	Volume        int64          `json:"volume"`
	LastUpdated   string         `json:"last_updated"`
	Extra         map[string]any `json:"extra,omitempty"`
}
