package domain

// Instrument represents a tradable currency pair with independent bid/ask quotes.
// The instrument set is fixed at startup from configuration.
type Instrument struct {
	Symbol string `yaml:"symbol" json:"symbol"` // Exchange symbol (e.g., "BTCUSDT")
	Base   string `yaml:"base" json:"base"`     // Base asset (e.g., "BTC")
	Quote  string `yaml:"quote" json:"quote"`   // Quote asset (e.g., "USDT")
}

// Quote holds the latest best bid/ask for a single instrument.
// Invariant: a Quote stored in the book always has both fields set to
// positive finite values; "no data yet" is represented by absence.
type Quote struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}
