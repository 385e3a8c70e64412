package market

import "time"

// OptionType is the contract side: CE for calls, PE for puts
// (NSE suffix convention, kept as-is because instrument symbols embed it).
type OptionType string

const (
	Call OptionType = "CE"
	Put  OptionType = "PE"
)

// Quote is a validated last-traded snapshot for one instrument.
// LTP == 0 means the upstream had no live print; callers must treat
// that as "no data", never as a price.
type Quote struct {
	Symbol string
	LTP    float64
	Time   time.Time
}

// Live reports whether the quote carries a usable price.
func (q Quote) Live() bool {
	return q.LTP > 0
}

// ChainRow is one contract in an option-chain snapshot.
type ChainRow struct {
	Symbol string
	Strike float64
	Type   OptionType
	Expiry int64 // epoch seconds, as the upstream encodes it
	LTP    float64
	OI     int64
	IV     float64 // percent, e.g. 14.25
}

// Expiry is one expiry bucket advertised by the chain endpoint.
type Expiry struct {
	Epoch int64
	Date  time.Time
}

// DaysTo returns calendar days from now to the expiry, fractional.
func (e Expiry) DaysTo(now time.Time) float64 {
	return e.Date.Sub(now).Hours() / 24
}

// OptionChain is a point-in-time listing of strikes × expiries for one
// underlying, plus the spot at snapshot time.
type OptionChain struct {
	Underlying string
	Spot       float64
	Expiries   []Expiry
	Rows       []ChainRow
}

// Candle is a single historical bar, used only by the trend gate.
type Candle struct {
	Time       time.Time
	O, H, L, C float64
	Volume     int64
}

// Tick is a push-stream price update for one instrument.
type Tick struct {
	Symbol string
	LTP    float64
	Time   time.Time
}
