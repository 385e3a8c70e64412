package journal

import "time"

// TradeRecord is one closed position, appended to the trade log at the
// moment it closes and never rewritten.
type TradeRecord struct {
	PositionID   string
	Instrument   string
	Quantity     float64
	EntryPremium float64
	ExitPremium  float64
	OpenTime     time.Time
	CloseTime    time.Time
	RealizedPL   float64
	Reason       string
}

// EquitySnapshot is one point of the running capital curve.
type EquitySnapshot struct {
	Time    time.Time
	Capital float64
}

// Journal is the append-only audit log, written independently of the
// state snapshot.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
