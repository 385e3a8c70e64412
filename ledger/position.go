package ledger

import (
	"time"

	"optioneer/config"
	"optioneer/greeks"
)

// Status is the position lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusClosedStop Status = "closed_stop"
)

// Position is one simulated long option holding. While open it is
// owned exclusively by the ledger; CurrentStop is monotonically
// non-decreasing for the life of the position.
type Position struct {
	ID           string    `json:"id"`
	Instrument   string    `json:"instrument"`
	EntryPremium float64   `json:"entry_premium"`
	Quantity     float64   `json:"quantity"`
	EntryTime    time.Time `json:"entry_time"`
	CurrentStop  float64   `json:"current_stop"`
	Status       Status    `json:"status"`

	// Immutable audit snapshot taken at open.
	GreeksAtEntry greeks.Result `json:"greeks_at_entry"`
	IVAtEntry     float64       `json:"iv_at_entry"`
	DTEAtEntry    float64       `json:"dte_at_entry"`

	// Set on close.
	ExitPremium float64   `json:"exit_premium,omitempty"`
	RealizedPL  float64   `json:"realized_pl,omitempty"`
	CloseTime   time.Time `json:"close_time,omitempty"`
	CloseReason string    `json:"close_reason,omitempty"`
}

// Transition is the outcome of feeding one quote to an open position.
type Transition int

const (
	Hold Transition = iota
	StopRaised
	StopHit
)

// ApplyQuote advances the position state machine with a fresh last
// traded price. The stop check runs before any ratchet adjustment; the
// ratchet tiers are evaluated from the most aggressive downward and a
// new stop is applied only if strictly above the current one.
//
// On StopHit the caller books the close; ApplyQuote only marks the
// exit premium and terminal status.
func (p *Position) ApplyQuote(ltp float64, rules config.StopConfig, now time.Time) Transition {
	if p.Status != StatusOpen || ltp <= 0 {
		return Hold
	}

	if ltp <= p.CurrentStop {
		p.Status = StatusClosedStop
		p.ExitPremium = ltp
		p.CloseTime = now
		p.CloseReason = "StopLoss"
		return StopHit
	}

	multiple := ltp / p.EntryPremium

	var candidate float64
	switch {
	case multiple >= rules.TargetMultiple:
		candidate = ltp - rules.TightTrailPoints
	case multiple >= rules.Tier2Multiple:
		candidate = ltp - rules.LooseTrailPoints
	case multiple >= rules.Tier1Multiple:
		candidate = p.EntryPremium + rules.BreakevenBuffer
	default:
		return Hold
	}

	if candidate > p.CurrentStop {
		p.CurrentStop = candidate
		return StopRaised
	}
	return Hold
}

// RealizedLoss computes the booked P&L for a stop close under the
// configured policy. Fixed books the initial stop distance as a loss
// regardless of where the ratchet had moved the stop; mark books the
// literal exit − entry difference.
func (p *Position) RealizedLoss(rules config.StopConfig) float64 {
	if rules.LossPolicy == config.LossFixed {
		return -rules.InitialStopPoints * p.Quantity
	}
	return (p.ExitPremium - p.EntryPremium) * p.Quantity
}
