package ledger

import "time"

// monthLayout is the calendar-month marker used for rollover detection.
const monthLayout = "2006-01"

// Counters are the month-scoped gate counters. TradesThisMonth and
// ConsecutiveLosses reset on month rollover; ConsecutiveLosses also
// resets on any non-losing close.
type Counters struct {
	TradesThisMonth   int    `json:"trades_this_month"`
	ConsecutiveLosses int    `json:"consecutive_losses"`
	CurrentMonth      string `json:"current_month"`
}

// State is the complete durable ledger: open positions, closed-trade
// history, month counters and the running equity curve. It is owned by
// the engine and persisted after every mutating event.
type State struct {
	Positions   []*Position `json:"positions"`
	History     []Position  `json:"history"`
	Counters    Counters    `json:"counters"`
	EquityCurve []float64   `json:"equity_curve"`
}

// NewState returns an empty ledger seeded with the starting capital.
func NewState(startingCapital float64, now time.Time) *State {
	return &State{
		Positions:   []*Position{},
		History:     []Position{},
		Counters:    Counters{CurrentMonth: now.Format(monthLayout)},
		EquityCurve: []float64{startingCapital},
	}
}

// Capital is the current running capital: the last equity entry.
func (s *State) Capital() float64 {
	if len(s.EquityCurve) == 0 {
		return 0
	}
	return s.EquityCurve[len(s.EquityCurve)-1]
}

// Rollover resets the month counters when now has crossed into a new
// calendar month. History and the equity curve are untouched. Returns
// true when a reset happened.
func (s *State) Rollover(now time.Time) bool {
	month := now.Format(monthLayout)
	if month == s.Counters.CurrentMonth {
		return false
	}
	s.Counters = Counters{CurrentMonth: month}
	return true
}

// Open appends a new position and counts it against the month cap.
func (s *State) Open(p *Position) {
	s.Positions = append(s.Positions, p)
	s.Counters.TradesThisMonth++
}

// Close removes a terminal position from the open set, appends its
// record to history, books realized P&L into the equity curve, and
// updates the consecutive-loss counter. The removal and the history
// append happen together so no observer sees the position in both or
// neither.
func (s *State) Close(p *Position, realized float64) {
	p.RealizedPL = realized

	for i, q := range s.Positions {
		if q == p || q.ID == p.ID {
			s.Positions = append(s.Positions[:i], s.Positions[i+1:]...)
			break
		}
	}
	s.History = append(s.History, *p)
	s.EquityCurve = append(s.EquityCurve, s.Capital()+realized)

	if realized < 0 {
		s.Counters.ConsecutiveLosses++
	} else {
		s.Counters.ConsecutiveLosses = 0
	}
}

// FindOpen returns the open position holding the given instrument, or
// nil when none does.
func (s *State) FindOpen(instrument string) *Position {
	for _, p := range s.Positions {
		if p.Instrument == instrument && p.Status == StatusOpen {
			return p
		}
	}
	return nil
}
