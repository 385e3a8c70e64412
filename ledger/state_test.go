package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateSeeded(t *testing.T) {
	t.Parallel()

	s := NewState(100000, time.Date(2024, 9, 2, 9, 15, 0, 0, time.UTC))

	assert.Empty(t, s.Positions)
	assert.Empty(t, s.History)
	assert.Equal(t, "2024-09", s.Counters.CurrentMonth)
	assert.Equal(t, []float64{100000}, s.EquityCurve)
	assert.InDelta(t, 100000.0, s.Capital(), 1e-9)
}

func TestRollover(t *testing.T) {
	t.Parallel()

	s := NewState(100000, time.Date(2024, 9, 2, 9, 15, 0, 0, time.UTC))
	s.Counters.TradesThisMonth = 3
	s.Counters.ConsecutiveLosses = 2
	s.History = append(s.History, Position{ID: "old"})
	s.EquityCurve = append(s.EquityCurve, 95500)

	// Same month: nothing happens.
	assert.False(t, s.Rollover(time.Date(2024, 9, 28, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, s.Counters.TradesThisMonth)

	// New month: counters reset, history and equity untouched.
	assert.True(t, s.Rollover(time.Date(2024, 10, 1, 9, 15, 0, 0, time.UTC)))
	assert.Equal(t, 0, s.Counters.TradesThisMonth)
	assert.Equal(t, 0, s.Counters.ConsecutiveLosses)
	assert.Equal(t, "2024-10", s.Counters.CurrentMonth)
	assert.Len(t, s.History, 1)
	assert.Len(t, s.EquityCurve, 2)
}

func TestOpenCountsAgainstCap(t *testing.T) {
	t.Parallel()

	s := NewState(100000, time.Now())
	s.Open(&Position{ID: "P1", Status: StatusOpen})

	assert.Equal(t, 1, s.Counters.TradesThisMonth)
	assert.Len(t, s.Positions, 1)
}

func TestCloseAtomicBookkeeping(t *testing.T) {
	t.Parallel()

	s := NewState(100000, time.Now())
	p := &Position{ID: "P1", Instrument: "X", Status: StatusOpen}
	s.Open(p)

	p.Status = StatusClosedStop
	p.ExitPremium = 95
	s.Close(p, -4500)

	// Gone from the open set, present exactly once in history.
	assert.Empty(t, s.Positions)
	require.Len(t, s.History, 1)
	assert.Equal(t, "P1", s.History[0].ID)
	assert.InDelta(t, -4500.0, s.History[0].RealizedPL, 1e-9)

	assert.InDelta(t, 95500.0, s.Capital(), 1e-9)
	assert.Equal(t, 1, s.Counters.ConsecutiveLosses)
}

func TestCloseLossCounter(t *testing.T) {
	t.Parallel()

	s := NewState(100000, time.Now())

	for i, realized := range []float64{-4500, -4500} {
		p := &Position{ID: string(rune('A' + i)), Status: StatusOpen}
		s.Open(p)
		p.Status = StatusClosedStop
		s.Close(p, realized)
	}
	assert.Equal(t, 2, s.Counters.ConsecutiveLosses)

	// A non-losing close resets the streak.
	p := &Position{ID: "W", Status: StatusOpen}
	s.Open(p)
	p.Status = StatusClosedStop
	s.Close(p, 2000)
	assert.Equal(t, 0, s.Counters.ConsecutiveLosses)
}

func TestFindOpen(t *testing.T) {
	t.Parallel()

	s := NewState(100000, time.Now())
	s.Open(&Position{ID: "P1", Instrument: "A", Status: StatusOpen})

	assert.NotNil(t, s.FindOpen("A"))
	assert.Nil(t, s.FindOpen("B"))
}
