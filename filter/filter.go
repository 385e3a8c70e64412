package filter

import (
	"fmt"
	"time"

	"optioneer/config"
	"optioneer/greeks"
)

// Violation names one failed gate condition.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of an acceptance check. Allowed is true only
// when every condition passed; Violations lists each failure.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// MonthState is the slice of ledger state the month gating consults.
type MonthState struct {
	TradesThisMonth   int
	ConsecutiveLosses int
}

// Filter is the multi-factor entry gate.
type Filter struct {
	entry config.EntryConfig
}

func New(entry config.EntryConfig) *Filter {
	return &Filter{entry: entry}
}

// CanOpen reports whether the month-level state permits opening any
// position at all: monthly trade cap, consecutive-loss pause, and the
// blackout window before the monthly expiry.
func (f *Filter) CanOpen(m MonthState, now time.Time) Decision {
	d := Decision{Allowed: true}

	if m.TradesThisMonth >= f.entry.MaxTradesPerMonth {
		d.add("MONTHLY_CAP",
			fmt.Sprintf("trades this month %d >= cap %d", m.TradesThisMonth, f.entry.MaxTradesPerMonth))
	}
	if m.ConsecutiveLosses >= f.entry.LossPauseCount {
		d.add("LOSS_PAUSE",
			fmt.Sprintf("consecutive losses %d >= pause count %d", m.ConsecutiveLosses, f.entry.LossPauseCount))
	}
	if days := DaysToMonthlyExpiry(now); days <= f.entry.BlackoutDays {
		d.add("EXPIRY_BLACKOUT",
			fmt.Sprintf("%d days to monthly expiry <= blackout %d", days, f.entry.BlackoutDays))
	}

	return d
}

// Check is the conjunction of the seven threshold conditions over a
// candidate's greeks, premium, implied volatility and days to expiry.
// Unavailable greeks (gok == false) fail immediately.
func (f *Filter) Check(g greeks.Result, gok bool, premium, iv, dte float64) Decision {
	d := Decision{Allowed: true}

	if !gok {
		d.add("GREEKS_UNAVAILABLE", "greeks could not be computed")
		return d
	}

	if !f.entry.Delta.Contains(g.Delta) {
		d.add("DELTA_BAND",
			fmt.Sprintf("delta %.4f outside [%.4f, %.4f]", g.Delta, f.entry.Delta.Min, f.entry.Delta.Max))
	}
	if !f.entry.Gamma.Contains(g.Gamma) {
		d.add("GAMMA_BAND",
			fmt.Sprintf("gamma %.6f outside [%.6f, %.6f]", g.Gamma, f.entry.Gamma.Min, f.entry.Gamma.Max))
	}
	if !f.entry.ThetaDay.Contains(g.ThetaPerDay) {
		d.add("THETA_BAND",
			fmt.Sprintf("theta/day %.2f outside [%.2f, %.2f]", g.ThetaPerDay, f.entry.ThetaDay.Min, f.entry.ThetaDay.Max))
	}
	if !f.entry.Vega.Contains(g.Vega) {
		d.add("VEGA_BAND",
			fmt.Sprintf("vega %.2f outside [%.2f, %.2f]", g.Vega, f.entry.Vega.Min, f.entry.Vega.Max))
	}
	if !f.entry.IV.Contains(iv) {
		d.add("IV_BAND",
			fmt.Sprintf("IV %.2f outside [%.2f, %.2f]", iv, f.entry.IV.Min, f.entry.IV.Max))
	}
	if !f.entry.Premium.Contains(premium) {
		d.add("PREMIUM_BAND",
			fmt.Sprintf("premium %.2f outside [%.2f, %.2f]", premium, f.entry.Premium.Min, f.entry.Premium.Max))
	}
	if dte < f.entry.MinDTE {
		d.add("DTE_FLOOR",
			fmt.Sprintf("days to expiry %.1f below floor %.1f", dte, f.entry.MinDTE))
	}

	return d
}

// MonthlyExpiry returns the final Tuesday on or before the last
// calendar day of now's month. Weekly expiries are intentionally
// ignored; the gate targets a single monthly cycle.
func MonthlyExpiry(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location())
	for d.Weekday() != time.Tuesday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// DaysToMonthlyExpiry returns whole calendar days from now to the
// month's final Tuesday. Negative once the expiry has passed, which
// still reads as "inside the blackout" for the rest of the month.
func DaysToMonthlyExpiry(now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(MonthlyExpiry(now).Sub(today).Hours() / 24)
}
