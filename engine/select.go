package engine

import (
	"math"
	"strings"
	"time"

	"optioneer/market"
)

// Candidate is a resolved entry candidate: the concrete chain row plus
// the expiry it belongs to.
type Candidate struct {
	Row    market.ChainRow
	Expiry market.Expiry
	DTE    float64
	Strike float64
}

// SelectCandidate picks the entry contract from a chain snapshot:
// the nearest expiry at least minDTE days out (raising minDTE is what
// skips weekly cycles), the strike nearest spot rounded to the strike
// step plus the configured offset, and the concrete instrument for
// (expiry, strike, type). Returns ok=false when nothing resolves; the
// caller aborts the attempt without error.
func SelectCandidate(chain market.OptionChain, spot float64, typ market.OptionType,
	minDTE, strikeStep, strikeOffset float64, now time.Time) (Candidate, bool) {

	if spot <= 0 || strikeStep <= 0 || len(chain.Expiries) == 0 {
		return Candidate{}, false
	}

	var expiry market.Expiry
	bestDTE := math.Inf(1)
	for _, e := range chain.Expiries {
		dte := e.DaysTo(now)
		if dte >= minDTE && dte < bestDTE {
			expiry = e
			bestDTE = dte
		}
	}
	if math.IsInf(bestDTE, 1) {
		return Candidate{}, false
	}

	strike := math.Round(spot/strikeStep)*strikeStep + strikeOffset

	row, ok := resolveRow(chain.Rows, expiry, strike, typ)
	if !ok {
		return Candidate{}, false
	}

	return Candidate{Row: row, Expiry: expiry, DTE: bestDTE, Strike: strike}, true
}

// resolveRow matches primarily by exact expiry epoch, falling back to
// a month/year token in the symbol (e.g. "24SEP") when the upstream
// chain encodes expiries inconsistently.
func resolveRow(rows []market.ChainRow, expiry market.Expiry, strike float64, typ market.OptionType) (market.ChainRow, bool) {
	for _, r := range rows {
		if r.Type == typ && sameStrike(r.Strike, strike) && r.Expiry == expiry.Epoch {
			return r, true
		}
	}

	token := expiryToken(expiry.Date)
	for _, r := range rows {
		if r.Type == typ && sameStrike(r.Strike, strike) &&
			strings.Contains(strings.ToUpper(r.Symbol), token) {
			return r, true
		}
	}

	return market.ChainRow{}, false
}

// expiryToken builds the NSE-style year+month token, e.g. 2024-09 -> "24SEP".
func expiryToken(d time.Time) string {
	return d.Format("06") + strings.ToUpper(d.Format("Jan"))
}

func sameStrike(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
