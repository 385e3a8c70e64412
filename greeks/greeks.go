package greeks

import (
	"math"

	"optioneer/market"
)

// minVol floors the decimal volatility so degenerate chain rows
// (IV reported as 0) cannot divide by zero inside d1.
const minVol = 1e-4

const daysPerYear = 365.0

// Result holds analytic Black-Scholes sensitivities for one contract.
// Theta is per calendar day (annualized theta / 365, negative for a
// long option); Vega is per volatility point (1% of IV).
type Result struct {
	Delta       float64
	Gamma       float64
	ThetaPerDay float64
	Vega        float64
}

// Compute evaluates the analytic Black-Scholes greeks with a continuous
// dividend yield. ivPct and the returned Vega use percent units.
//
// dte <= 0 returns the at-expiry approximation: delta ±1 by type, all
// other greeks zero. ok=false means the inputs produced a non-finite
// result; callers must treat that as a filter failure, never as zero.
func Compute(typ market.OptionType, spot, strike, dte, ivPct, rate, div float64) (Result, bool) {
	if dte <= 0 {
		r := Result{Delta: 1}
		if typ == market.Put {
			r.Delta = -1
		}
		return r, true
	}
	if spot <= 0 || strike <= 0 {
		return Result{}, false
	}

	sigma := ivPct / 100
	if sigma < minVol {
		sigma = minVol
	}

	t := dte / daysPerYear
	sqrtT := math.Sqrt(t)

	d1 := (math.Log(spot/strike) + (rate-div+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	qDisc := math.Exp(-div * t)
	rDisc := math.Exp(-rate * t)

	var delta, thetaYear float64
	if typ == market.Call {
		delta = qDisc * normCDF(d1)
		thetaYear = -spot*normPDF(d1)*sigma*qDisc/(2*sqrtT) -
			rate*strike*rDisc*normCDF(d2) +
			div*spot*qDisc*normCDF(d1)
	} else {
		delta = qDisc * (normCDF(d1) - 1)
		thetaYear = -spot*normPDF(d1)*sigma*qDisc/(2*sqrtT) +
			rate*strike*rDisc*normCDF(-d2) -
			div*spot*qDisc*normCDF(-d1)
	}

	res := Result{
		Delta:       delta,
		Gamma:       qDisc * normPDF(d1) / (spot * sigma * sqrtT),
		ThetaPerDay: thetaYear / daysPerYear,
		Vega:        spot * qDisc * normPDF(d1) * sqrtT / 100,
	}

	for _, v := range []float64{res.Delta, res.Gamma, res.ThetaPerDay, res.Vega} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, false
		}
	}
	return res, true
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
