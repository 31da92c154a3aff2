package calculation

import (
	"fmt"
	"math"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// IRR search bounds and budget. The bracket scan walks fixed grids so the
// total work is bounded regardless of the cash-flow shape.
const (
	irrMinRate       = -0.99
	irrMaxRate       = 10.0
	irrMaxIterations = 200
	irrTolerance     = 1e-12
)

// NPV discounts cashflows at rate, cashflows[0] being year 0 (undiscounted).
// Rates at or below -100% have no meaning and return a domain error.
func NPV(rate float64, cashflows []float64) (float64, error) {
	if math.IsNaN(rate) || rate <= -1 {
		return 0, &domain.DomainError{
			Operation: "npv",
			Message:   fmt.Sprintf("discount rate must be greater than -1, got %v", rate),
		}
	}
	return npv(rate, cashflows), nil
}

// npv assumes rate > -1
func npv(rate float64, cashflows []float64) float64 {
	total := 0.0
	factor := 1.0
	growth := 1.0 / (1.0 + rate)
	for _, cf := range cashflows {
		total += cf * factor
		factor *= growth
	}
	return total
}

// npvDerivative returns d(NPV)/d(rate)
func npvDerivative(rate float64, cashflows []float64) float64 {
	total := 0.0
	growth := 1.0 / (1.0 + rate)
	factor := growth // (1+r)^-(t+1) for t = 0
	for t, cf := range cashflows {
		total -= float64(t) * cf * factor
		factor *= growth
	}
	return total
}

// IRR returns the internal rate of return of cashflows, or nil when none
// exists in [-99%, 1000%]. When several roots exist the smallest
// non-negative one is returned; otherwise the negative root closest to
// zero is reported. IRR never panics.
func IRR(cashflows []float64) *float64 {
	if !hasSignChange(cashflows) {
		return nil
	}

	f := func(r float64) float64 { return npv(r, cashflows) }

	if f(0) == 0 {
		zero := 0.0
		return &zero
	}

	lo, hi, ok := bracketUpward(f)
	if !ok {
		lo, hi, ok = bracketDownward(f)
	}
	if !ok {
		return nil
	}

	rate, ok := solveBracketed(cashflows, lo, hi)
	if !ok {
		return nil
	}
	return &rate
}

func hasSignChange(cashflows []float64) bool {
	if len(cashflows) < 2 {
		return false
	}
	var pos, neg bool
	for _, cf := range cashflows {
		switch {
		case math.IsNaN(cf) || math.IsInf(cf, 0):
			return false
		case cf > 0:
			pos = true
		case cf < 0:
			neg = true
		}
	}
	return pos && neg
}

// bracketUpward scans [0, irrMaxRate] for the first sign change
func bracketUpward(f func(float64) float64) (float64, float64, bool) {
	prev := 0.0
	fPrev := f(prev)
	for r := 0.01; r <= irrMaxRate+1e-9; {
		fr := f(r)
		if changesSign(fPrev, fr) {
			return prev, r, true
		}
		prev, fPrev = r, fr
		if r < 1 {
			r += 0.01
		} else {
			r += 0.1
		}
	}
	return 0, 0, false
}

// bracketDownward scans [irrMinRate, 0] from zero downwards
func bracketDownward(f func(float64) float64) (float64, float64, bool) {
	prev := 0.0
	fPrev := f(prev)
	for r := -0.01; r >= irrMinRate-1e-9; r -= 0.01 {
		fr := f(r)
		if changesSign(fPrev, fr) {
			return r, prev, true
		}
		prev, fPrev = r, fr
	}
	return 0, 0, false
}

func changesSign(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return (a <= 0 && b >= 0) || (a >= 0 && b <= 0)
}

// solveBracketed runs Newton steps safeguarded by bisection inside [lo, hi]
func solveBracketed(cashflows []float64, lo, hi float64) (float64, bool) {
	fLo := npv(lo, cashflows)
	if fLo == 0 {
		return lo, true
	}
	if npv(hi, cashflows) == 0 {
		return hi, true
	}

	r := 0.5 * (lo + hi)
	for i := 0; i < irrMaxIterations; i++ {
		fr := npv(r, cashflows)
		if fr == 0 {
			return r, true
		}

		if changesSign(fLo, fr) {
			hi = r
		} else {
			lo, fLo = r, fr
		}

		next := 0.5 * (lo + hi)
		if d := npvDerivative(r, cashflows); d != 0 {
			if newton := r - fr/d; newton > lo && newton < hi {
				next = newton
			}
		}

		if math.Abs(next-r) < irrTolerance || hi-lo < irrTolerance {
			if math.IsNaN(next) || math.IsInf(next, 0) {
				return 0, false
			}
			return next, true
		}
		r = next
	}

	// Budget exhausted: accept the midpoint only if the bracket is tight.
	if hi-lo < 1e-6 {
		return 0.5 * (lo + hi), true
	}
	return 0, false
}
