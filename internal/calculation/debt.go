package calculation

import (
	"fmt"

	"github.com/dutchbay/dbmodel/internal/domain"
)

// scheduleLength returns the number of schedule rows for the terms
func scheduleLength(terms domain.DebtTerms, projectYears int) int {
	n := terms.TenorYears
	if terms.CapToProjectLife && projectYears < n {
		n = projectYears
	}
	return n
}

func checkScheduleInputs(principal float64, terms domain.DebtTerms, projectYears int) error {
	if principal < 0 {
		return &domain.DomainError{
			Operation: "amortization_schedule",
			Message:   fmt.Sprintf("principal cannot be negative, got %v", principal),
		}
	}
	if projectYears < 1 {
		return &domain.DomainError{
			Operation: "amortization_schedule",
			Message:   fmt.Sprintf("project years must be at least 1, got %d", projectYears),
		}
	}
	if principal > 0 {
		return terms.Validate()
	}
	return nil
}

// AmortizationSchedule builds a level schedule: interest on the opening
// balance every year, no principal during grace, then equal principal
// installments over the remaining tenor. The final row repays whatever is
// left, which only matters when the schedule is cut at project life.
func AmortizationSchedule(principal float64, terms domain.DebtTerms, projectYears int) ([]domain.AmortizationRow, error) {
	if err := checkScheduleInputs(principal, terms, projectYears); err != nil {
		return nil, err
	}
	if principal == 0 {
		return nil, nil
	}

	n := scheduleLength(terms, projectYears)
	rows := make([]domain.AmortizationRow, 0, n)
	balance := principal
	installment := 0.0

	for y := 1; y <= n; y++ {
		row := domain.AmortizationRow{Year: y, OpeningBalance: balance}
		accrued := balance * terms.InterestRate

		if y <= terms.GraceYears {
			balance = accrueGrace(&row, accrued, balance, terms.GracePolicy)
		} else {
			if y == terms.GraceYears+1 {
				installment = balance / float64(terms.TenorYears-terms.GraceYears)
			}
			row.Interest = accrued
			row.Principal = min(installment, balance)
		}
		if y == n {
			row.Principal = balance
		}

		balance -= row.Principal
		row.ClosingBalance = balance
		rows = append(rows, row)
	}

	return rows, nil
}

// accrueGrace fills a grace-year row and returns the new balance
func accrueGrace(row *domain.AmortizationRow, accrued, balance float64, policy domain.GracePolicy) float64 {
	if policy == domain.GraceCapitalize {
		row.Capitalized = accrued
		return balance + accrued
	}
	row.Interest = accrued
	return balance
}

// SculptedSchedule shapes debt service in proportion to cfads, where
// cfads[i] is the cash flow available for debt service of year i+1. The
// proportion is the one whose present value at the loan rate repays the
// balance outstanding at the end of grace, which holds DSCR constant over
// the repayment years. If cfads cannot support any repayment the schedule
// falls back to level amortization.
func SculptedSchedule(principal float64, terms domain.DebtTerms, cfads []float64, projectYears int) ([]domain.AmortizationRow, error) {
	if err := checkScheduleInputs(principal, terms, projectYears); err != nil {
		return nil, err
	}
	if principal == 0 {
		return nil, nil
	}

	n := scheduleLength(terms, projectYears)
	k, ok := sculptingFactor(principal, terms, cfads, n)
	if !ok {
		return AmortizationSchedule(principal, terms, projectYears)
	}

	rows := make([]domain.AmortizationRow, 0, n)
	balance := principal
	for y := 1; y <= n; y++ {
		row := domain.AmortizationRow{Year: y, OpeningBalance: balance}
		accrued := balance * terms.InterestRate

		if y <= terms.GraceYears {
			balance = accrueGrace(&row, accrued, balance, terms.GracePolicy)
		} else {
			row.Interest = accrued
			service := k * cfadsAt(cfads, y)
			row.Principal = min(max(service-accrued, 0), balance)
		}
		if y == n {
			row.Principal = balance
		}

		balance -= row.Principal
		row.ClosingBalance = balance
		rows = append(rows, row)
	}
	return rows, nil
}

// sculptingFactor returns k such that the PV of k×CFADS over the repayment
// years equals the balance at the end of grace.
func sculptingFactor(principal float64, terms domain.DebtTerms, cfads []float64, n int) (float64, bool) {
	balance := principal
	if terms.GracePolicy == domain.GraceCapitalize {
		for y := 1; y <= terms.GraceYears && y <= n; y++ {
			balance *= 1 + terms.InterestRate
		}
	}

	pv := 0.0
	factor := 1.0
	for y := terms.GraceYears + 1; y <= n; y++ {
		factor /= 1 + terms.InterestRate
		pv += cfadsAt(cfads, y) * factor
	}
	if pv <= 0 {
		return 0, false
	}
	return balance / pv, true
}

// SculptedDebtCapacity returns the largest principal that a schedule
// sculpted at terms.TargetDSCR can carry given cfads.
func SculptedDebtCapacity(terms domain.DebtTerms, cfads []float64, projectYears int) float64 {
	if !(terms.TargetDSCR > 0) {
		return 0
	}
	n := scheduleLength(terms, projectYears)

	// value of the sculpted repayments at the end of grace
	atGraceEnd := 0.0
	factor := 1.0
	for y := terms.GraceYears + 1; y <= n; y++ {
		factor /= 1 + terms.InterestRate
		atGraceEnd += max(cfadsAt(cfads, y), 0) / terms.TargetDSCR * factor
	}

	capacity := atGraceEnd
	for y := 1; y <= terms.GraceYears && y <= n; y++ {
		if terms.GracePolicy == domain.GraceCapitalize {
			capacity /= 1 + terms.InterestRate
			continue
		}
		// interest-only grace years must also be covered at the target
		if terms.InterestRate > 0 {
			capacity = min(capacity, max(cfadsAt(cfads, y), 0)/terms.TargetDSCR/terms.InterestRate)
		}
	}
	return capacity
}

func cfadsAt(cfads []float64, year int) float64 {
	if year-1 < len(cfads) {
		return cfads[year-1]
	}
	return 0
}
