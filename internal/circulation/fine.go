package circulation

import (
	"math"
	"time"
)

// civilDate truncates t to its calendar date in t's location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OverdueDays is the number of whole days asOf lies past dueDate, never
// negative. Both arguments are compared as calendar dates.
func OverdueDays(dueDate, asOf time.Time) int {
	days := int(civilDate(asOf).Sub(civilDate(dueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// ComputeFine derives the fine for a loan: overdue days times the per-day
// rate, rounded to cents. It is pure so the reporting layer can re-derive the
// same figure for overdue listings without running Return. asOf is today for
// an open loan, or return_date for a closed one.
func ComputeFine(dueDate, asOf time.Time, ratePerDay float64) float64 {
	fine := float64(OverdueDays(dueDate, asOf)) * ratePerDay
	return math.Round(fine*100) / 100
}

// DueDate is borrowDate plus the loan period, as a calendar date.
func DueDate(borrowDate time.Time, loanPeriodDays int) time.Time {
	return civilDate(borrowDate).AddDate(0, 0, loanPeriodDays)
}
