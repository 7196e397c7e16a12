package readers

import (
	"database/sql"
	"time"
)

const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// Reader is one row of the readers table. current_loan_count is a cache over
// the set of OPEN loans, mutated only by the circulation engine.
type Reader struct {
	CardNo           string
	Name             string
	Gender           string
	IDCard           sql.NullString
	Department       string
	Phone            string
	Address          string
	MaxLoans         int
	CurrentLoanCount int
	Status           string
	RegistrationDate time.Time
}

// ReaderFilter holds the optional search predicates.
type ReaderFilter struct {
	CardNo     *string // exact
	Name       *string // case-insensitive substring
	Department *string // case-insensitive substring
}

func validStatus(s string) bool {
	return s == StatusActive || s == StatusSuspended
}
