package circulation

import (
	"database/sql"
	"time"
)

const (
	StatusOpen     = "OPEN"
	StatusReturned = "RETURNED"
)

// Loan is one row of the loans table: the record of one copy held by one
// reader. Created by Borrow, mutated exactly once by Return, never deleted.
type Loan struct {
	LoanID     int64
	LoanULID   string
	CardNo     string
	CopyID     string
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
	FineAmount float64
	Status     string
}

// LoanFilter holds the optional predicates for ListLoans.
type LoanFilter struct {
	CardNo *string
	CopyID *string
	Open   *bool
	From   *time.Time // borrow_date >= From
	To     *time.Time // borrow_date < To
}

type Page struct {
	Limit  int
	Offset int
}

// OverdueLoan is one OPEN loan past its due date, joined with the reader and
// title/copy data the front ends display.
type OverdueLoan struct {
	Loan        Loan
	ReaderName  string
	ISBN        string
	TitleName   string
	Author      string
	OverdueDays int
}
