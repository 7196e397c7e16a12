package reports

import "time"

// HistoryEntry is one ledger row joined with reader and title data, with the
// derived display status (OPEN / OVERDUE / RETURNED / RETURNED_LATE).
type HistoryEntry struct {
	LoanID     int64      `db:"loan_id" json:"loan_id"`
	CardNo     string     `db:"card_no" json:"card_no"`
	ReaderName string     `db:"reader_name" json:"reader_name"`
	CopyID     string     `db:"copy_id" json:"copy_id"`
	ISBN       string     `db:"isbn" json:"isbn"`
	TitleName  string     `db:"title_name" json:"title_name"`
	Author     string     `db:"author" json:"author"`
	BorrowDate time.Time  `db:"borrow_date" json:"borrow_date"`
	DueDate    time.Time  `db:"due_date" json:"due_date"`
	ReturnDate *time.Time `db:"return_date" json:"return_date,omitempty"`
	FineAmount float64    `db:"fine_amount" json:"fine_amount"`
	Status     string     `db:"status" json:"status"`
}

// OverdueEntry mirrors the circulation overdue listing in reporting shape;
// overdue_days and accrued_fine are re-derived, not read from the ledger.
type OverdueEntry struct {
	LoanID      int64     `db:"loan_id" json:"loan_id"`
	CardNo      string    `db:"card_no" json:"card_no"`
	ReaderName  string    `db:"reader_name" json:"reader_name"`
	CopyID      string    `db:"copy_id" json:"copy_id"`
	ISBN        string    `db:"isbn" json:"isbn"`
	TitleName   string    `db:"title_name" json:"title_name"`
	BorrowDate  time.Time `db:"borrow_date" json:"borrow_date"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
	OverdueDays int       `db:"-" json:"overdue_days"`
	AccruedFine float64   `db:"-" json:"accrued_fine"`
}

type ReaderRank struct {
	CardNo      string `db:"card_no" json:"card_no"`
	ReaderName  string `db:"reader_name" json:"reader_name"`
	BorrowCount int    `db:"borrow_count" json:"borrow_count"`
}

type TitleRank struct {
	ISBN        string `db:"isbn" json:"isbn"`
	TitleName   string `db:"title_name" json:"title_name"`
	BorrowCount int    `db:"borrow_count" json:"borrow_count"`
}

type DayCount struct {
	Day   string `db:"day" json:"day"` // "2006-01-02"
	Count int    `db:"cnt" json:"count"`
}

// Summary is the dashboard aggregate from the desk front end.
type Summary struct {
	CurrentLoans  int `db:"current_loans" json:"current_loans"`
	TotalLoans    int `db:"total_loans" json:"total_loans"`
	OverdueLoans  int `db:"overdue_loans" json:"overdue_loans"`
	TotalReaders  int `db:"total_readers" json:"total_readers"`
	ActiveReaders int `db:"active_readers" json:"active_readers"` // borrowed in last 30 days
	TotalTitles   int `db:"total_titles" json:"total_titles"`
	TotalCopies   int `db:"total_copies" json:"total_copies"`
}
