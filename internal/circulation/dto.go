package circulation

import "time"

type BorrowRequest struct {
	CardNo         string `json:"card_no" binding:"required"`
	CopyID         string `json:"copy_id" binding:"required"`
	LoanPeriodDays *int   `json:"loan_period_days,omitempty"` // defaults from config
}

type BorrowResponse struct {
	LoanID     int64     `json:"loan_id"`
	LoanULID   string    `json:"loan_ulid"`
	CardNo     string    `json:"card_no"`
	CopyID     string    `json:"copy_id"`
	BorrowDate time.Time `json:"borrow_date"`
	DueDate    time.Time `json:"due_date"`
}

type ReturnResponse struct {
	LoanID      int64     `json:"loan_id"`
	CopyID      string    `json:"copy_id"`
	ReturnDate  time.Time `json:"return_date"`
	FineAmount  float64   `json:"fine_amount"`
	OverdueDays int       `json:"overdue_days"`
}

type LoanResponse struct {
	LoanID     int64      `json:"loan_id"`
	LoanULID   string     `json:"loan_ulid"`
	CardNo     string     `json:"card_no"`
	CopyID     string     `json:"copy_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	FineAmount float64    `json:"fine_amount"`
	Status     string     `json:"status"`
}

type OverdueLoanResponse struct {
	LoanID      int64     `json:"loan_id"`
	CardNo      string    `json:"card_no"`
	ReaderName  string    `json:"reader_name"`
	CopyID      string    `json:"copy_id"`
	ISBN        string    `json:"isbn"`
	TitleName   string    `json:"title_name"`
	Author      string    `json:"author"`
	BorrowDate  time.Time `json:"borrow_date"`
	DueDate     time.Time `json:"due_date"`
	OverdueDays int       `json:"overdue_days"`
	AccruedFine float64   `json:"accrued_fine"`
}

func buildLoanResponse(l *Loan) LoanResponse {
	resp := LoanResponse{
		LoanID:     l.LoanID,
		LoanULID:   l.LoanULID,
		CardNo:     l.CardNo,
		CopyID:     l.CopyID,
		BorrowDate: l.BorrowDate,
		DueDate:    l.DueDate,
		FineAmount: l.FineAmount,
		Status:     l.Status,
	}
	if l.ReturnDate.Valid {
		val := l.ReturnDate.Time
		resp.ReturnDate = &val
	}
	return resp
}
