package circulation

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"biblio-backend/internal/platform/apperr"
	"biblio-backend/internal/platform/db"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Policy is the circulation configuration, fixed at startup.
type Policy struct {
	LoanPeriodDays int
	FinePerDay     float64
}

func PolicyFromConfig(c db.CirculationConfig) Policy {
	return Policy{LoanPeriodDays: c.LoanPeriodDays, FinePerDay: c.FinePerDay}
}

type Service struct {
	store  *Store
	policy Policy
	clock  Clock
	id     IDGen
}

func NewService(sqlDB *sql.DB, policy Policy) *Service {
	return &Service{
		store:  NewStore(sqlDB),
		policy: policy,
		clock:  realClock{},
		id:     ulidGen{},
	}
}

// Borrow validates the reader and the copy and commits the loan plus the
// three counter updates as one transaction. A lock conflict is retried once
// with freshly read state before it is surfaced.
func (s *Service) Borrow(ctx context.Context, req BorrowRequest) (*BorrowResponse, error) {
	if req.CardNo == "" {
		return nil, apperr.ErrInvalid("card_no is required")
	}
	if req.CopyID == "" {
		return nil, apperr.ErrInvalid("copy_id is required")
	}

	periodDays := s.policy.LoanPeriodDays
	if req.LoanPeriodDays != nil {
		if *req.LoanPeriodDays < 1 {
			return nil, apperr.ErrInvalid("loan_period_days must be >= 1")
		}
		periodDays = *req.LoanPeriodDays
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, apperr.ErrInternal("failed to generate loan id: " + err.Error())
	}

	now := s.clock.Now()
	borrowDate := civilDate(now)
	dueDate := DueDate(now, periodDays)

	loan, err := s.store.ExecBorrow(ctx, idStr, req.CardNo, req.CopyID, borrowDate, dueDate)
	if apperr.IsLockConflict(err) {
		loan, err = s.store.ExecBorrow(ctx, idStr, req.CardNo, req.CopyID, borrowDate, dueDate)
	}
	if err != nil {
		return nil, err
	}

	return &BorrowResponse{
		LoanID:     loan.LoanID,
		LoanULID:   loan.LoanULID,
		CardNo:     loan.CardNo,
		CopyID:     loan.CopyID,
		BorrowDate: loan.BorrowDate,
		DueDate:    loan.DueDate,
	}, nil
}

// Return closes the loan, computes the fine once, and reverses the Borrow
// counter updates. Calling it again for the same loan fails ALREADY_RETURNED
// without touching any state.
func (s *Service) Return(ctx context.Context, loanID int64) (*ReturnResponse, error) {
	if loanID <= 0 {
		return nil, apperr.ErrInvalid("loan_id must be > 0")
	}

	returnDate := civilDate(s.clock.Now())

	loan, overdueDays, err := s.store.ExecReturn(ctx, loanID, returnDate, s.policy.FinePerDay)
	if apperr.IsLockConflict(err) {
		loan, overdueDays, err = s.store.ExecReturn(ctx, loanID, returnDate, s.policy.FinePerDay)
	}
	if err != nil {
		return nil, err
	}

	return &ReturnResponse{
		LoanID:      loan.LoanID,
		CopyID:      loan.CopyID,
		ReturnDate:  loan.ReturnDate.Time,
		FineAmount:  loan.FineAmount,
		OverdueDays: overdueDays,
	}, nil
}

func (s *Service) GetLoan(ctx context.Context, loanID int64) (*LoanResponse, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	resp := buildLoanResponse(loan)
	return &resp, nil
}

// FindOpenLoanForCopy resolves the active loan for a scanned copy, or
// LOAN_NOT_FOUND when the copy is on the shelf.
func (s *Service) FindOpenLoanForCopy(ctx context.Context, copyID string) (*LoanResponse, error) {
	if copyID == "" {
		return nil, apperr.ErrInvalid("copy_id is required")
	}
	loan, err := s.store.FindOpenLoanForCopy(ctx, copyID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, errLoanNotFound()
	}
	resp := buildLoanResponse(loan)
	return &resp, nil
}

func (s *Service) ListLoans(ctx context.Context, f LoanFilter, p Page) ([]LoanResponse, error) {
	loans, err := s.store.ListLoans(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := make([]LoanResponse, 0, len(loans))
	for i := range loans {
		out = append(out, buildLoanResponse(&loans[i]))
	}
	return out, nil
}

// ListOverdue annotates each overdue loan with the fine accrued so far, using
// the same derivation Return applies at close time.
func (s *Service) ListOverdue(ctx context.Context) ([]OverdueLoanResponse, error) {
	today := s.clock.Now()
	overdue, err := s.store.ListOverdue(ctx, today)
	if err != nil {
		return nil, err
	}
	out := make([]OverdueLoanResponse, 0, len(overdue))
	for _, o := range overdue {
		out = append(out, OverdueLoanResponse{
			LoanID:      o.Loan.LoanID,
			CardNo:      o.Loan.CardNo,
			ReaderName:  o.ReaderName,
			CopyID:      o.Loan.CopyID,
			ISBN:        o.ISBN,
			TitleName:   o.TitleName,
			Author:      o.Author,
			BorrowDate:  o.Loan.BorrowDate,
			DueDate:     o.Loan.DueDate,
			OverdueDays: o.OverdueDays,
			AccruedFine: ComputeFine(o.Loan.DueDate, today, s.policy.FinePerDay),
		})
	}
	return out, nil
}
