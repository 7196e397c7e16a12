package circulation

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"biblio-backend/internal/platform/apperr"
	"biblio-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const loanColumns = `
	loan_id, loan_ulid, card_no, copy_id, borrow_date, due_date, return_date, fine_amount, status`

// lockedReader is the subset of the reader row Borrow/Return decide on.
type lockedReader struct {
	MaxLoans         int
	CurrentLoanCount int
	Status           string
}

// lockReaderRow takes the row lock on the reader. Always called before
// lockCopyRow so concurrent Borrow/Return pairs lock in one order.
func lockReaderRow(ctx context.Context, tx db.DBTX, cardNo string) (*lockedReader, error) {
	const q = `SELECT max_loans, current_loan_count, status FROM readers WHERE card_no = ? FOR UPDATE`
	var r lockedReader
	if err := tx.QueryRowContext(ctx, q, cardNo).Scan(&r.MaxLoans, &r.CurrentLoanCount, &r.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errReaderNotFound()
		}
		return nil, apperr.FromMySQL(err)
	}
	return &r, nil
}

type lockedCopy struct {
	ISBN         string
	Availability string
	Condition    string
}

func lockCopyRow(ctx context.Context, tx db.DBTX, copyID string) (*lockedCopy, error) {
	const q = "SELECT isbn, availability, `condition` FROM copies WHERE copy_id = ? FOR UPDATE"
	var c lockedCopy
	if err := tx.QueryRowContext(ctx, q, copyID).Scan(&c.ISBN, &c.Availability, &c.Condition); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errCopyNotFound()
		}
		return nil, apperr.FromMySQL(err)
	}
	return &c, nil
}

// ExecBorrow runs the whole Borrow transition in one transaction: the
// precondition checks against locked rows, the loan insert, and the three
// counter updates. Either everything commits or nothing changed.
func (s *Store) ExecBorrow(ctx context.Context, loanULID, cardNo, copyID string, borrowDate, dueDate time.Time) (*Loan, error) {
	var out *Loan
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		reader, err := lockReaderRow(ctx, tx, cardNo)
		if err != nil {
			return err
		}
		if reader.Status != "ACTIVE" {
			return errReaderSuspended()
		}
		if reader.CurrentLoanCount >= reader.MaxLoans {
			return errQuotaExceeded()
		}

		cp, err := lockCopyRow(ctx, tx, copyID)
		if err != nil {
			return err
		}
		if cp.Availability != "AVAILABLE" {
			return errCopyUnavailable(cp.Availability)
		}
		if cp.Condition != "NORMAL" {
			return errCopyDamagedOrLost(cp.Condition)
		}

		const ins = `
		INSERT INTO loans (loan_ulid, card_no, copy_id, borrow_date, due_date, status)
		VALUES (?, ?, ?, ?, ?, 'OPEN')`
		res, err := tx.ExecContext(ctx, ins, loanULID, cardNo, copyID, borrowDate, dueDate)
		if err != nil {
			// uq_loans_open_copy is the backstop should the row lock ever be
			// bypassed; a duplicate here means someone else holds the copy.
			if mapped := apperr.FromMySQL(err); apperr.IsDuplicateKey(mapped) {
				return errCopyUnavailable("ON_LOAN")
			}
			return apperr.FromMySQL(err)
		}
		loanID, _ := res.LastInsertId()

		if err := setCopyAvailability(ctx, tx, copyID, "ON_LOAN"); err != nil {
			return err
		}
		if err := bumpTitleAvailable(ctx, tx, cp.ISBN, -1); err != nil {
			return err
		}
		if err := bumpReaderLoanCount(ctx, tx, cardNo, +1); err != nil {
			return err
		}

		out = &Loan{
			LoanID:     loanID,
			LoanULID:   loanULID,
			CardNo:     cardNo,
			CopyID:     copyID,
			BorrowDate: borrowDate,
			DueDate:    dueDate,
			Status:     StatusOpen,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecReturn closes the loan and reverses the Borrow counter updates in one
// transaction. The fine is computed against the locked loan's due date and
// written exactly once.
func (s *Store) ExecReturn(ctx context.Context, loanID int64, returnDate time.Time, ratePerDay float64) (*Loan, int, error) {
	var (
		out         *Loan
		overdueDays int
	)
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		const q = `SELECT` + loanColumns + ` FROM loans WHERE loan_id = ? FOR UPDATE`
		var l Loan
		err := tx.QueryRowContext(ctx, q, loanID).Scan(
			&l.LoanID, &l.LoanULID, &l.CardNo, &l.CopyID, &l.BorrowDate, &l.DueDate,
			&l.ReturnDate, &l.FineAmount, &l.Status,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errLoanNotFound()
			}
			return apperr.FromMySQL(err)
		}
		if l.Status == StatusReturned {
			return errAlreadyReturned()
		}

		// same lock order as Borrow: reader row, then copy row
		if _, err := lockReaderRow(ctx, tx, l.CardNo); err != nil {
			return err
		}
		cp, err := lockCopyRow(ctx, tx, l.CopyID)
		if err != nil {
			return err
		}

		overdueDays = OverdueDays(l.DueDate, returnDate)
		fine := ComputeFine(l.DueDate, returnDate, ratePerDay)

		const closeQ = `
		UPDATE loans SET return_date = ?, fine_amount = ?, status = 'RETURNED'
		WHERE loan_id = ?`
		res, err := tx.ExecContext(ctx, closeQ, returnDate, fine, loanID)
		if err != nil {
			return apperr.FromMySQL(err)
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return apperr.ErrInternal("failed to close loan")
		}

		if err := setCopyAvailability(ctx, tx, l.CopyID, "AVAILABLE"); err != nil {
			return err
		}
		if err := bumpTitleAvailable(ctx, tx, cp.ISBN, +1); err != nil {
			return err
		}
		if err := bumpReaderLoanCount(ctx, tx, l.CardNo, -1); err != nil {
			return err
		}

		l.ReturnDate = sql.NullTime{Time: returnDate, Valid: true}
		l.FineAmount = fine
		l.Status = StatusReturned
		out = &l
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, overdueDays, nil
}

func setCopyAvailability(ctx context.Context, tx db.DBTX, copyID, availability string) error {
	res, err := tx.ExecContext(ctx, `UPDATE copies SET availability = ? WHERE copy_id = ?`, availability, copyID)
	if err != nil {
		return apperr.FromMySQL(err)
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apperr.ErrInternal("failed to update copy availability")
	}
	return nil
}

func bumpTitleAvailable(ctx context.Context, tx db.DBTX, isbn string, delta int) error {
	const q = `UPDATE titles SET available_copies = GREATEST(available_copies + ?, 0) WHERE isbn = ?`
	res, err := tx.ExecContext(ctx, q, delta, isbn)
	if err != nil {
		return apperr.FromMySQL(err)
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apperr.ErrInternal("failed to update title available count")
	}
	return nil
}

func bumpReaderLoanCount(ctx context.Context, tx db.DBTX, cardNo string, delta int) error {
	const q = `UPDATE readers SET current_loan_count = GREATEST(current_loan_count + ?, 0) WHERE card_no = ?`
	res, err := tx.ExecContext(ctx, q, delta, cardNo)
	if err != nil {
		return apperr.FromMySQL(err)
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apperr.ErrInternal("failed to update reader loan count")
	}
	return nil
}

// ---- queries ----

func (s *Store) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	const q = `SELECT` + loanColumns + ` FROM loans WHERE loan_id = ?`
	return s.scanLoan(s.db.QueryRowContext(ctx, q, loanID))
}

func (s *Store) GetLoanByULID(ctx context.Context, ulid string) (*Loan, error) {
	const q = `SELECT` + loanColumns + ` FROM loans WHERE loan_ulid = ?`
	return s.scanLoan(s.db.QueryRowContext(ctx, q, ulid))
}

func (s *Store) scanLoan(row *sql.Row) (*Loan, error) {
	var l Loan
	err := row.Scan(
		&l.LoanID, &l.LoanULID, &l.CardNo, &l.CopyID, &l.BorrowDate, &l.DueDate,
		&l.ReturnDate, &l.FineAmount, &l.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errLoanNotFound()
		}
		return nil, apperr.FromMySQL(err)
	}
	return &l, nil
}

// FindOpenLoanForCopy returns the single OPEN loan for the copy, or nil when
// the copy is not on loan. The unique key guarantees at most one row.
func (s *Store) FindOpenLoanForCopy(ctx context.Context, copyID string) (*Loan, error) {
	const q = `SELECT` + loanColumns + ` FROM loans WHERE copy_id = ? AND status = 'OPEN' LIMIT 1`
	l, err := s.scanLoan(s.db.QueryRowContext(ctx, q, copyID))
	if err != nil {
		if apperr.Reason(err) == ReasonLoanNotFound {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// buildListLoansQuery builds the dynamic WHERE for ListLoans.
func buildListLoansQuery(f LoanFilter, p Page) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT` + loanColumns + ` FROM loans WHERE 1=1`)

	args := []any{}
	if f.CardNo != nil && *f.CardNo != "" {
		sb.WriteString(` AND card_no = ?`)
		args = append(args, *f.CardNo)
	}
	if f.CopyID != nil && *f.CopyID != "" {
		sb.WriteString(` AND copy_id = ?`)
		args = append(args, *f.CopyID)
	}
	if f.Open != nil {
		if *f.Open {
			sb.WriteString(` AND status = 'OPEN'`)
		} else {
			sb.WriteString(` AND status = 'RETURNED'`)
		}
	}
	if f.From != nil {
		sb.WriteString(` AND borrow_date >= ?`)
		args = append(args, *f.From)
	}
	if f.To != nil {
		sb.WriteString(` AND borrow_date < ?`)
		args = append(args, *f.To)
	}
	sb.WriteString(` ORDER BY borrow_date DESC, loan_id DESC`)

	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, p.Limit, p.Offset)

	return sb.String(), args
}

func (s *Store) ListLoans(ctx context.Context, f LoanFilter, p Page) ([]Loan, error) {
	q, args := buildListLoansQuery(f, p)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.FromMySQL(err)
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.LoanID, &l.LoanULID, &l.CardNo, &l.CopyID, &l.BorrowDate, &l.DueDate,
			&l.ReturnDate, &l.FineAmount, &l.Status,
		); err != nil {
			return nil, apperr.FromMySQL(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

// ListOverdue reads the live ledger: every OPEN loan with due_date before
// today, joined with reader and title data. No caching.
func (s *Store) ListOverdue(ctx context.Context, today time.Time) ([]OverdueLoan, error) {
	const q = `
	SELECT
	l.loan_id, l.loan_ulid, l.card_no, l.copy_id, l.borrow_date, l.due_date, l.return_date, l.fine_amount, l.status,
	r.name, c.isbn, t.name, t.author
	FROM loans l
	JOIN readers r ON r.card_no = l.card_no
	JOIN copies c  ON c.copy_id = l.copy_id
	JOIN titles t  ON t.isbn = c.isbn
	WHERE l.status = 'OPEN' AND l.due_date < ?
	ORDER BY l.due_date ASC, l.loan_id ASC`

	rows, err := s.db.QueryContext(ctx, q, civilDate(today))
	if err != nil {
		return nil, apperr.FromMySQL(err)
	}
	defer rows.Close()

	var out []OverdueLoan
	for rows.Next() {
		var o OverdueLoan
		if err := rows.Scan(
			&o.Loan.LoanID, &o.Loan.LoanULID, &o.Loan.CardNo, &o.Loan.CopyID,
			&o.Loan.BorrowDate, &o.Loan.DueDate, &o.Loan.ReturnDate, &o.Loan.FineAmount, &o.Loan.Status,
			&o.ReaderName, &o.ISBN, &o.TitleName, &o.Author,
		); err != nil {
			return nil, apperr.FromMySQL(err)
		}
		o.OverdueDays = OverdueDays(o.Loan.DueDate, today)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}
