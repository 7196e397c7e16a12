package reports

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"biblio-backend/internal/platform/apperr"
)

// Store runs every reporting query through sqlx against read-committed
// snapshots; it never takes row locks and never mutates state.
type Store struct{ db *sqlx.DB }

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

const historySelect = `
	SELECT
	l.loan_id, l.card_no, r.name AS reader_name, l.copy_id, c.isbn,
	t.name AS title_name, t.author, l.borrow_date, l.due_date, l.return_date, l.fine_amount,
	CASE
	    WHEN l.return_date IS NULL AND l.due_date < CURDATE() THEN 'OVERDUE'
	    WHEN l.return_date IS NULL THEN 'OPEN'
	    WHEN l.return_date > l.due_date THEN 'RETURNED_LATE'
	    ELSE 'RETURNED'
	END AS status
	FROM loans l
	JOIN readers r ON r.card_no = l.card_no
	JOIN copies c  ON c.copy_id = l.copy_id
	JOIN titles t  ON t.isbn = c.isbn`

func (s *Store) History(ctx context.Context, cardNo string, from, to *time.Time) ([]HistoryEntry, error) {
	sb := strings.Builder{}
	sb.WriteString(historySelect)
	sb.WriteString(` WHERE 1=1`)

	args := []any{}
	if cardNo != "" {
		sb.WriteString(` AND l.card_no = ?`)
		args = append(args, cardNo)
	}
	if from != nil {
		sb.WriteString(` AND l.borrow_date >= ?`)
		args = append(args, *from)
	}
	if to != nil {
		sb.WriteString(` AND l.borrow_date < ?`)
		args = append(args, *to)
	}
	sb.WriteString(` ORDER BY l.borrow_date DESC, l.loan_id DESC`)

	var out []HistoryEntry
	if err := s.db.SelectContext(ctx, &out, sb.String(), args...); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

func (s *Store) Overdue(ctx context.Context, today time.Time) ([]OverdueEntry, error) {
	const q = `
	SELECT
	l.loan_id, l.card_no, r.name AS reader_name, l.copy_id, c.isbn,
	t.name AS title_name, l.borrow_date, l.due_date
	FROM loans l
	JOIN readers r ON r.card_no = l.card_no
	JOIN copies c  ON c.copy_id = l.copy_id
	JOIN titles t  ON t.isbn = c.isbn
	WHERE l.status = 'OPEN' AND l.due_date < ?
	ORDER BY l.due_date ASC, l.loan_id ASC`

	var out []OverdueEntry
	if err := s.db.SelectContext(ctx, &out, q, today); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

func (s *Store) ReaderRanks(ctx context.Context, limit int) ([]ReaderRank, error) {
	const q = `
	SELECT r.card_no, r.name AS reader_name, COUNT(l.loan_id) AS borrow_count
	FROM readers r
	LEFT JOIN loans l ON l.card_no = r.card_no
	GROUP BY r.card_no, r.name
	ORDER BY borrow_count DESC, r.card_no ASC
	LIMIT ?`

	var out []ReaderRank
	if err := s.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

func (s *Store) TitleRanks(ctx context.Context, limit int) ([]TitleRank, error) {
	const q = `
	SELECT t.isbn, t.name AS title_name, COUNT(l.loan_id) AS borrow_count
	FROM titles t
	JOIN copies c ON c.isbn = t.isbn
	LEFT JOIN loans l ON l.copy_id = c.copy_id
	GROUP BY t.isbn, t.name
	ORDER BY borrow_count DESC, t.isbn ASC
	LIMIT ?`

	var out []TitleRank
	if err := s.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

func (s *Store) BorrowStats(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	const q = `
	SELECT DATE_FORMAT(borrow_date, '%Y-%m-%d') AS day, COUNT(*) AS cnt
	FROM loans
	WHERE borrow_date >= ? AND borrow_date < ?
	GROUP BY day
	ORDER BY day ASC`

	var out []DayCount
	if err := s.db.SelectContext(ctx, &out, q, from, to); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

func (s *Store) Summary(ctx context.Context) (*Summary, error) {
	const q = `
	SELECT
	(SELECT COUNT(*) FROM loans WHERE status = 'OPEN')                        AS current_loans,
	(SELECT COUNT(*) FROM loans)                                              AS total_loans,
	(SELECT COUNT(*) FROM loans WHERE status = 'OPEN' AND due_date < CURDATE()) AS overdue_loans,
	(SELECT COUNT(*) FROM readers)                                            AS total_readers,
	(SELECT COUNT(DISTINCT card_no) FROM loans
	 WHERE borrow_date >= DATE_SUB(CURDATE(), INTERVAL 30 DAY))               AS active_readers,
	(SELECT COUNT(*) FROM titles)                                             AS total_titles,
	(SELECT COUNT(*) FROM copies)                                             AS total_copies`

	var out Summary
	if err := s.db.GetContext(ctx, &out, q); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return &out, nil
}
