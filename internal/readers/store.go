package readers

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"biblio-backend/internal/platform/apperr"
)

const ReasonReaderNotFound = "READER_NOT_FOUND"

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const readerColumns = `
	card_no, name, gender, id_card, department, phone, address,
	max_loans, current_loan_count, status, registration_date`

func scanReader(row *sql.Row) (*Reader, error) {
	var r Reader
	err := row.Scan(
		&r.CardNo, &r.Name, &r.Gender, &r.IDCard, &r.Department, &r.Phone, &r.Address,
		&r.MaxLoans, &r.CurrentLoanCount, &r.Status, &r.RegistrationDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound(ReasonReaderNotFound, "reader not found")
		}
		return nil, apperr.FromMySQL(err)
	}
	return &r, nil
}

func (s *Store) Insert(ctx context.Context, r *Reader) error {
	const q = `
	INSERT INTO readers
	(card_no, name, gender, id_card, department, phone, address,
	 max_loans, current_loan_count, status, registration_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 'ACTIVE', CURDATE())`
	_, err := s.db.ExecContext(ctx, q,
		r.CardNo, r.Name, r.Gender, nullStrOrNil(r.IDCard),
		r.Department, r.Phone, r.Address, r.MaxLoans,
	)
	if err != nil {
		if mapped := apperr.FromMySQL(err); apperr.IsDuplicateKey(mapped) {
			return apperr.ErrConflict(apperr.ReasonDuplicateKey, "card_no or id_card already exists")
		}
		return apperr.FromMySQL(err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, cardNo string) (*Reader, error) {
	const q = `SELECT` + readerColumns + ` FROM readers WHERE card_no = ?`
	return scanReader(s.db.QueryRowContext(ctx, q, cardNo))
}

func (s *Store) Update(ctx context.Context, cardNo string, in UpdateReaderRequest) (*Reader, error) {
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *in.Name)
	}
	if in.Gender != nil {
		sets = append(sets, "gender = ?")
		args = append(args, *in.Gender)
	}
	if in.Department != nil {
		sets = append(sets, "department = ?")
		args = append(args, *in.Department)
	}
	if in.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *in.Phone)
	}
	if in.Address != nil {
		sets = append(sets, "address = ?")
		args = append(args, *in.Address)
	}
	if in.MaxLoans != nil {
		sets = append(sets, "max_loans = ?")
		args = append(args, *in.MaxLoans)
	}
	if in.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *in.Status)
	}
	if len(sets) == 0 {
		return s.Get(ctx, cardNo)
	}

	q := "UPDATE readers SET " + strings.Join(sets, ", ") + " WHERE card_no = ?"
	args = append(args, cardNo)

	if _, err := s.Get(ctx, cardNo); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if mapped := apperr.FromMySQL(err); apperr.IsDuplicateKey(mapped) {
			return nil, mapped
		}
		return nil, apperr.FromMySQL(err)
	}
	return s.Get(ctx, cardNo)
}

func (s *Store) Find(ctx context.Context, f ReaderFilter) ([]Reader, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT` + readerColumns + ` FROM readers WHERE 1=1`)

	args := []any{}
	if f.CardNo != nil && *f.CardNo != "" {
		sb.WriteString(` AND card_no = ?`)
		args = append(args, *f.CardNo)
	}
	if f.Name != nil && *f.Name != "" {
		sb.WriteString(` AND LOWER(name) LIKE ?`)
		args = append(args, likeContains(*f.Name))
	}
	if f.Department != nil && *f.Department != "" {
		sb.WriteString(` AND LOWER(department) LIKE ?`)
		args = append(args, likeContains(*f.Department))
	}
	sb.WriteString(` ORDER BY card_no ASC`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperr.FromMySQL(err)
	}
	defer rows.Close()

	var out []Reader
	for rows.Next() {
		var r Reader
		if err := rows.Scan(
			&r.CardNo, &r.Name, &r.Gender, &r.IDCard, &r.Department, &r.Phone, &r.Address,
			&r.MaxLoans, &r.CurrentLoanCount, &r.Status, &r.RegistrationDate,
		); err != nil {
			return nil, apperr.FromMySQL(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}
