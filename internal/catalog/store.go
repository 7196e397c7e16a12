package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"biblio-backend/internal/platform/apperr"
	"biblio-backend/internal/platform/db"
)

// Failure reasons owned by this package.
const (
	ReasonTitleNotFound = "TITLE_NOT_FOUND"
	ReasonUnknownTitle  = "UNKNOWN_TITLE"
	ReasonCopyNotFound  = "COPY_NOT_FOUND"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) InsertTitle(ctx context.Context, t *Title) error {
	const q = `
	INSERT INTO titles
	(isbn, category, name, author, publisher, publish_date, price, total_copies, available_copies, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?)`
	_, err := s.db.ExecContext(ctx, q,
		t.ISBN, t.Category, t.Name, t.Author, t.Publisher,
		nullTimeOrNil(t.PublishDate), nullFloatOrNil(t.Price), nullStrOrNil(t.Description),
	)
	if err != nil {
		if mapped := apperr.FromMySQL(err); apperr.IsDuplicateKey(mapped) {
			return apperr.ErrConflict(apperr.ReasonDuplicateKey, "isbn already exists")
		}
		return apperr.FromMySQL(err)
	}
	return nil
}

func (s *Store) GetTitle(ctx context.Context, isbn string) (*Title, error) {
	const q = `
	SELECT isbn, category, name, author, publisher, publish_date, price,
	       total_copies, available_copies, description, created_at
	FROM titles WHERE isbn = ?`
	var t Title
	err := s.db.QueryRowContext(ctx, q, isbn).Scan(
		&t.ISBN, &t.Category, &t.Name, &t.Author, &t.Publisher, &t.PublishDate,
		&t.Price, &t.TotalCopies, &t.AvailableCopies, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound(ReasonTitleNotFound, "title not found")
		}
		return nil, apperr.FromMySQL(err)
	}
	return &t, nil
}

// InsertCopy inserts the copy and bumps the owning title's counters in one
// transaction. The title row is locked first so concurrent copy creation
// keeps the counters exact.
func (s *Store) InsertCopy(ctx context.Context, isbn, copyID string) (*Copy, error) {
	var out *Copy
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var owner string
		err := tx.QueryRowContext(ctx, `SELECT isbn FROM titles WHERE isbn = ? FOR UPDATE`, isbn).Scan(&owner)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.ErrNotFound(ReasonUnknownTitle, "isbn does not exist, register the title first")
			}
			return apperr.FromMySQL(err)
		}

		const ins = `
		INSERT INTO copies (copy_id, isbn, availability, ` + "`condition`" + `)
		VALUES (?, ?, 'AVAILABLE', 'NORMAL')`
		if _, err := tx.ExecContext(ctx, ins, copyID, isbn); err != nil {
			if mapped := apperr.FromMySQL(err); apperr.IsDuplicateKey(mapped) {
				return apperr.ErrConflict(apperr.ReasonDuplicateKey, "copy_id already exists")
			}
			return apperr.FromMySQL(err)
		}

		const bump = `
		UPDATE titles
		SET total_copies = total_copies + 1, available_copies = available_copies + 1
		WHERE isbn = ?`
		res, err := tx.ExecContext(ctx, bump, isbn)
		if err != nil {
			return apperr.FromMySQL(err)
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return apperr.ErrInternal("failed to update title copy counters")
		}

		return s.scanCopyTx(ctx, tx, copyID, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) scanCopyTx(ctx context.Context, tx db.DBTX, copyID string, out **Copy) error {
	const q = `
	SELECT copy_id, isbn, availability, ` + "`condition`" + `, created_at
	FROM copies WHERE copy_id = ?`
	var c Copy
	err := tx.QueryRowContext(ctx, q, copyID).Scan(&c.CopyID, &c.ISBN, &c.Availability, &c.Condition, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrInternal("inserted copy not found")
		}
		return apperr.FromMySQL(err)
	}
	*out = &c
	return nil
}

func (s *Store) GetCopy(ctx context.Context, copyID string) (*Copy, error) {
	const q = `
	SELECT copy_id, isbn, availability, ` + "`condition`" + `, created_at
	FROM copies WHERE copy_id = ?`
	var c Copy
	err := s.db.QueryRowContext(ctx, q, copyID).Scan(&c.CopyID, &c.ISBN, &c.Availability, &c.Condition, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound(ReasonCopyNotFound, "copy not found")
		}
		return nil, apperr.FromMySQL(err)
	}
	return &c, nil
}

func (s *Store) UpdateCopyCondition(ctx context.Context, copyID, condition string) (*Copy, error) {
	// RowsAffected is 0 both for a missing row and an unchanged value, so
	// check existence up front.
	if _, err := s.GetCopy(ctx, copyID); err != nil {
		return nil, err
	}
	const q = "UPDATE copies SET `condition` = ? WHERE copy_id = ?"
	if _, err := s.db.ExecContext(ctx, q, condition, copyID); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return s.GetCopy(ctx, copyID)
}

func (s *Store) ListCopies(ctx context.Context, isbn string) ([]Copy, error) {
	const q = `
	SELECT copy_id, isbn, availability, ` + "`condition`" + `, created_at
	FROM copies WHERE isbn = ? ORDER BY copy_id`
	rows, err := s.db.QueryContext(ctx, q, isbn)
	if err != nil {
		return nil, apperr.FromMySQL(err)
	}
	defer rows.Close()

	var out []Copy
	for rows.Next() {
		var c Copy
		if err := rows.Scan(&c.CopyID, &c.ISBN, &c.Availability, &c.Condition, &c.CreatedAt); err != nil {
			return nil, apperr.FromMySQL(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

// buildFindTitlesQuery builds the dynamic search. Copy counts come from a
// live aggregate over the copies table, not from the cached counters.
func buildFindTitlesQuery(f TitleFilter) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(`
	SELECT
	t.isbn, t.category, t.name, t.author, t.publisher, t.publish_date, t.price, t.description, t.created_at,
	COUNT(c.copy_id) AS total_copies,
	COALESCE(SUM(CASE WHEN c.availability = 'AVAILABLE' THEN 1 ELSE 0 END), 0) AS available_copies
	FROM titles t
	LEFT JOIN copies c ON c.isbn = t.isbn
	WHERE 1=1`)

	args := []any{}
	if f.ISBN != nil && *f.ISBN != "" {
		sb.WriteString(` AND t.isbn = ?`)
		args = append(args, *f.ISBN)
	}
	if f.Name != nil && *f.Name != "" {
		sb.WriteString(` AND LOWER(t.name) LIKE ?`)
		args = append(args, likeContains(*f.Name))
	}
	if f.Author != nil && *f.Author != "" {
		sb.WriteString(` AND LOWER(t.author) LIKE ?`)
		args = append(args, likeContains(*f.Author))
	}
	if f.Category != nil && *f.Category != "" {
		sb.WriteString(` AND LOWER(t.category) LIKE ?`)
		args = append(args, likeContains(*f.Category))
	}
	sb.WriteString(` GROUP BY t.isbn ORDER BY t.name ASC, t.isbn ASC`)
	return sb.String(), args
}

func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func (s *Store) FindTitles(ctx context.Context, f TitleFilter) ([]Title, error) {
	q, args := buildFindTitlesQuery(f)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.FromMySQL(err)
	}
	defer rows.Close()

	var out []Title
	for rows.Next() {
		var t Title
		if err := rows.Scan(
			&t.ISBN, &t.Category, &t.Name, &t.Author, &t.Publisher, &t.PublishDate,
			&t.Price, &t.Description, &t.CreatedAt, &t.TotalCopies, &t.AvailableCopies,
		); err != nil {
			return nil, apperr.FromMySQL(err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.FromMySQL(err)
	}
	return out, nil
}

func nullStrOrNil(ns sql.NullString) any {
	if ns.Valid {
		return ns.String
	}
	return nil
}

func nullTimeOrNil(nt sql.NullTime) any {
	if nt.Valid {
		return nt.Time
	}
	return nil
}

func nullFloatOrNil(nf sql.NullFloat64) any {
	if nf.Valid {
		return nf.Float64
	}
	return nil
}
