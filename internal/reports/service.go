package reports

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"biblio-backend/internal/circulation"
)

const rankLimit = 10

type Service struct {
	store      *Store
	finePerDay float64
}

func NewService(sqlDB *sql.DB, finePerDay float64) *Service {
	return &Service{
		store:      NewStore(sqlx.NewDb(sqlDB, "mysql")),
		finePerDay: finePerDay,
	}
}

func (s *Service) History(ctx context.Context, cardNo string, from, to *time.Time) ([]HistoryEntry, error) {
	return s.store.History(ctx, cardNo, from, to)
}

// Overdue annotates each entry with overdue days and the fine accrued so
// far, derived exactly the way Return would compute them.
func (s *Service) Overdue(ctx context.Context) ([]OverdueEntry, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	entries, err := s.store.Overdue(ctx, today)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].OverdueDays = circulation.OverdueDays(entries[i].DueDate, today)
		entries[i].AccruedFine = circulation.ComputeFine(entries[i].DueDate, today, s.finePerDay)
	}
	return entries, nil
}

func (s *Service) ReaderRanks(ctx context.Context) ([]ReaderRank, error) {
	return s.store.ReaderRanks(ctx, rankLimit)
}

func (s *Service) TitleRanks(ctx context.Context) ([]TitleRank, error) {
	return s.store.TitleRanks(ctx, rankLimit)
}

func (s *Service) BorrowStats(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	return s.store.BorrowStats(ctx, from, to)
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.store.Summary(ctx)
}
