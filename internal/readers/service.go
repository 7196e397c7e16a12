package readers

import (
	"context"
	"database/sql"
	"strings"

	"biblio-backend/internal/platform/apperr"
)

type Service struct {
	store           *Store
	defaultMaxLoans int
}

func NewService(db *sql.DB, defaultMaxLoans int) *Service {
	return &Service{store: NewStore(db), defaultMaxLoans: defaultMaxLoans}
}

func (s *Service) CreateReader(ctx context.Context, in CreateReaderRequest) (ReaderResponse, error) {
	if strings.TrimSpace(in.CardNo) == "" || strings.TrimSpace(in.Name) == "" {
		return ReaderResponse{}, apperr.ErrInvalid("card_no and name are required")
	}

	maxLoans := s.defaultMaxLoans
	if in.MaxLoans != nil {
		if *in.MaxLoans < 1 {
			return ReaderResponse{}, apperr.ErrInvalid("max_loans must be >= 1")
		}
		maxLoans = *in.MaxLoans
	}

	r := &Reader{
		CardNo:     strings.TrimSpace(in.CardNo),
		Name:       in.Name,
		Gender:     in.Gender,
		Department: in.Department,
		Phone:      in.Phone,
		Address:    in.Address,
		MaxLoans:   maxLoans,
		Status:     StatusActive,
	}
	if in.IDCard != nil && *in.IDCard != "" {
		r.IDCard = sql.NullString{String: *in.IDCard, Valid: true}
	}

	if err := s.store.Insert(ctx, r); err != nil {
		return ReaderResponse{}, err
	}
	// re-read for the DB-assigned registration date
	created, err := s.store.Get(ctx, r.CardNo)
	if err != nil {
		return ReaderResponse{}, err
	}
	return buildReaderResponse(created), nil
}

func (s *Service) GetReader(ctx context.Context, cardNo string) (ReaderResponse, error) {
	r, err := s.store.Get(ctx, cardNo)
	if err != nil {
		return ReaderResponse{}, err
	}
	return buildReaderResponse(r), nil
}

func (s *Service) UpdateReader(ctx context.Context, cardNo string, in UpdateReaderRequest) (ReaderResponse, error) {
	if in.Status != nil && !validStatus(*in.Status) {
		return ReaderResponse{}, apperr.ErrInvalid("status must be ACTIVE or SUSPENDED")
	}
	if in.MaxLoans != nil && *in.MaxLoans < 1 {
		return ReaderResponse{}, apperr.ErrInvalid("max_loans must be >= 1")
	}
	r, err := s.store.Update(ctx, cardNo, in)
	if err != nil {
		return ReaderResponse{}, err
	}
	return buildReaderResponse(r), nil
}

func (s *Service) FindReaders(ctx context.Context, f ReaderFilter) ([]ReaderResponse, error) {
	found, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]ReaderResponse, 0, len(found))
	for i := range found {
		out = append(out, buildReaderResponse(&found[i]))
	}
	return out, nil
}
