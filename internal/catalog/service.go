package catalog

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"biblio-backend/internal/platform/apperr"
)

type Service struct {
	store *Store
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) CreateTitle(ctx context.Context, in CreateTitleRequest) (TitleResponse, error) {
	if strings.TrimSpace(in.ISBN) == "" || strings.TrimSpace(in.Name) == "" {
		return TitleResponse{}, apperr.ErrInvalid("isbn and name are required")
	}

	t := &Title{
		ISBN:      strings.TrimSpace(in.ISBN),
		Category:  in.Category,
		Name:      in.Name,
		Author:    in.Author,
		Publisher: in.Publisher,
	}
	if in.PublishDate != nil && *in.PublishDate != "" {
		parsed, err := time.Parse("2006-01-02", *in.PublishDate)
		if err != nil {
			return TitleResponse{}, apperr.ErrInvalid("invalid publish_date format, expected YYYY-MM-DD")
		}
		t.PublishDate = sql.NullTime{Time: parsed, Valid: true}
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return TitleResponse{}, apperr.ErrInvalid("price must be >= 0")
		}
		t.Price = sql.NullFloat64{Float64: *in.Price, Valid: true}
	}
	if in.Description != nil && *in.Description != "" {
		t.Description = sql.NullString{String: *in.Description, Valid: true}
	}

	if err := s.store.InsertTitle(ctx, t); err != nil {
		return TitleResponse{}, err
	}
	return buildTitleResponse(t), nil
}

func (s *Service) GetTitle(ctx context.Context, isbn string) (TitleResponse, error) {
	t, err := s.store.GetTitle(ctx, isbn)
	if err != nil {
		return TitleResponse{}, err
	}
	return buildTitleResponse(t), nil
}

func (s *Service) CreateCopy(ctx context.Context, in CreateCopyRequest) (CopyResponse, error) {
	if strings.TrimSpace(in.ISBN) == "" || strings.TrimSpace(in.CopyID) == "" {
		return CopyResponse{}, apperr.ErrInvalid("isbn and copy_id are required")
	}
	c, err := s.store.InsertCopy(ctx, strings.TrimSpace(in.ISBN), strings.TrimSpace(in.CopyID))
	if err != nil {
		return CopyResponse{}, err
	}
	return buildCopyResponse(c), nil
}

func (s *Service) SetCopyCondition(ctx context.Context, copyID string, in SetCopyConditionRequest) (CopyResponse, error) {
	if !validCondition(in.Condition) {
		return CopyResponse{}, apperr.ErrInvalid("condition must be one of NORMAL, DAMAGED, LOST")
	}
	c, err := s.store.UpdateCopyCondition(ctx, copyID, in.Condition)
	if err != nil {
		return CopyResponse{}, err
	}
	return buildCopyResponse(c), nil
}

func (s *Service) ListCopies(ctx context.Context, isbn string) ([]CopyResponse, error) {
	if _, err := s.store.GetTitle(ctx, isbn); err != nil {
		return nil, err
	}
	copies, err := s.store.ListCopies(ctx, isbn)
	if err != nil {
		return nil, err
	}
	out := make([]CopyResponse, 0, len(copies))
	for i := range copies {
		out = append(out, buildCopyResponse(&copies[i]))
	}
	return out, nil
}

func (s *Service) FindTitles(ctx context.Context, f TitleFilter) ([]TitleResponse, error) {
	titles, err := s.store.FindTitles(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]TitleResponse, 0, len(titles))
	for i := range titles {
		out = append(out, buildTitleResponse(&titles[i]))
	}
	return out, nil
}
