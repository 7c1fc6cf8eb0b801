package biz

import (
	"context"
	"errors"

	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/pagination"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// HistoryQuery selects a page of analyses, newest first.
type HistoryQuery struct {
	Limit int // rows to fetch, including one look-ahead row
	After *pagination.Cursor
	Zone  *hazard.DangerZone
}

// HistoryUsecase exposes stored analyses.
type HistoryUsecase struct {
	repo AnalysisRepo
	log  *log.Helper
}

// NewHistoryUsecase creates a new HistoryUsecase.
func NewHistoryUsecase(repo AnalysisRepo, logger log.Logger) *HistoryUsecase {
	return &HistoryUsecase{
		repo: repo,
		log:  log.NewHelper(log.With(logger, "module", "biz/history")),
	}
}

// List returns one page of analyses. zone may be empty or a zone name.
func (uc *HistoryUsecase) List(ctx context.Context, cursor string, limit int, zone string) (*pagination.CursorResponse[*AnalysisRecord], error) {
	req := pagination.NewCursorRequest(cursor, limit)
	after, err := req.DecodedCursor()
	if err != nil {
		return nil, ErrInvalidRequest.WithCause(err)
	}
	q := &HistoryQuery{Limit: req.GetFetchLimit(), After: after}
	if zone != "" {
		z, ok := hazard.ParseZone(zone)
		if !ok {
			return nil, ErrInvalidRequest
		}
		q.Zone = &z
	}

	records, err := uc.repo.List(ctx, q)
	if err != nil {
		return nil, uc.repoError(ctx, err)
	}
	return pagination.BuildCursorResponse(records, req.GetLimit(), func(r *AnalysisRecord) *pagination.Cursor {
		return &pagination.Cursor{ID: r.ID, CreatedAt: r.CreatedAt}
	}), nil
}

// Get returns a single analysis by id.
func (uc *HistoryUsecase) Get(ctx context.Context, id string) (*AnalysisRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRecordNotFound
	}
	rec, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, uc.repoError(ctx, err)
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

func (uc *HistoryUsecase) repoError(ctx context.Context, err error) error {
	if errors.Is(err, ErrHistoryUnavailable) {
		return ErrHistoryUnavailable
	}
	uc.log.WithContext(ctx).Errorf("history query: %v", err)
	return ErrAnalysisFailed.WithCause(err)
}
