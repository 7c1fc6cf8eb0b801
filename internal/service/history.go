package service

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hazard/internal/biz"
	"hazard/internal/pkg/hash"
	"hazard/internal/pkg/hazard"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// AnalysisView is the JSON shape of a stored analysis.
type AnalysisView struct {
	ID             string              `json:"id"`
	MediaURL       string              `json:"media_url"`
	MediaType      string              `json:"media_type"`
	FileHash       string              `json:"file_hash"`
	PHash          string              `json:"phash,omitempty"`
	FramesSampled  int                 `json:"frames_sampled,omitempty"`
	Description    string              `json:"description"`
	DangerZone     string              `json:"danger_zone"`
	TopHazardScore string              `json:"top_hazard_score"`
	HazardAnalysis hazard.RankedScores `json:"hazard_analysis"`
	CapturedAt     *time.Time          `json:"captured_at,omitempty"`
	Latitude       *float64            `json:"latitude,omitempty"`
	Longitude      *float64            `json:"longitude,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// ListAnalysesRequest selects a page of history.
type ListAnalysesRequest struct {
	Cursor string
	Limit  int
	Zone   string
}

// ListAnalysesReply is one page of history.
type ListAnalysesReply struct {
	Items      []*AnalysisView `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

// HistoryService serves the analysis history.
type HistoryService struct {
	uc *biz.HistoryUsecase
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(uc *biz.HistoryUsecase) *HistoryService {
	return &HistoryService{uc: uc}
}

func (s *HistoryService) ListAnalyses(ctx context.Context, in *ListAnalysesRequest) (*ListAnalysesReply, error) {
	page, err := s.uc.List(ctx, in.Cursor, in.Limit, in.Zone)
	if err != nil {
		return nil, err
	}
	reply := &ListAnalysesReply{
		Items:      make([]*AnalysisView, len(page.Items)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for i, rec := range page.Items {
		reply.Items[i] = toView(rec)
	}
	return reply, nil
}

func (s *HistoryService) GetAnalysis(ctx context.Context, id string) (*AnalysisView, error) {
	rec, err := s.uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toView(rec), nil
}

// ListAnalysesHTTP handles GET /analyses?limit=&cursor=&zone=.
func (s *HistoryService) ListAnalysesHTTP(ctx khttp.Context) error {
	q := ctx.Query()
	in := &ListAnalysesRequest{Cursor: q.Get("cursor"), Zone: q.Get("zone")}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return biz.ErrInvalidRequest
		}
		in.Limit = limit
	}
	khttp.SetOperation(ctx, OperationListAnalyses)
	h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.ListAnalyses(ctx, req.(*ListAnalysesRequest))
	})
	out, err := h(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Result(http.StatusOK, out)
}

// GetAnalysisHTTP handles GET /analyses/{id}.
func (s *HistoryService) GetAnalysisHTTP(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationGetAnalysis)
	h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.GetAnalysis(ctx, req.(string))
	})
	out, err := h(ctx, ctx.Vars().Get("id"))
	if err != nil {
		return err
	}
	return ctx.Result(http.StatusOK, out)
}

func toView(rec *biz.AnalysisRecord) *AnalysisView {
	v := &AnalysisView{
		ID:             rec.ID,
		MediaURL:       rec.MediaURL,
		MediaType:      rec.MediaType.String(),
		FileHash:       rec.FileHash,
		FramesSampled:  rec.FramesSampled,
		Description:    rec.Description,
		DangerZone:     rec.DangerZone.String(),
		TopHazardScore: hazard.FormatPercent(rec.TopHazardScore),
		HazardAnalysis: rec.HazardAnalysis,
		CapturedAt:     rec.CapturedAt,
		Latitude:       rec.Latitude,
		Longitude:      rec.Longitude,
		CreatedAt:      rec.CreatedAt,
	}
	if rec.PHash != nil {
		v.PHash = (&hash.ImageHash{Hash: uint64(*rec.PHash)}).String()
	}
	return v
}
