package service

import (
	"context"
	"net/http"

	"hazard/internal/biz"
	"hazard/internal/pkg/hazard"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// AnalysisService serves POST /analyze.
type AnalysisService struct {
	uc *biz.AnalysisUsecase
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(uc *biz.AnalysisUsecase) *AnalysisService {
	return &AnalysisService{uc: uc}
}

// Analyze fetches and analyses the referenced media.
func (s *AnalysisService) Analyze(ctx context.Context, in *biz.AnalyzeRequest) (*hazard.Result, error) {
	return s.uc.Analyze(ctx, in)
}

// AnalyzeHTTP decodes the JSON body and runs Analyze through the server middleware.
func (s *AnalysisService) AnalyzeHTTP(ctx khttp.Context) error {
	var in biz.AnalyzeRequest
	if err := ctx.Bind(&in); err != nil {
		return biz.ErrInvalidRequest.WithCause(err)
	}
	khttp.SetOperation(ctx, OperationAnalyze)
	h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
		return s.Analyze(ctx, req.(*biz.AnalyzeRequest))
	})
	out, err := h(ctx, &in)
	if err != nil {
		return err
	}
	return ctx.Result(http.StatusOK, out)
}
