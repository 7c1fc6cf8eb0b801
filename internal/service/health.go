package service

import (
	"net/http"

	"hazard/internal/biz"

	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// HealthService reports backend reachability.
type HealthService struct {
	uc *biz.HealthUsecase
}

// NewHealthService creates a new HealthService.
func NewHealthService(uc *biz.HealthUsecase) *HealthService {
	return &HealthService{uc: uc}
}

// CheckHTTP answers 200 when every required dependency is reachable, 503 otherwise.
func (s *HealthService) CheckHTTP(ctx khttp.Context) error {
	khttp.SetOperation(ctx, OperationHealth)
	report := s.uc.Check(ctx)
	code := http.StatusOK
	if !report.Healthy() {
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, report)
}
