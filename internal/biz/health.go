package biz

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// DependencyCheck pings one backing service.
type DependencyCheck struct {
	Name     string
	Required bool // a failing required check marks the service unhealthy
	Ping     func(ctx context.Context) error
}

// HealthReport is the body of GET /healthz.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthy reports whether every required dependency answered.
func (r *HealthReport) Healthy() bool {
	return r.Status == "ok"
}

// HealthUsecase pings dependencies concurrently.
type HealthUsecase struct {
	checks  []DependencyCheck
	timeout time.Duration
	log     *log.Helper
}

// NewHealthUsecase creates a new HealthUsecase.
func NewHealthUsecase(checks []DependencyCheck, logger log.Logger) *HealthUsecase {
	return &HealthUsecase{
		checks:  checks,
		timeout: 3 * time.Second,
		log:     log.NewHelper(log.With(logger, "module", "biz/health")),
	}
}

func (uc *HealthUsecase) Check(ctx context.Context) *HealthReport {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	report := &HealthReport{Status: "ok", Checks: make(map[string]string, len(uc.checks))}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range uc.checks {
		wg.Add(1)
		go func(c DependencyCheck) {
			defer wg.Done()
			err := c.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				report.Checks[c.Name] = "ok"
				return
			}
			uc.log.WithContext(ctx).Warnf("health check %s: %v", c.Name, err)
			report.Checks[c.Name] = "unavailable"
			if c.Required {
				report.Status = "degraded"
			}
		}(c)
	}
	wg.Wait()
	return report
}
