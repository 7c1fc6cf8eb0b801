package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hazard/internal/pkg/analyzer"
	"hazard/internal/pkg/fetcher"
	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/metrics"
	"hazard/internal/pkg/video"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// AnalysisRecord is a persisted analysis.
type AnalysisRecord struct {
	ID                string
	MediaURL          string
	MediaType         MediaType
	FileHash          string
	LabelsFingerprint string
	PHash             *int64
	FramesSampled     int
	Description       string
	DangerZone        hazard.DangerZone
	TopHazardScore    float64
	HazardAnalysis    hazard.RankedScores
	CapturedAt        *time.Time
	Latitude          *float64
	Longitude         *float64
	CreatedAt         time.Time
}

// Result rebuilds the client-facing result from a stored record.
func (r *AnalysisRecord) Result() *hazard.Result {
	return &hazard.Result{
		Description:    r.Description,
		DangerZone:     r.DangerZone.String(),
		TopHazardScore: hazard.FormatPercent(r.TopHazardScore),
		HazardAnalysis: r.HazardAnalysis,
		MaxHazard:      r.TopHazardScore,
	}
}

// AnalysisRepo stores analysis history. Implementations return
// ErrHistoryUnavailable when no database is configured.
type AnalysisRepo interface {
	Save(ctx context.Context, rec *AnalysisRecord) error
	// FindByFileHash returns nil, nil when nothing matches.
	FindByFileHash(ctx context.Context, fileHash string, mediaType MediaType, fingerprint string) (*AnalysisRecord, error)
	Get(ctx context.Context, id string) (*AnalysisRecord, error)
	List(ctx context.Context, q *HistoryQuery) ([]*AnalysisRecord, error)
	Ping(ctx context.Context) error
}

// ResultCache is the fast path in front of AnalysisRepo.
type ResultCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) (*hazard.Result, error)
	Set(ctx context.Context, key string, res *hazard.Result) error
	// MightContain reports whether key may have been analysed before.
	MightContain(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string) error
}

// MediaFetcher downloads remote media into a private temp file.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Media, func(), error)
}

// ImageAnalyzer analyses a local image file.
type ImageAnalyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*analyzer.Report, error)
}

// VideoAnalyzer analyses a local video file.
type VideoAnalyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*analyzer.Report, error)
}

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	MediaURL  string         `json:"media_url"`
	MediaType OptionalString `json:"media_type"`
}

type requestState string

const (
	stateReceived   requestState = "received"
	stateFetching   requestState = "fetching"
	stateAnalyzing  requestState = "analyzing"
	stateResponding requestState = "responding"
	stateCleanup    requestState = "cleanup"
)

// Metric status labels.
const (
	statusOK          = "ok"
	statusCached      = "cached"
	statusClientError = "client_error"
	statusError       = "error"
)

// AnalysisUsecase downloads media, analyses it and records the outcome.
type AnalysisUsecase struct {
	fetcher MediaFetcher
	images  ImageAnalyzer
	videos  VideoAnalyzer
	labels  *hazard.LabelSet
	cache   ResultCache
	repo    AnalysisRepo
	metrics *metrics.Metrics
	log     *log.Helper
}

// NewAnalysisUsecase creates a new AnalysisUsecase.
func NewAnalysisUsecase(
	fetcher MediaFetcher,
	images ImageAnalyzer,
	videos VideoAnalyzer,
	labels *hazard.LabelSet,
	cache ResultCache,
	repo AnalysisRepo,
	m *metrics.Metrics,
	logger log.Logger,
) *AnalysisUsecase {
	return &AnalysisUsecase{
		fetcher: fetcher,
		images:  images,
		videos:  videos,
		labels:  labels,
		cache:   cache,
		repo:    repo,
		metrics: m,
		log:     log.NewHelper(log.With(logger, "module", "biz/analysis")),
	}
}

// Analyze runs the full request lifecycle. The downloaded file is removed on every path.
func (uc *AnalysisUsecase) Analyze(ctx context.Context, req *AnalyzeRequest) (*hazard.Result, error) {
	requestID := uuid.NewString()
	uc.enter(ctx, requestID, stateReceived)

	if req == nil || req.MediaURL == "" {
		uc.metrics.ObserveRequest("unknown", statusClientError)
		return nil, ErrMediaURLMissing
	}
	mediaType, err := requestMediaType(req.MediaType)
	if err != nil {
		uc.metrics.ObserveRequest("unknown", statusClientError)
		return nil, err
	}

	start := time.Now()
	uc.metrics.InFlight.Inc()
	defer uc.metrics.InFlight.Dec()

	uc.enter(ctx, requestID, stateFetching)
	media, cleanup, err := uc.fetcher.Fetch(ctx, req.MediaURL)
	defer func() {
		uc.enter(ctx, requestID, stateCleanup)
		cleanup()
	}()
	if err != nil {
		uc.log.WithContext(ctx).Errorf("request %s: fetch %s: %v", requestID, req.MediaURL, err)
		uc.metrics.ObserveRequest(mediaType.String(), statusError)
		return nil, ErrFetchFailed.WithCause(err)
	}

	key := uc.cacheKey(mediaType, media.SHA256)
	if res := uc.lookup(ctx, key, media.SHA256, mediaType); res != nil {
		uc.enter(ctx, requestID, stateResponding)
		uc.metrics.ObserveRequest(mediaType.String(), statusCached)
		return res, nil
	}

	uc.enter(ctx, requestID, stateAnalyzing)
	var report *analyzer.Report
	switch mediaType {
	case MediaTypeVideo:
		report, err = uc.videos.AnalyzeFile(ctx, media.Path)
	default:
		report, err = uc.images.AnalyzeFile(ctx, media.Path)
	}
	if err != nil {
		uc.log.WithContext(ctx).Errorf("request %s: analyse %s (%s): %v", requestID, req.MediaURL, mediaType, err)
		uc.metrics.ObserveRequest(mediaType.String(), statusError)
		return nil, analysisError(mediaType, err)
	}

	res := report.Result
	uc.metrics.ObserveAnalysis(mediaType.String(), time.Since(start))
	uc.metrics.ObserveZone(res.Zone().Name())
	uc.store(ctx, key, &AnalysisRecord{
		ID:                requestID,
		MediaURL:          req.MediaURL,
		MediaType:         mediaType,
		FileHash:          media.SHA256,
		LabelsFingerprint: uc.labels.Fingerprint(),
		PHash:             toSigned(report.PHash),
		FramesSampled:     report.FramesSampled,
		Description:       res.Description,
		DangerZone:        res.Zone(),
		TopHazardScore:    res.MaxHazard,
		HazardAnalysis:    res.HazardAnalysis,
		CapturedAt:        capturedAt(report),
		Latitude:          latitude(report),
		Longitude:         longitude(report),
		CreatedAt:         time.Now().UTC(),
	}, res)

	uc.enter(ctx, requestID, stateResponding)
	uc.log.WithContext(ctx).Infof("request %s: %s analysed: zone=%s top=%s", requestID, mediaType, res.Zone().Name(), res.TopHazardScore)
	uc.metrics.ObserveRequest(mediaType.String(), statusOK)
	return res, nil
}

func (uc *AnalysisUsecase) enter(ctx context.Context, requestID string, s requestState) {
	uc.log.WithContext(ctx).Debugw("request_id", requestID, "state", string(s))
}

func (uc *AnalysisUsecase) cacheKey(mediaType MediaType, fileHash string) string {
	return fmt.Sprintf("%s:%s:%s", uc.labels.Fingerprint(), mediaType, fileHash)
}

// lookup consults Redis, then the Bloom filter and the database. Failures are
// logged and treated as misses.
func (uc *AnalysisUsecase) lookup(ctx context.Context, key, fileHash string, mediaType MediaType) *hazard.Result {
	if uc.cache == nil {
		return nil
	}
	res, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("result cache get: %v", err)
	}
	if res != nil {
		uc.metrics.CacheHit(metrics.LayerRedis)
		return res
	}

	maybe, err := uc.cache.MightContain(ctx, key)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("bloom filter check: %v", err)
		return nil
	}
	if !maybe || uc.repo == nil {
		return nil
	}

	rec, err := uc.repo.FindByFileHash(ctx, fileHash, mediaType, uc.labels.Fingerprint())
	if err != nil {
		if !errors.Is(err, ErrHistoryUnavailable) {
			uc.log.WithContext(ctx).Warnf("history lookup: %v", err)
		}
		return nil
	}
	if rec == nil {
		return nil
	}
	uc.metrics.CacheHit(metrics.LayerDatabase)
	res = rec.Result()
	if err := uc.cache.Set(ctx, key, res); err != nil {
		uc.log.WithContext(ctx).Warnf("result cache rewarm: %v", err)
	}
	return res
}

func (uc *AnalysisUsecase) store(ctx context.Context, key string, rec *AnalysisRecord, res *hazard.Result) {
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, res); err != nil {
			uc.log.WithContext(ctx).Warnf("result cache set: %v", err)
		}
		if err := uc.cache.Remember(ctx, key); err != nil {
			uc.log.WithContext(ctx).Warnf("bloom filter add: %v", err)
		}
	}
	if uc.repo == nil {
		return
	}
	if err := uc.repo.Save(ctx, rec); err != nil && !errors.Is(err, ErrHistoryUnavailable) {
		uc.log.WithContext(ctx).Warnf("save analysis %s: %v", rec.ID, err)
	}
}

// analysisError maps analyzer failures onto the public error taxonomy.
func analysisError(mediaType MediaType, err error) error {
	switch {
	case mediaType == MediaTypeVideo && (errors.Is(err, video.ErrOpen) || errors.Is(err, video.ErrNoFrames)):
		return ErrVideoUnprocessable.WithCause(err)
	case mediaType == MediaTypeImage && errors.Is(err, analyzer.ErrUnreadableImage):
		return ErrImageUnprocessable.WithCause(err)
	default:
		return ErrAnalysisFailed.WithCause(err)
	}
}

func toSigned(h *uint64) *int64 {
	if h == nil {
		return nil
	}
	v := int64(*h)
	return &v
}

func capturedAt(r *analyzer.Report) *time.Time {
	if r.Metadata == nil {
		return nil
	}
	return r.Metadata.CapturedAt
}

func latitude(r *analyzer.Report) *float64 {
	if r.Metadata == nil {
		return nil
	}
	return r.Metadata.Latitude
}

func longitude(r *analyzer.Report) *float64 {
	if r.Metadata == nil {
		return nil
	}
	return r.Metadata.Longitude
}
