package analyzer

import (
	"context"
	"errors"
	"time"

	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/media"
)

// ErrUnreadableImage is returned when the downloaded file is not a decodable image.
var ErrUnreadableImage = errors.New("analyzer: unreadable image")

// Report is the outcome of analysing one media file.
type Report struct {
	Result        *hazard.Result
	FramesSampled int             // videos only
	PHash         *uint64         // images only
	Metadata      *media.Metadata // images only, nil without EXIF
	Elapsed       time.Duration
}

// Analyzer turns a local media file into a hazard report.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*Report, error)
}
