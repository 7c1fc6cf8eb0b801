package analyzer

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/media"
	"hazard/internal/pkg/video"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxVideoCaptions bounds the number of unique captions in a video description.
const MaxVideoCaptions = 3

// VideoAnalyzerConfig holds configuration for video analysis.
type VideoAnalyzerConfig struct {
	Aggregation hazard.Aggregation
	MaxCaptions int
}

// DefaultVideoAnalyzerConfig returns default configuration.
func DefaultVideoAnalyzerConfig() VideoAnalyzerConfig {
	return VideoAnalyzerConfig{
		Aggregation: hazard.AggregateMean,
		MaxCaptions: MaxVideoCaptions,
	}
}

// VideoAnalyzer scores sampled frames of a video and combines them.
type VideoAnalyzer struct {
	config VideoAnalyzerConfig
	frames video.FrameSource
	images *ImageAnalyzer
	log    *log.Helper
}

// NewVideoAnalyzer creates a new VideoAnalyzer.
func NewVideoAnalyzer(config VideoAnalyzerConfig, frames video.FrameSource, images *ImageAnalyzer, logger log.Logger) *VideoAnalyzer {
	if config.MaxCaptions <= 0 {
		config.MaxCaptions = MaxVideoCaptions
	}
	if config.Aggregation == "" {
		config.Aggregation = hazard.AggregateMean
	}
	return &VideoAnalyzer{
		config: config,
		frames: frames,
		images: images,
		log:    log.NewHelper(log.With(logger, "module", "pkg/analyzer/video")),
	}
}

// AnalyzeFile samples frames from the video at path, classifies each one and
// captions frames until enough unique captions are collected.
func (a *VideoAnalyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	frames, err := a.frames.Sample(ctx, path)
	if err != nil {
		return nil, err
	}
	defer frames.Cleanup()
	a.log.Debugf("sampled %d of %d frames at stride %d", len(frames.Paths), frames.Total, frames.Stride)

	var (
		perFrame []hazard.ScoreMap
		captions = newCaptionSet(a.config.MaxCaptions)
		phash    *uint64
	)
	for _, p := range frames.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			a.log.Warnf("Skipping unreadable frame %s: %v", p, err)
			continue
		}
		jpeg, img, err := media.Normalize(data, a.images.config.MaxPixels)
		if err != nil {
			a.log.Warnf("Skipping undecodable frame %s: %v", p, err)
			continue
		}
		// the first decodable frame fingerprints the video
		if phash == nil {
			if h, err := a.images.hasher.ComputePHash(img); err == nil {
				phash = &h.Hash
			}
		}

		scores, err := a.images.Classify(ctx, jpeg)
		if err != nil {
			return nil, err
		}
		perFrame = append(perFrame, scores)

		if !captions.Full() {
			caption, err := a.images.Describe(ctx, jpeg)
			if err != nil {
				return nil, err
			}
			captions.Add(caption)
		}
	}
	if len(perFrame) == 0 {
		return nil, video.ErrNoFrames
	}

	combined, err := hazard.Aggregate(perFrame, a.config.Aggregation)
	if err != nil {
		if errors.Is(err, hazard.ErrNoScores) {
			return nil, video.ErrNoFrames
		}
		return nil, err
	}

	result := hazard.NewResult(captions.Description(), combined, a.images.Labels())
	report := &Report{
		Result:        result,
		FramesSampled: len(perFrame),
		PHash:         phash,
		Elapsed:       time.Since(start),
	}
	a.log.Debugf("video analysed in %s: %d frames, zone=%s", report.Elapsed, len(perFrame), result.Zone().Name())
	return report, nil
}

// captionSet keeps unique captions in first-seen order.
type captionSet struct {
	limit int
	seen  map[string]bool
	list  []string
}

func newCaptionSet(limit int) *captionSet {
	return &captionSet{limit: limit, seen: make(map[string]bool)}
}

func (s *captionSet) Full() bool {
	return len(s.list) >= s.limit
}

func (s *captionSet) Add(caption string) {
	if caption == "" || s.seen[caption] || s.Full() {
		return
	}
	s.seen[caption] = true
	s.list = append(s.list, caption)
}

// Description joins the captions with ". " and capitalizes the result.
func (s *captionSet) Description() string {
	return Capitalize(strings.Join(s.list, ". "))
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := cases.Lower(language.Und).String(s)
	r, size := utf8.DecodeRuneInString(lower)
	return cases.Upper(language.Und).String(string(r)) + lower[size:]
}
