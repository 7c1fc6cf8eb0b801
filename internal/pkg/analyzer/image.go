package analyzer

import (
	"context"
	"fmt"
	"os"
	"time"

	"hazard/internal/pkg/hash"
	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/media"
	"hazard/internal/pkg/vision"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

// ImageAnalyzerConfig holds configuration for image analysis.
type ImageAnalyzerConfig struct {
	MaxPixels int // Decoded size bound, width*height
}

// DefaultImageAnalyzerConfig returns default configuration.
func DefaultImageAnalyzerConfig() ImageAnalyzerConfig {
	return ImageAnalyzerConfig{MaxPixels: media.DefaultMaxPixels}
}

// ImageAnalyzer captions and scores single images.
type ImageAnalyzer struct {
	config     ImageAnalyzerConfig
	labels     *hazard.LabelSet
	classifier vision.Classifier
	captioner  vision.Captioner
	hasher     *hash.PerceptualHasher
	log        *log.Helper
}

// NewImageAnalyzer creates a new ImageAnalyzer.
func NewImageAnalyzer(
	config ImageAnalyzerConfig,
	labels *hazard.LabelSet,
	classifier vision.Classifier,
	captioner vision.Captioner,
	logger log.Logger,
) *ImageAnalyzer {
	if config.MaxPixels <= 0 {
		config.MaxPixels = media.DefaultMaxPixels
	}
	helper := log.NewHelper(log.With(logger, "module", "pkg/analyzer/image"))
	helper.Infof("scoring against %d hazard and %d normal labels", len(labels.Hazard()), len(labels.Normal()))
	return &ImageAnalyzer{
		config:     config,
		labels:     labels,
		classifier: classifier,
		captioner:  captioner,
		hasher:     hash.NewPerceptualHasher(),
		log:        helper,
	}
}

// Labels returns the label set images are scored against.
func (a *ImageAnalyzer) Labels() *hazard.LabelSet {
	return a.labels
}

// Classify scores a JPEG against every label with a joint softmax.
func (a *ImageAnalyzer) Classify(ctx context.Context, jpeg []byte) (hazard.ScoreMap, error) {
	logits, err := a.classifier.ZeroShot(ctx, jpeg, a.labels.All())
	if err != nil {
		return nil, fmt.Errorf("zero-shot classification: %w", err)
	}
	return hazard.NewScoreMap(a.labels.All(), hazard.Softmax(logits))
}

// Describe captions a JPEG.
func (a *ImageAnalyzer) Describe(ctx context.Context, jpeg []byte) (string, error) {
	caption, err := a.captioner.Caption(ctx, jpeg)
	if err != nil {
		return "", fmt.Errorf("caption: %w", err)
	}
	return caption, nil
}

// Analyze runs captioning and classification concurrently. Either failure fails the call.
func (a *ImageAnalyzer) Analyze(ctx context.Context, jpeg []byte) (*hazard.Result, error) {
	var (
		caption string
		scores  hazard.ScoreMap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		caption, err = a.Describe(gctx, jpeg)
		return err
	})
	g.Go(func() error {
		var err error
		scores, err = a.Classify(gctx, jpeg)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hazard.NewResult(caption, scores, a.labels), nil
}

// AnalyzeFile decodes the image at path and analyses it.
func (a *ImageAnalyzer) AnalyzeFile(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	jpeg, img, err := media.Normalize(data, a.config.MaxPixels)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	result, err := a.Analyze(ctx, jpeg)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Result:   result,
		Metadata: media.ExtractMetadata(data),
	}
	if ph, err := a.hasher.ComputePHash(img); err != nil {
		a.log.Warnf("Failed to compute pHash: %v", err)
	} else {
		report.PHash = &ph.Hash
		a.log.Debugf("pHash %s (%dx%d)", ph, ph.Width, ph.Height)
	}
	report.Elapsed = time.Since(start)
	a.log.Debugf("image analysed in %s: zone=%s top=%s", report.Elapsed, result.Zone().Name(), result.TopHazardScore)
	return report, nil
}
