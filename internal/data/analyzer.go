package data

import (
	"context"
	"fmt"
	"os/exec"

	"hazard/internal/biz"
	"hazard/internal/conf"
	"hazard/internal/pkg/analyzer"
	"hazard/internal/pkg/fetcher"
	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/llm"
	"hazard/internal/pkg/metrics"
	"hazard/internal/pkg/redis"
	"hazard/internal/pkg/video"
	"hazard/internal/pkg/vision"

	"github.com/go-kratos/kratos/v2/log"
)

// Caption providers.
const (
	CaptionProviderBLIP   = "blip"
	CaptionProviderOllama = "ollama"
	CaptionProviderVLLM   = "vllm"
)

// NewLabelSet builds the label set from configuration, falling back to the built-in labels.
func NewLabelSet(ac *conf.Analysis) (*hazard.LabelSet, error) {
	if ac == nil || len(ac.HazardLabels) == 0 {
		return hazard.DefaultLabelSet(), nil
	}
	normal := ac.NormalLabels
	if len(normal) == 0 {
		normal = hazard.DefaultNormalLabels
	}
	return hazard.NewLabelSet(ac.HazardLabels, normal)
}

// NewVisionClient creates the model server client.
func NewVisionClient(vc *conf.Vision) *vision.Client {
	config := vision.DefaultConfig()
	if vc != nil {
		if vc.Addr != "" {
			config.BaseURL = vc.Addr
		}
		if vc.Timeout > 0 {
			config.Timeout = vc.Timeout.AsDuration()
		}
		if vc.MaxNewTokens > 0 {
			config.MaxNewTokens = vc.MaxNewTokens
		}
		if b := vc.GetBreaker(); b != nil {
			if b.MaxFailures > 0 {
				config.BreakerMaxFailures = b.MaxFailures
			}
			if b.Timeout > 0 {
				config.BreakerTimeout = b.Timeout.AsDuration()
			}
		}
	}
	return vision.NewClient(config)
}

// NewVisionLimiter bounds concurrent calls into the model server.
func NewVisionLimiter(vc *conf.Vision) *vision.Limiter {
	if vc == nil {
		return vision.NewLimiter(1)
	}
	return vision.NewLimiter(vc.MaxConcurrency)
}

// NewClassifier wraps the model server's zero-shot endpoint with the limiter.
func NewClassifier(client *vision.Client, limiter *vision.Limiter) vision.Classifier {
	return vision.NewLimitedClassifier(client, limiter)
}

type captionClient interface {
	vision.Captioner
	Ping(ctx context.Context) error
}

// CaptionBackend is the configured captioning model.
type CaptionBackend struct {
	Provider  string
	client    captionClient
	captioner vision.Captioner
	limiter   *vision.Limiter
}

// NewCaptionBackend selects the captioner. BLIP runs on the model server and
// shares its limiter; chat LLM backends get their own.
func NewCaptionBackend(client *vision.Client, limiter *vision.Limiter, vc *conf.Vision, logger log.Logger) (*CaptionBackend, error) {
	helper := log.NewHelper(log.With(logger, "module", "data/caption"))
	caption := vc.GetCaption()
	provider := caption.GetProvider()
	if provider == "" {
		provider = CaptionProviderBLIP
	}

	var concurrency int64 = 1
	defaults := vision.DefaultConfig()
	maxTokens := defaults.MaxNewTokens
	breakerTimeout, breakerFailures := defaults.BreakerTimeout, defaults.BreakerMaxFailures
	if vc != nil {
		concurrency = vc.MaxConcurrency
		if vc.MaxNewTokens > 0 {
			maxTokens = vc.MaxNewTokens
		}
	}
	if b := vc.GetBreaker(); b != nil {
		if b.MaxFailures > 0 {
			breakerFailures = b.MaxFailures
		}
		if b.Timeout > 0 {
			breakerTimeout = b.Timeout.AsDuration()
		}
	}

	backend := &CaptionBackend{Provider: provider}
	switch provider {
	case CaptionProviderBLIP:
		backend.client = client
		backend.limiter = limiter
	case CaptionProviderOllama:
		config := llm.DefaultOllamaConfig()
		config.MaxTokens = maxTokens
		if o := caption.Ollama; o != nil {
			if o.Addr != "" {
				config.BaseURL = o.Addr
			}
			if o.Model != "" {
				config.Model = o.Model
			}
			if o.Timeout > 0 {
				config.Timeout = o.Timeout.AsDuration()
			}
		}
		backend.client = llm.NewOllamaClient(config)
		backend.limiter = vision.NewLimiter(concurrency)
	case CaptionProviderVLLM:
		config := llm.DefaultVLLMConfig()
		config.MaxTokens = maxTokens
		if v := caption.VLLM; v != nil {
			if v.Addr != "" {
				config.BaseURL = v.Addr
			}
			if v.Model != "" {
				config.Model = v.Model
			}
			config.APIKey = v.APIKey
			if v.Timeout > 0 {
				config.Timeout = v.Timeout.AsDuration()
			}
		}
		backend.client = llm.NewVLLMClient(config)
		backend.limiter = vision.NewLimiter(concurrency)
	default:
		return nil, fmt.Errorf("unknown caption provider %q", provider)
	}
	if provider == CaptionProviderBLIP {
		backend.captioner = client
	} else {
		backend.captioner = vision.NewBreakerCaptioner(backend.client,
			vision.NewCircuitBreaker("caption_"+provider, breakerTimeout, breakerFailures))
	}
	helper.Infof("caption provider: %s", provider)
	return backend, nil
}

// Ping checks the caption backend.
func (b *CaptionBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

// NewCaptioner wraps the caption backend with its limiter.
func NewCaptioner(b *CaptionBackend) vision.Captioner {
	return vision.NewLimitedCaptioner(b.captioner, b.limiter)
}

// NewFetcher creates the media downloader.
func NewFetcher(ac *conf.Analysis) *fetcher.Fetcher {
	config := fetcher.DefaultConfig()
	if ac != nil {
		config.TempDir = ac.TempDir
		if ac.MaxDownloadBytes > 0 {
			config.MaxBytes = ac.MaxDownloadBytes
		}
		if ac.DownloadTimeout > 0 {
			config.Timeout = ac.DownloadTimeout.AsDuration()
		}
		if ac.UserAgent != "" {
			config.UserAgent = ac.UserAgent
		}
	}
	return fetcher.New(config, nil)
}

// NewExtractor creates the ffmpeg frame sampler.
func NewExtractor(ac *conf.Analysis, logger log.Logger) *video.Extractor {
	config := video.DefaultConfig()
	if ac != nil {
		config.TempDir = ac.TempDir
		if ac.FFmpeg != "" {
			config.FFmpegPath = ac.FFmpeg
		}
		if ac.FFprobe != "" {
			config.FFprobePath = ac.FFprobe
		}
		if ac.FrameBudget > 0 {
			config.FrameBudget = ac.FrameBudget
		}
	}
	return video.NewExtractor(config, logger)
}

// NewImageAnalyzer creates the single image pipeline.
func NewImageAnalyzer(ac *conf.Analysis, labels *hazard.LabelSet, classifier vision.Classifier, captioner vision.Captioner, logger log.Logger) *analyzer.ImageAnalyzer {
	config := analyzer.DefaultImageAnalyzerConfig()
	if ac != nil && ac.MaxPixels > 0 {
		config.MaxPixels = ac.MaxPixels
	}
	return analyzer.NewImageAnalyzer(config, labels, classifier, captioner, logger)
}

// NewVideoAnalyzer creates the sampled frame pipeline.
func NewVideoAnalyzer(ac *conf.Analysis, extractor *video.Extractor, images *analyzer.ImageAnalyzer, logger log.Logger) (*analyzer.VideoAnalyzer, error) {
	config := analyzer.DefaultVideoAnalyzerConfig()
	if ac != nil && ac.VideoAggregation != "" {
		switch how := hazard.Aggregation(ac.VideoAggregation); how {
		case hazard.AggregateMean, hazard.AggregateMax:
			config.Aggregation = how
		default:
			return nil, fmt.Errorf("unknown video aggregation %q", ac.VideoAggregation)
		}
	}
	return analyzer.NewVideoAnalyzer(config, extractor, images, logger), nil
}

// NewMetrics creates the Prometheus collectors.
func NewMetrics() *metrics.Metrics {
	return metrics.New()
}

// NewDependencyChecks lists what /healthz pings. The model server and ffmpeg
// are required; caches and history only degrade features.
func NewDependencyChecks(
	client *vision.Client,
	captions *CaptionBackend,
	cache redis.Cache,
	d *Data,
	repo biz.AnalysisRepo,
	vc *conf.Vision,
	ac *conf.Analysis,
	logger log.Logger,
) ([]biz.DependencyCheck, func(), error) {
	helper := log.NewHelper(log.With(logger, "module", "data/health"))
	cleanup := func() {}

	checks := []biz.DependencyCheck{
		{Name: "vision", Required: true, Ping: client.Ping},
	}
	if captions.Provider != CaptionProviderBLIP {
		checks = append(checks, biz.DependencyCheck{Name: "caption_" + captions.Provider, Required: true, Ping: captions.Ping})
	}

	ffmpeg := "ffmpeg"
	if ac != nil && ac.FFmpeg != "" {
		ffmpeg = ac.FFmpeg
	}
	checks = append(checks, biz.DependencyCheck{Name: "ffmpeg", Required: true, Ping: func(context.Context) error {
		_, err := exec.LookPath(ffmpeg)
		return err
	}})

	if cache != nil {
		checks = append(checks, biz.DependencyCheck{Name: "redis", Ping: cache.Ping})
	}
	if d.Pool != nil {
		checks = append(checks, biz.DependencyCheck{Name: "database", Ping: repo.Ping})
	}

	if hc := vc.GetGRPCHealth(); hc != nil && hc.Addr != "" {
		probe, err := vision.NewHealthProbe(vision.HealthConfig{
			Address: hc.Addr,
			Service: hc.Service,
			Timeout: hc.Timeout.AsDuration(),
		})
		if err != nil {
			return nil, nil, err
		}
		checks = append(checks, biz.DependencyCheck{Name: "vision_grpc", Ping: probe.Ping})
		cleanup = func() {
			helper.Info("closing vision health connection")
			probe.Close()
		}
	}
	return checks, cleanup, nil
}
