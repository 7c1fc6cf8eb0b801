package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// Config holds configuration for frame extraction.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	TempDir     string        // parent of the per-request frame directories
	FrameBudget int           // frames to analyse per video
	Timeout     time.Duration // bound on one ffmpeg run
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		FrameBudget: DefaultFrameBudget,
		Timeout:     2 * time.Minute,
	}
}

// Frames is the result of sampling a video.
type Frames struct {
	Total  int      // frames reported by the container
	Stride int      // interval between sampled frames
	Paths  []string // extracted JPEG frames in display order
	dir    string
}

// Cleanup removes the extracted frames.
func (f *Frames) Cleanup() {
	if f != nil && f.dir != "" {
		os.RemoveAll(f.dir)
	}
}

// FrameSource samples frames from a local video file.
type FrameSource interface {
	Sample(ctx context.Context, path string) (*Frames, error)
}

// Extractor samples frames with ffprobe and ffmpeg.
type Extractor struct {
	config Config
	log    *log.Helper
}

// NewExtractor creates a new Extractor.
func NewExtractor(config Config, logger log.Logger) *Extractor {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.FFprobePath == "" {
		config.FFprobePath = "ffprobe"
	}
	if config.FrameBudget <= 0 {
		config.FrameBudget = DefaultFrameBudget
	}
	return &Extractor{
		config: config,
		log:    log.NewHelper(log.With(logger, "module", "pkg/video")),
	}
}

// Sample extracts every stride-th frame of the video at path into a fresh
// temporary directory. The caller must call Cleanup on the returned Frames.
func (e *Extractor) Sample(ctx context.Context, path string) (*Frames, error) {
	info, err := Probe(ctx, e.config.FFprobePath, path)
	if err != nil {
		return nil, err
	}
	if info.FrameCount <= 0 {
		return nil, ErrNoFrames
	}

	indices := SampleIndices(info.FrameCount, e.config.FrameBudget)
	stride := Stride(info.FrameCount, e.config.FrameBudget)

	dir, err := os.MkdirTemp(e.config.TempDir, "hazard-frames-*")
	if err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	frames := &Frames{Total: info.FrameCount, Stride: stride, dir: dir}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.config.FFmpegPath, extractArgs(path, dir, stride, len(indices))...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		frames.Cleanup()
		return nil, fmt.Errorf("%w: ffmpeg: %v: %s", ErrOpen, err, strings.TrimSpace(stderr.String()))
	}

	paths, err := filepath.Glob(filepath.Join(dir, "frame-*.jpg"))
	if err != nil {
		frames.Cleanup()
		return nil, err
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		frames.Cleanup()
		return nil, ErrNoFrames
	}
	frames.Paths = paths

	e.log.Debugf("sampled %d/%d frames (stride %d) from %s", len(paths), info.FrameCount, stride, path)
	return frames, nil
}

func extractArgs(input, dir string, stride, limit int) []string {
	return []string{
		"-v", "error",
		"-nostdin",
		"-i", input,
		"-an",
		"-vf", fmt.Sprintf("select=not(mod(n\\,%d))", stride),
		"-vsync", "vfr",
		"-frames:v", fmt.Sprint(limit),
		"-q:v", "2",
		filepath.Join(dir, "frame-%05d.jpg"),
	}
}
