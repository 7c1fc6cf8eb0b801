package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"hazard/internal/pkg/hash"
)

var (
	// ErrFetch reports that the remote media could not be downloaded.
	ErrFetch = errors.New("fetcher: download failed")
	// ErrTooLarge reports that the remote media exceeded MaxBytes.
	ErrTooLarge = errors.New("fetcher: media exceeds size limit")
)

// Config holds configuration for the media fetcher.
type Config struct {
	TempDir   string        // Directory for temp files, "" for os.TempDir()
	MaxBytes  int64         // Max download size
	Timeout   time.Duration // Per-download timeout
	UserAgent string
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		MaxBytes:  200 << 20, // 200MB
		Timeout:   2 * time.Minute,
		UserAgent: "hazard-analyzer/1.0",
	}
}

// Media is a downloaded file on local disk.
type Media struct {
	Path        string
	Size        int64
	SHA256      string
	ContentType string
}

// Fetcher downloads remote media into per-request temp files.
type Fetcher struct {
	config     Config
	httpClient *http.Client
}

// New creates a Fetcher. A nil client uses a client with config.Timeout.
func New(config Config, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	return &Fetcher{config: config, httpClient: client}
}

// Fetch streams url into a new temp file. The returned cleanup func removes the
// file and must be called on every path; it is safe to call when err != nil.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Media, func(), error) {
	noop := func() {}

	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, noop, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, noop, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, noop, fmt.Errorf("%w: unexpected status code: %d", ErrFetch, resp.StatusCode)
	}

	file, err := os.CreateTemp(f.config.TempDir, "hazard-media-*")
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := file.Name()
	cleanup := func() {
		_ = os.Remove(path)
	}

	hasher := hash.NewSha256Hasher()
	var body io.Reader = resp.Body
	if f.config.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.config.MaxBytes+1)
	}
	n, copyErr := io.Copy(io.MultiWriter(file, hasher), body)
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		cleanup()
		return nil, noop, fmt.Errorf("%w: %v", ErrFetch, copyErr)
	case closeErr != nil:
		cleanup()
		return nil, noop, fmt.Errorf("failed to write temp file: %w", closeErr)
	case f.config.MaxBytes > 0 && n > f.config.MaxBytes:
		cleanup()
		return nil, noop, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.config.MaxBytes)
	}

	ct := resp.Header.Get("Content-Type")
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}

	return &Media{
		Path:        path,
		Size:        hasher.Size(),
		SHA256:      hasher.Sum(),
		ContentType: ct,
	}, cleanup, nil
}
