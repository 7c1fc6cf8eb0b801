package vision

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of inference calls in flight so concurrent
// requests queue instead of contending for the same device.
type Limiter struct {
	sem *semaphore.Weighted
}

// NewLimiter allows n concurrent calls. n <= 0 means 1.
func NewLimiter(n int64) *Limiter {
	if n <= 0 {
		n = 1
	}
	return &Limiter{sem: semaphore.NewWeighted(n)}
}

// Do runs fn once a slot is free, or returns ctx.Err().
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return fn(ctx)
}

// LimitedClassifier serializes a Classifier through a Limiter.
type LimitedClassifier struct {
	Classifier
	limiter *Limiter
}

// NewLimitedClassifier wraps c.
func NewLimitedClassifier(c Classifier, l *Limiter) *LimitedClassifier {
	return &LimitedClassifier{Classifier: c, limiter: l}
}

func (c *LimitedClassifier) ZeroShot(ctx context.Context, image []byte, labels []string) ([]float64, error) {
	var logits []float64
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		logits, err = c.Classifier.ZeroShot(ctx, image, labels)
		return err
	})
	return logits, err
}

// LimitedCaptioner serializes a Captioner through a Limiter.
type LimitedCaptioner struct {
	Captioner
	limiter *Limiter
}

// NewLimitedCaptioner wraps c.
func NewLimitedCaptioner(c Captioner, l *Limiter) *LimitedCaptioner {
	return &LimitedCaptioner{Captioner: c, limiter: l}
}

func (c *LimitedCaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	var caption string
	err := c.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		caption, err = c.Captioner.Caption(ctx, image)
		return err
	})
	return caption, err
}
