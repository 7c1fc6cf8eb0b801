package hazard

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrLengthMismatch = errors.New("hazard: scores do not match labels")
	ErrNoScores       = errors.New("hazard: no scores to aggregate")
)

// Score is the probability assigned to a single label.
type Score struct {
	Label       string
	Probability float64
}

// ScoreMap holds one probability per label, in label-set order.
type ScoreMap []Score

// NewScoreMap pairs labels with probabilities.
func NewScoreMap(labels []string, probs []float64) (ScoreMap, error) {
	if len(labels) != len(probs) {
		return nil, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(labels), len(probs))
	}
	m := make(ScoreMap, len(labels))
	for i, l := range labels {
		m[i] = Score{Label: l, Probability: probs[i]}
	}
	return m, nil
}

// Softmax normalizes logits into a probability distribution.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	peak := math.Inf(-1)
	for _, v := range logits {
		if v > peak {
			peak = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Aggregation combines per-frame score maps into one.
type Aggregation string

const (
	AggregateMean Aggregation = "mean"
	AggregateMax  Aggregation = "max"
)

// Aggregate combines score maps that share the same label order.
func Aggregate(maps []ScoreMap, how Aggregation) (ScoreMap, error) {
	if len(maps) == 0 {
		return nil, ErrNoScores
	}
	n := len(maps[0])
	out := make(ScoreMap, n)
	for i, s := range maps[0] {
		out[i].Label = s.Label
	}
	for _, m := range maps {
		if len(m) != n {
			return nil, ErrLengthMismatch
		}
		for i, s := range m {
			if s.Label != out[i].Label {
				return nil, fmt.Errorf("%w: label %q at %d", ErrLengthMismatch, s.Label, i)
			}
			switch how {
			case AggregateMax:
				if s.Probability > out[i].Probability {
					out[i].Probability = s.Probability
				}
			default:
				out[i].Probability += s.Probability
			}
		}
	}
	if how != AggregateMax {
		for i := range out {
			out[i].Probability /= float64(len(maps))
		}
	}
	return out, nil
}

// Sorted returns a copy ordered by descending probability. Ties keep label order.
func (m ScoreMap) Sorted() ScoreMap {
	out := append(ScoreMap(nil), m...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	return out
}

// Top returns the n most probable entries.
func (m ScoreMap) Top(n int) ScoreMap {
	sorted := m.Sorted()
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// MaxHazard returns the highest probability among hazard labels, or 0.
func (m ScoreMap) MaxHazard(set *LabelSet) float64 {
	var peak float64
	for _, s := range m {
		if set.IsHazard(s.Label) && s.Probability > peak {
			peak = s.Probability
		}
	}
	return peak
}

// FormatPercent renders a probability as a percentage with two decimals, e.g. "73.12%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
