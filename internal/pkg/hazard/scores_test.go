package hazard

import (
	"errors"
	"math"
	"testing"
)

func TestNewLabelSet(t *testing.T) {
	set, err := NewLabelSet([]string{"storm"}, []string{"calm"})
	if err != nil {
		t.Fatalf("NewLabelSet: %v", err)
	}
	if got := set.All(); len(got) != 2 || got[0] != "storm" || got[1] != "calm" {
		t.Errorf("unexpected order %v", got)
	}
	if !set.IsHazard("storm") || set.IsHazard("calm") || set.IsHazard("unknown") {
		t.Error("IsHazard misclassified labels")
	}

	if _, err := NewLabelSet(nil, []string{"calm"}); !errors.Is(err, ErrNoHazardLabels) {
		t.Errorf("Expected ErrNoHazardLabels, got %v", err)
	}
	if _, err := NewLabelSet([]string{"x"}, []string{"x"}); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("Expected ErrDuplicateLabel, got %v", err)
	}
}

func TestLabelSet_Fingerprint(t *testing.T) {
	a, _ := NewLabelSet([]string{"storm", "flood"}, []string{"calm"})
	b, _ := NewLabelSet([]string{"storm", "flood"}, []string{"calm"})
	c, _ := NewLabelSet([]string{"flood", "storm"}, []string{"calm"})
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Expected identical label sets to share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("Expected reordered labels to change the fingerprint")
	}
}

func TestAggregate_Mean(t *testing.T) {
	labels := []string{"storm", "calm"}
	a, _ := NewScoreMap(labels, []float64{0.8, 0.2})
	b, _ := NewScoreMap(labels, []float64{0.2, 0.8})
	c, _ := NewScoreMap(labels, []float64{0.5, 0.5})

	got, err := Aggregate([]ScoreMap{a, b, c}, AggregateMean)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if math.Abs(got[0].Probability-0.5) > 1e-9 || math.Abs(got[1].Probability-0.5) > 1e-9 {
		t.Errorf("unexpected mean %+v", got)
	}
}

func TestAggregate_Max(t *testing.T) {
	labels := []string{"storm", "calm"}
	a, _ := NewScoreMap(labels, []float64{0.9, 0.1})
	b, _ := NewScoreMap(labels, []float64{0.1, 0.9})

	got, err := Aggregate([]ScoreMap{a, b}, AggregateMax)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got[0].Probability != 0.9 || got[1].Probability != 0.9 {
		t.Errorf("unexpected max %+v", got)
	}
}

func TestAggregate_Errors(t *testing.T) {
	if _, err := Aggregate(nil, AggregateMean); !errors.Is(err, ErrNoScores) {
		t.Errorf("Expected ErrNoScores, got %v", err)
	}
	a, _ := NewScoreMap([]string{"a", "b"}, []float64{0.5, 0.5})
	b, _ := NewScoreMap([]string{"a"}, []float64{1})
	if _, err := Aggregate([]ScoreMap{a, b}, AggregateMean); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
	if _, err := NewScoreMap([]string{"a"}, []float64{0.1, 0.2}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestScoreMap_TopKeepsTiesInLabelOrder(t *testing.T) {
	m, _ := NewScoreMap([]string{"a", "b", "c"}, []float64{0.25, 0.5, 0.25})
	top := m.Top(5)
	if len(top) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(top))
	}
	if top[0].Label != "b" || top[1].Label != "a" || top[2].Label != "c" {
		t.Errorf("unexpected order %+v", top)
	}
	if m[0].Label != "a" {
		t.Error("Top must not reorder the receiver")
	}
}

func TestParsePercent(t *testing.T) {
	p, err := ParsePercent("73.12%")
	if err != nil {
		t.Fatalf("ParsePercent: %v", err)
	}
	if math.Abs(p-0.7312) > 1e-9 {
		t.Errorf("ParsePercent = %v", p)
	}
	if _, err := ParsePercent("abc"); err == nil {
		t.Error("Expected error for invalid percentage")
	}
}
