package hazard

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestZoneFor(t *testing.T) {
	tests := []struct {
		score float64
		want  DangerZone
	}{
		{0, ZoneGreen},
		{0.39, ZoneGreen},
		{0.40, ZoneGreen},
		{0.4000001, ZoneYellow},
		{0.55, ZoneYellow},
		{0.70, ZoneYellow},
		{0.7000001, ZoneRed},
		{0.99, ZoneRed},
		{1, ZoneRed},
	}
	for _, tt := range tests {
		if got := ZoneFor(tt.score); got != tt.want {
			t.Errorf("ZoneFor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestZoneFor_Monotonic(t *testing.T) {
	prev := ZoneGreen
	for i := 0; i <= 1000; i++ {
		z := ZoneFor(float64(i) / 1000)
		if z < prev {
			t.Fatalf("zone decreased at score %v: %v -> %v", float64(i)/1000, prev, z)
		}
		prev = z
	}
}

func TestClassify_IgnoresNormalLabels(t *testing.T) {
	set := DefaultLabelSet()
	probs := make([]float64, set.Len())
	// "a photo of a calm sea" dominates but is not a hazard.
	probs[len(DefaultHazardLabels)] = 0.9
	probs[0] = 0.1
	scores, err := NewScoreMap(set.All(), probs)
	if err != nil {
		t.Fatalf("NewScoreMap: %v", err)
	}

	zone, peak := Classify(scores, set)
	if zone != ZoneGreen {
		t.Errorf("Expected green zone, got %v", zone)
	}
	if peak != 0.1 {
		t.Errorf("Expected max hazard 0.1, got %v", peak)
	}
}

func TestDangerZone_String(t *testing.T) {
	if !strings.Contains(ZoneRed.String(), "Red Zone") {
		t.Errorf("unexpected red label %q", ZoneRed.String())
	}
	if !strings.Contains(ZoneYellow.String(), "Yellow Zone") {
		t.Errorf("unexpected yellow label %q", ZoneYellow.String())
	}
	if !strings.Contains(ZoneGreen.String(), "Green Zone") {
		t.Errorf("unexpected green label %q", ZoneGreen.String())
	}
}

func TestParseZone(t *testing.T) {
	for _, z := range []DangerZone{ZoneGreen, ZoneYellow, ZoneRed} {
		got, ok := ParseZone(z.String())
		if !ok || got != z {
			t.Errorf("ParseZone(%q) = %v, %v", z.String(), got, ok)
		}
		got, ok = ParseZone(strings.ToUpper(z.Name()))
		if !ok || got != z {
			t.Errorf("ParseZone(%q) = %v, %v", z.Name(), got, ok)
		}
	}
	if _, ok := ParseZone("purple"); ok {
		t.Error("Expected purple to be rejected")
	}
}

func TestSoftmax(t *testing.T) {
	probs := Softmax([]float64{1, 2, 3, 1000})
	var sum float64
	for _, p := range probs {
		if math.IsNaN(p) {
			t.Fatal("softmax produced NaN")
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected probabilities to sum to 1, got %v", sum)
	}
	if probs[3] < 0.99 {
		t.Errorf("Expected dominant logit to take the mass, got %v", probs[3])
	}
	if Softmax(nil) != nil {
		t.Error("Expected nil for empty logits")
	}
}

func TestNewResult_TopFiveSortedDescending(t *testing.T) {
	set := DefaultLabelSet()
	probs := Softmax([]float64{0.1, 2.5, 0.3, 1.9, 0.2, 0.4, 3.1, 0.5, 0.6, 0.7, 1.2, 0.8})
	scores, err := NewScoreMap(set.All(), probs)
	if err != nil {
		t.Fatalf("NewScoreMap: %v", err)
	}

	res := NewResult("waves", scores, set)
	if len(res.HazardAnalysis) != TopN {
		t.Fatalf("Expected %d entries, got %d", TopN, len(res.HazardAnalysis))
	}
	for i := 1; i < len(res.HazardAnalysis); i++ {
		if res.HazardAnalysis[i].Probability > res.HazardAnalysis[i-1].Probability {
			t.Errorf("entries not sorted at %d", i)
		}
	}
	if res.HazardAnalysis[0].Label != "a photo of an abnormally high tide" {
		t.Errorf("Expected highest logit label first, got %q", res.HazardAnalysis[0].Label)
	}
	if res.TopHazardScore != FormatPercent(res.MaxHazard) {
		t.Errorf("TopHazardScore = %q, MaxHazard = %v", res.TopHazardScore, res.MaxHazard)
	}
}

func TestResult_JSONKeepsOrder(t *testing.T) {
	res := &Result{
		Description:    "a big wave",
		DangerZone:     ZoneRed.String(),
		TopHazardScore: "81.00%",
		HazardAnalysis: RankedScores{
			{Label: "z label", Probability: 0.81},
			{Label: "a label", Probability: 0.1},
		},
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"hazard_analysis":{"z label":"81.00%","a label":"10.00%"}`) {
		t.Errorf("unexpected body %s", body)
	}

	var decoded Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded.HazardAnalysis) != 2 || decoded.HazardAnalysis[0].Label != "z label" {
		t.Errorf("order not preserved: %+v", decoded.HazardAnalysis)
	}
	if decoded.Zone() != ZoneRed {
		t.Errorf("Expected red zone, got %v", decoded.Zone())
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.73125); got != "73.12%" && got != "73.13%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(0); got != "0.00%" {
		t.Errorf("FormatPercent(0) = %q", got)
	}
	if got := FormatPercent(1); got != "100.00%" {
		t.Errorf("FormatPercent(1) = %q", got)
	}
}
