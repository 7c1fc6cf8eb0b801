package hazard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TopN is the number of entries reported in hazard_analysis.
const TopN = 5

// Result is the response body of a successful analysis.
type Result struct {
	Description    string       `json:"description"`
	DangerZone     string       `json:"danger_zone"`
	TopHazardScore string       `json:"top_hazard_score"`
	HazardAnalysis RankedScores `json:"hazard_analysis"`

	// MaxHazard is the unformatted top hazard probability.
	MaxHazard float64 `json:"-"`
}

// NewResult classifies scores and builds the client-facing result.
func NewResult(description string, scores ScoreMap, set *LabelSet) *Result {
	zone, peak := Classify(scores, set)
	return &Result{
		Description:    description,
		DangerZone:     zone.String(),
		TopHazardScore: FormatPercent(peak),
		HazardAnalysis: RankedScores(scores.Top(TopN)),
		MaxHazard:      peak,
	}
}

// Zone parses DangerZone back into its bucket.
func (r *Result) Zone() DangerZone {
	z, _ := ParseZone(r.DangerZone)
	return z
}

// RankedScores is encoded as a JSON object whose keys keep slice order, so the
// most probable label comes first on the wire.
type RankedScores []Score

// MarshalJSON writes {"label": "NN.NN%", ...} in slice order.
func (r RankedScores) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(s.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(FormatPercent(s.Probability))
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object written by MarshalJSON, keeping key order.
func (r *RankedScores) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("hazard: ranked scores must be an object, got %v", tok)
	}
	out := RankedScores{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := keyTok.(string)
		var pct string
		if err := dec.Decode(&pct); err != nil {
			return err
		}
		p, err := ParsePercent(pct)
		if err != nil {
			return err
		}
		out = append(out, Score{Label: label, Probability: p})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// ParsePercent is the inverse of FormatPercent.
func ParsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("hazard: invalid percentage %q: %w", s, err)
	}
	return v / 100, nil
}
