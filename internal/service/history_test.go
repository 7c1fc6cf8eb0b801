package service

import (
	"testing"

	"hazard/internal/biz"
	"hazard/internal/pkg/hazard"
)

func TestToView_PHashHex(t *testing.T) {
	ph := int64(0x00ff)
	v := toView(&biz.AnalysisRecord{ID: "a", DangerZone: hazard.ZoneGreen, TopHazardScore: 0.1, PHash: &ph})
	if v.PHash != "00000000000000ff" {
		t.Errorf("Expected zero-padded hex pHash, got %q", v.PHash)
	}
	if v.TopHazardScore != "10.00%" {
		t.Errorf("unexpected score %q", v.TopHazardScore)
	}

	neg := int64(-1)
	if got := toView(&biz.AnalysisRecord{PHash: &neg}).PHash; got != "ffffffffffffffff" {
		t.Errorf("Expected unsigned hex for high-bit hash, got %q", got)
	}
	if got := toView(&biz.AnalysisRecord{}).PHash; got != "" {
		t.Errorf("Expected empty pHash, got %q", got)
	}
}
