package data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hazard/internal/biz"
	"hazard/internal/conf"
	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/pagination"
	pkgredis "hazard/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

type memCache struct {
	values map[string][]byte
	ttls   map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) SetBytes(ctx context.Context, key string, value []byte, exp time.Duration) error {
	m.values[key] = value
	m.ttls[key] = exp
	return nil
}

func (m *memCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, pkgredis.Nil
	}
	return v, nil
}

func (m *memCache) ScriptRun(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error) {
	return nil, errors.New("scripts not supported")
}

func (m *memCache) Ping(ctx context.Context) error { return nil }
func (m *memCache) Close() error                   { return nil }

func TestResultCache_RoundTrip(t *testing.T) {
	store := newMemCache()
	cache := NewResultCache(store, &conf.Data{Cache: &conf.Data_Cache{TTL: conf.Duration(time.Hour)}}, log.DefaultLogger)
	ctx := context.Background()

	res, err := cache.Get(ctx, "fp:image:abc")
	if err != nil || res != nil {
		t.Fatalf("Expected miss, got %v, %v", res, err)
	}

	labels := hazard.DefaultLabelSet()
	probs := make([]float64, labels.Len())
	probs[1] = 0.55
	probs[0] = 0.45
	scores, _ := hazard.NewScoreMap(labels.All(), probs)
	want := hazard.NewResult("storm clouds", scores, labels)
	if err := cache.Set(ctx, "fp:image:abc", want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if store.ttls[resultKeyPrefix+"fp:image:abc"] != time.Hour {
		t.Errorf("Expected configured TTL, got %v", store.ttls[resultKeyPrefix+"fp:image:abc"])
	}

	got, err := cache.Get(ctx, "fp:image:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != want.Description || got.DangerZone != want.DangerZone || got.TopHazardScore != "55.00%" {
		t.Errorf("unexpected result %+v", got)
	}
	if got.MaxHazard != 0.55 {
		t.Errorf("Expected MaxHazard 0.55, got %v", got.MaxHazard)
	}
	if len(got.HazardAnalysis) != hazard.TopN || got.HazardAnalysis[0].Label != labels.All()[1] {
		t.Errorf("Expected ranking preserved, got %+v", got.HazardAnalysis)
	}
}

func TestResultCache_CorruptEntryIsMiss(t *testing.T) {
	store := newMemCache()
	store.values[resultKeyPrefix+"k"] = []byte("not json")
	cache := NewResultCache(store, &conf.Data{}, log.DefaultLogger)

	res, err := cache.Get(context.Background(), "k")
	if err != nil || res != nil {
		t.Errorf("Expected corrupt entry treated as miss, got %v, %v", res, err)
	}
}

func TestResultCache_DisabledWithoutRedis(t *testing.T) {
	if cache := NewResultCache(nil, &conf.Data{}, log.DefaultLogger); cache != nil {
		t.Error("Expected nil cache when redis is not configured")
	}
}

func TestNewRedisCache_Disabled(t *testing.T) {
	cache, cleanup, err := NewRedisCache(&conf.Data{}, log.DefaultLogger)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer cleanup()
	if cache != nil {
		t.Error("Expected nil cache for empty url")
	}
}

func TestNewData_HistoryDisabled(t *testing.T) {
	d, cleanup, err := NewData(&conf.Data{}, log.DefaultLogger)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer cleanup()

	repo := NewAnalysisRepo(d, log.DefaultLogger)
	ctx := context.Background()
	if err := repo.Save(ctx, &biz.AnalysisRecord{}); !errors.Is(err, biz.ErrHistoryUnavailable) {
		t.Errorf("Save: expected ErrHistoryUnavailable, got %v", err)
	}
	if _, err := repo.List(ctx, &biz.HistoryQuery{Limit: 21}); !errors.Is(err, biz.ErrHistoryUnavailable) {
		t.Errorf("List: expected ErrHistoryUnavailable, got %v", err)
	}
	if err := repo.Ping(ctx); !errors.Is(err, biz.ErrHistoryUnavailable) {
		t.Errorf("Ping: expected ErrHistoryUnavailable, got %v", err)
	}
}

func TestBuildListQuery(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	red := hazard.ZoneRed

	query, args := buildListQuery(&biz.HistoryQuery{Limit: 21})
	if strings.Contains(query, "WHERE") {
		t.Errorf("Expected no WHERE clause, got %s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY created_at DESC, id DESC LIMIT $1") || len(args) != 1 || args[0] != 21 {
		t.Errorf("unexpected query %q args %v", query, args)
	}

	query, args = buildListQuery(&biz.HistoryQuery{
		Limit: 11,
		After: &pagination.Cursor{ID: "id-1", CreatedAt: created},
		Zone:  &red,
	})
	if !strings.Contains(query, "WHERE (created_at, id) < ($1, $2) AND danger_zone = $3") {
		t.Errorf("unexpected filter in %s", query)
	}
	if !strings.HasSuffix(query, "LIMIT $4") {
		t.Errorf("unexpected limit placeholder in %s", query)
	}
	if len(args) != 4 || args[0] != created || args[1] != "id-1" || args[2] != "red" || args[3] != 11 {
		t.Errorf("unexpected args %v", args)
	}
}

func TestScoresJSON_KeepsOrder(t *testing.T) {
	in := hazard.RankedScores{
		{Label: "z label", Probability: 0.6},
		{Label: "a label", Probability: 0.3},
	}
	data, err := encodeScores(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := decodeScores(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("decodeScores = %+v", out)
	}
}

func TestNewLabelSet(t *testing.T) {
	set, err := NewLabelSet(nil)
	if err != nil || set.Fingerprint() != hazard.DefaultLabelSet().Fingerprint() {
		t.Errorf("Expected default label set, got %v", err)
	}

	set, err = NewLabelSet(&conf.Analysis{HazardLabels: []string{"a photo of a flood"}})
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 1+len(hazard.DefaultNormalLabels) || !set.IsHazard("a photo of a flood") {
		t.Errorf("unexpected label set %v", set.All())
	}

	if _, err := NewLabelSet(&conf.Analysis{HazardLabels: []string{"x", "x"}}); err == nil {
		t.Error("Expected error for duplicate labels")
	}
}

func TestNewCaptionBackend(t *testing.T) {
	client := NewVisionClient(nil)
	limiter := NewVisionLimiter(nil)

	tests := []struct {
		provider string
		want     string
		wantErr  bool
	}{
		{"", CaptionProviderBLIP, false},
		{"ollama", CaptionProviderOllama, false},
		{"vllm", CaptionProviderVLLM, false},
		{"gpt", "", true},
	}
	for _, tt := range tests {
		vc := &conf.Vision{Caption: &conf.Vision_Caption{Provider: tt.provider}}
		b, err := NewCaptionBackend(client, limiter, vc, log.DefaultLogger)
		if (err != nil) != tt.wantErr {
			t.Errorf("provider %q: err = %v", tt.provider, err)
			continue
		}
		if err == nil && b.Provider != tt.want {
			t.Errorf("provider %q: got %s", tt.provider, b.Provider)
		}
	}
}

func TestNewCaptioner_ChatBackendBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	vc := &conf.Vision{
		Breaker: &conf.Vision_Breaker{MaxFailures: 2, Timeout: conf.Duration(time.Minute)},
		Caption: &conf.Vision_Caption{
			Provider: CaptionProviderOllama,
			Ollama:   &conf.Vision_ChatLLM{Addr: server.URL},
		},
	}
	backend, err := NewCaptionBackend(NewVisionClient(nil), NewVisionLimiter(nil), vc, log.DefaultLogger)
	if err != nil {
		t.Fatal(err)
	}
	captioner := NewCaptioner(backend)
	for i := 0; i < 4; i++ {
		if _, err := captioner.Caption(context.Background(), []byte{1}); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("Expected breaker to stop calls after 2 failures, backend saw %d", got)
	}
}

func TestNewVideoAnalyzer_Aggregation(t *testing.T) {
	extractor := NewExtractor(nil, log.DefaultLogger)
	if _, err := NewVideoAnalyzer(&conf.Analysis{VideoAggregation: "max"}, extractor, nil, log.DefaultLogger); err != nil {
		t.Errorf("max: %v", err)
	}
	if _, err := NewVideoAnalyzer(&conf.Analysis{VideoAggregation: "median"}, extractor, nil, log.DefaultLogger); err == nil {
		t.Error("Expected error for unknown aggregation")
	}
}

func TestNewDependencyChecks(t *testing.T) {
	client := NewVisionClient(nil)
	backend, err := NewCaptionBackend(client, NewVisionLimiter(nil), &conf.Vision{Caption: &conf.Vision_Caption{Provider: "ollama"}}, log.DefaultLogger)
	if err != nil {
		t.Fatal(err)
	}
	d := &Data{}
	checks, cleanup, err := NewDependencyChecks(client, backend, newMemCache(), d, NewAnalysisRepo(d, log.DefaultLogger), nil, nil, log.DefaultLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	names := map[string]bool{}
	for _, c := range checks {
		names[c.Name] = c.Required
	}
	for name, required := range map[string]bool{"vision": true, "caption_ollama": true, "ffmpeg": true, "redis": false} {
		got, ok := names[name]
		if !ok || got != required {
			t.Errorf("check %s: present=%v required=%v", name, ok, got)
		}
	}
	if _, ok := names["database"]; ok {
		t.Error("Expected no database check when history is disabled")
	}
}
