package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
)

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		budget int
		want   []int
	}{
		{"uneven", 25, 10, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24}},
		{"exact", 100, 10, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}},
		{"short video", 4, 10, []int{0, 1, 2, 3}},
		{"single frame", 1, 10, []int{0}},
		{"empty", 0, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleIndices(tt.total, tt.budget)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SampleIndices(%d, %d) = %v, want %v", tt.total, tt.budget, got, tt.want)
			}
		})
	}
}

func TestStride(t *testing.T) {
	if got := Stride(25, 10); got != 2 {
		t.Errorf("Stride(25, 10) = %d, want 2", got)
	}
	if got := Stride(5, 10); got != 1 {
		t.Errorf("Stride(5, 10) = %d, want 1", got)
	}
	if got := Stride(50, 0); got != 5 {
		t.Errorf("Stride(50, 0) = %d, want default budget stride 5", got)
	}
}

func TestParseProbe(t *testing.T) {
	data := []byte(`{"streams":[{"codec_type":"video","width":1280,"height":720,
		"nb_frames":"250","avg_frame_rate":"25/1","duration":"10.000000"}],
		"format":{"duration":"10.000000"}}`)
	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if info.FrameCount != 250 || info.FrameRate != 25 || info.Width != 1280 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestParseProbe_NoFrameCount(t *testing.T) {
	data := []byte(`{"streams":[{"codec_type":"video","avg_frame_rate":"30000/1001"}],
		"format":{"duration":"2.002"}}`)
	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if info.FrameCount != 60 {
		t.Errorf("Expected 60 frames from duration x rate, got %d", info.FrameCount)
	}
}

func TestParseProbe_NoVideoStream(t *testing.T) {
	data := []byte(`{"streams":[{"codec_type":"audio"}],"format":{}}`)
	if _, err := parseProbe(data); !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
	if _, err := parseProbe([]byte("not json")); !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen for garbage, got %v", err)
	}
}

func TestExtractArgs(t *testing.T) {
	args := extractArgs("in.mp4", "/tmp/x", 2, 13)
	want := "select=not(mod(n\\,2))"
	found := false
	for i, a := range args {
		if a == "-vf" && args[i+1] == want {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected select filter %q in %v", want, args)
	}
}

func TestExtractor_MissingFile(t *testing.T) {
	e := NewExtractor(DefaultConfig(), log.DefaultLogger)
	_, err := e.Sample(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
}

func TestFrames_Cleanup(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "frames")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	f := &Frames{dir: sub}
	f.Cleanup()
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Errorf("Expected frame dir removed, stat err = %v", err)
	}
	var nilFrames *Frames
	nilFrames.Cleanup()
}
