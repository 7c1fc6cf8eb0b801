package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrOpen is returned when a video cannot be opened or probed.
	ErrOpen = errors.New("video: cannot open")
	// ErrNoFrames is returned when no frame could be decoded.
	ErrNoFrames = errors.New("video: no frames decoded")
)

// Info describes the first video stream of a file.
type Info struct {
	FrameCount int
	FrameRate  float64
	Duration   float64
	Width      int
	Height     int
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		NbFrames     string `json:"nb_frames"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe on path and reports the video stream properties.
func Probe(ctx context.Context, ffprobe, path string) (*Info, error) {
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-select_streams", "v:0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe %s: %v", ErrOpen, path, err)
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (*Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: parse ffprobe output: %v", ErrOpen, err)
	}
	for _, s := range out.Streams {
		if s.CodecType != "" && s.CodecType != "video" {
			continue
		}
		info := &Info{Width: s.Width, Height: s.Height}
		info.FrameRate = parseRatio(s.AvgFrameRate)
		if info.FrameRate == 0 {
			info.FrameRate = parseRatio(s.RFrameRate)
		}
		info.Duration = parseFloat(s.Duration)
		if info.Duration == 0 {
			info.Duration = parseFloat(out.Format.Duration)
		}
		if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
			info.FrameCount = n
		} else {
			// Containers like webm and mkv carry no frame count.
			info.FrameCount = int(math.Round(info.Duration * info.FrameRate))
		}
		return info, nil
	}
	return nil, fmt.Errorf("%w: no video stream", ErrOpen)
}

func parseRatio(ratio string) float64 {
	num, den, ok := strings.Cut(ratio, "/")
	if !ok {
		return parseFloat(ratio)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
