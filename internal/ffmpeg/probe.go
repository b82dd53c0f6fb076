package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
)

// ErrNoVideoStream is returned when a probed file has no decodable video.
var ErrNoVideoStream = errors.New("no video stream")

// Stream is one stream entry of ffprobe's -show_streams output.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	PixFmt       string `json:"pix_fmt,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

// Format is ffprobe's -show_format output.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeResult holds the metadata ffprobe reports for a file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// ParseProbe decodes ffprobe JSON output.
func ParseProbe(data []byte) (*ProbeResult, error) {
	var r ProbeResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode ffprobe output: %w", err)
	}
	return &r, nil
}

// VideoStream returns the first video stream.
func (r *ProbeResult) VideoStream() (Stream, bool) {
	for _, s := range r.Streams {
		if s.CodecType == "video" {
			return s, true
		}
	}
	return Stream{}, false
}

// Duration returns the container duration in seconds, falling back to the
// video stream's duration. Missing or unparsable values yield 0.
func (r *ProbeResult) Duration() float64 {
	if d, err := strconv.ParseFloat(r.Format.Duration, 64); err == nil && d > 0 && !math.IsInf(d, 0) {
		return d
	}
	if v, ok := r.VideoStream(); ok {
		if d, err := strconv.ParseFloat(v.Duration, 64); err == nil && d > 0 && !math.IsInf(d, 0) {
			return d
		}
	}
	return 0
}

// FrameRate returns the video stream's frame rate rounded to an integer,
// or 0 when ffprobe did not report a usable one.
func (r *ProbeResult) FrameRate() int {
	v, ok := r.VideoStream()
	if !ok {
		return 0
	}
	for _, s := range []string{v.AvgFrameRate, v.RFrameRate} {
		if fps := parseRational(s); fps > 0 {
			return int(math.Round(fps))
		}
	}
	return 0
}

// parseRational parses "30000/1001" or "25" style rates.
func parseRational(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// Probe runs ffprobe on path.
func (t *Tool) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		metrics.ProbeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	r, err := ParseProbe(stdout.Bytes())
	if err != nil {
		metrics.ProbeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}
	metrics.ProbeDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	return r, nil
}
