package ffmpeg

import (
	"testing"
)

const sampleProbe = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio"},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
     "pix_fmt": "yuv420p", "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "duration": "12.480000"}
  ],
  "format": {"filename": "clip.mp4", "format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.512000", "size": "1048576", "bit_rate": "670000"}
}`

func TestParseProbe(t *testing.T) {
	r, err := ParseProbe([]byte(sampleProbe))
	if err != nil {
		t.Fatalf("ParseProbe: %v", err)
	}

	v, ok := r.VideoStream()
	if !ok {
		t.Fatal("no video stream found")
	}
	if v.CodecName != "h264" || v.Width != 1920 || v.Height != 1080 {
		t.Errorf("video stream = %+v", v)
	}
	if d := r.Duration(); d != 12.512 {
		t.Errorf("Duration() = %v, want 12.512", d)
	}
	if fps := r.FrameRate(); fps != 30 {
		t.Errorf("FrameRate() = %d, want 30", fps)
	}
}

func TestParseProbeInvalid(t *testing.T) {
	if _, err := ParseProbe([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDurationFallbacks(t *testing.T) {
	tests := []struct {
		name string
		r    ProbeResult
		want float64
	}{
		{
			name: "format duration",
			r:    ProbeResult{Format: Format{Duration: "3.5"}},
			want: 3.5,
		},
		{
			name: "stream duration when format is missing",
			r: ProbeResult{
				Streams: []Stream{{CodecType: "video", Duration: "7.25"}},
			},
			want: 7.25,
		},
		{
			name: "N/A",
			r:    ProbeResult{Format: Format{Duration: "N/A"}},
			want: 0,
		},
		{
			name: "negative",
			r:    ProbeResult{Format: Format{Duration: "-1"}},
			want: 0,
		},
		{
			name: "infinite",
			r:    ProbeResult{Format: Format{Duration: "inf"}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrameRate(t *testing.T) {
	tests := []struct {
		avg, r string
		want   int
	}{
		{"25/1", "25/1", 25},
		{"0/0", "24000/1001", 24},
		{"", "60", 60},
		{"0/0", "0/0", 0},
		{"garbage", "", 0},
	}

	for _, tt := range tests {
		r := ProbeResult{Streams: []Stream{{CodecType: "video", AvgFrameRate: tt.avg, RFrameRate: tt.r}}}
		if got := r.FrameRate(); got != tt.want {
			t.Errorf("FrameRate(avg=%q, r=%q) = %d, want %d", tt.avg, tt.r, got, tt.want)
		}
	}

	if got := (&ProbeResult{}).FrameRate(); got != 0 {
		t.Errorf("FrameRate without video = %d, want 0", got)
	}
}
