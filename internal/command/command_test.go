package command

import "testing"

func TestConvertString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Convert
		want string
	}{
		{
			name: "codec and extension only",
			cmd:  Convert{Input: "clip.mov", Encoder: "libx264", Extension: "mp4"},
			want: `ffmpeg -i "clip.mov" -c:v libx264 -c:a copy "clip.mp4"`,
		},
		{
			name: "with pixel format",
			cmd:  Convert{Input: "clip.mov", Encoder: "libx265", PixelFormat: "yuv420p10le", Extension: "mkv"},
			want: `ffmpeg -i "clip.mov" -c:v libx265 -pix_fmt yuv420p10le -c:a copy "clip.mkv"`,
		},
		{
			name: "with size",
			cmd:  Convert{Input: "clip.mov", Encoder: "libvpx-vp9", Width: 1280, Height: 720, Extension: "webm"},
			want: `ffmpeg -i "clip.mov" -c:v libvpx-vp9 -s 1280x720 -c:a copy "clip.webm"`,
		},
		{
			name: "pixel format then size",
			cmd:  Convert{Input: "a.avi", Encoder: "prores_ks", PixelFormat: "yuv422p10le", Width: 1920, Height: 1080, Extension: "mov"},
			want: `ffmpeg -i "a.avi" -c:v prores_ks -pix_fmt yuv422p10le -s 1920x1080 -c:a copy "a.mov"`,
		},
		{
			name: "width without height omits size",
			cmd:  Convert{Input: "clip.mov", Encoder: "libx264", Width: 640, Extension: "mp4"},
			want: `ffmpeg -i "clip.mov" -c:v libx264 -c:a copy "clip.mp4"`,
		},
		{
			name: "input path keeps directories, output drops them",
			cmd:  Convert{Input: "/home/me/videos/clip.mov", Encoder: "libx264", Extension: "mp4"},
			want: `ffmpeg -i "/home/me/videos/clip.mov" -c:v libx264 -c:a copy "clip.mp4"`,
		},
		{
			name: "windows path is not escaped",
			cmd:  Convert{Input: `C:\videos\clip.mov`, Encoder: "libx264", Extension: "mp4"},
			want: `ffmpeg -i "C:\videos\clip.mov" -c:v libx264 -c:a copy "clip.mp4"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestTrimString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Trim
		want string
	}{
		{
			name: "seconds",
			cmd:  Trim{Input: "clip.mov", Start: "1.50", End: "3.00"},
			want: `ffmpeg -i "clip.mov" -ss 1.50 -to 3.00 -c copy "trim_clip.mov"`,
		},
		{
			name: "clock times pass through",
			cmd:  Trim{Input: "clip.mov", Start: "00:00:01", End: "00:01:00.5"},
			want: `ffmpeg -i "clip.mov" -ss 00:00:01 -to 00:01:00.5 -c copy "trim_clip.mov"`,
		},
		{
			name: "surrounding whitespace trimmed",
			cmd:  Trim{Input: "clip.mov", Start: "  2 ", End: "\t4\n"},
			want: `ffmpeg -i "clip.mov" -ss 2 -to 4 -c copy "trim_clip.mov"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input string
		ext   string
		want  string
	}{
		{"clip.mov", "mp4", "clip.mp4"},
		{"Clip.MOV", "mkv", "Clip.mkv"},
		{"archive.tar.gz", "webm", "archive.tar.webm"},
		{"noext", "mp4", "noext.mp4"},
		{".hidden", "mp4", ".hidden.mp4"},
		{"dir/sub/clip.mov", "avi", "clip.avi"},
		{`dir\sub\clip.mov`, "avi", "clip.avi"},
		{"dir.with.dots/clip", "mp4", "clip.mp4"},
		{"trailing/", "mp4", "trailing/.mp4"},
	}

	for _, tt := range tests {
		if got := OutputName(tt.input, tt.ext); got != tt.want {
			t.Errorf("OutputName(%q, %q) = %q, want %q", tt.input, tt.ext, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("/abs/clip.mov", "rel/clip.mov", "clip.mov"); got != "/abs/clip.mov" {
		t.Errorf("DisplayName prefers path, got %q", got)
	}
	if got := DisplayName("", "rel/clip.mov", "clip.mov"); got != "rel/clip.mov" {
		t.Errorf("DisplayName falls back to relative path, got %q", got)
	}
	if got := DisplayName("", "", "clip.mov"); got != "clip.mov" {
		t.Errorf("DisplayName falls back to name, got %q", got)
	}
}
