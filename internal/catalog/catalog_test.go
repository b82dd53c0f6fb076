package catalog

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultCatalogLoads(t *testing.T) {
	tbl, err := Parse(embeddedCatalog)
	if err != nil {
		t.Fatalf("Parse(embedded) error = %v", err)
	}

	if got := len(tbl.Codecs()); got != 19 {
		t.Errorf("len(Codecs()) = %d, want 19", got)
	}
	if got := len(tbl.PixelFormats()); got != 28 {
		t.Errorf("len(PixelFormats()) = %d, want 28", got)
	}
}

func TestCodecLookup(t *testing.T) {
	tbl := Default()

	tests := []struct {
		id      string
		encoder string
		ok      bool
	}{
		{"h264", "libx264", true},
		{"vp9", "libvpx-vp9", true},
		{"av1-svt", "libsvtav1", true},
		{"prores", "prores_ks", true},
		{"nope", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, ok := tbl.Codec(tt.id)
			if ok != tt.ok {
				t.Fatalf("Codec(%q) ok = %v, want %v", tt.id, ok, tt.ok)
			}
			if c.Encoder != tt.encoder {
				t.Errorf("Codec(%q).Encoder = %q, want %q", tt.id, c.Encoder, tt.encoder)
			}
		})
	}
}

func TestCodecsReturnsCopies(t *testing.T) {
	tbl := Default()

	codecs := tbl.Codecs()
	codecs[0].Extensions[0] = "mutated"
	codecs[0].ID = "mutated"

	c, ok := tbl.Codec("h264")
	if !ok {
		t.Fatal("h264 missing after mutating a copy")
	}
	if c.Extensions[0] != "mp4" {
		t.Errorf("table was mutated through a returned copy: %v", c.Extensions)
	}

	c.Extensions[0] = "mutated"
	again, _ := tbl.Codec("h264")
	if again.Extensions[0] != "mp4" {
		t.Errorf("table was mutated through Codec() result: %v", again.Extensions)
	}
}

func TestCodecSupports(t *testing.T) {
	tbl := Default()
	h263, _ := tbl.Codec("h263")

	if !h263.Supports("3gp") {
		t.Error("h263 should support 3gp")
	}
	if h263.Supports("mp4") {
		t.Error("h263 should not support mp4")
	}
}

func TestVisiblePixelFormats(t *testing.T) {
	tbl := Default()
	common := []string{"yuv420p", "yuv422p", "yuv444p", "yuv420p10le", "nv12", "p010le", "rgb24", "rgba", "gray"}

	tests := []struct {
		name     string
		showAll  bool
		selected string
		want     []string
	}{
		{"common subset", false, "", common},
		{"selected common stays in place", false, "nv12", common},
		{"selected uncommon is prepended", false, "gbrp", append([]string{"gbrp"}, common...)},
		{"unknown selection ignored", false, "bogus", common},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ids(tbl.VisiblePixelFormats(tt.showAll, tt.selected))); diff != "" {
				t.Errorf("VisiblePixelFormats() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := len(tbl.VisiblePixelFormats(true, "")); got != 28 {
		t.Errorf("VisiblePixelFormats(true) returned %d formats, want 28", got)
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"duplicate codec", "codecs:\n  - {id: a, encoder: x, extensions: [mp4]}\n  - {id: a, encoder: y, extensions: [mkv]}\n"},
		{"missing encoder", "codecs:\n  - {id: a, extensions: [mp4]}\n"},
		{"no extensions", "codecs:\n  - {id: a, encoder: x}\n"},
		{"empty codec id", "codecs:\n  - {encoder: x, extensions: [mp4]}\n"},
		{"duplicate pixel format", "pixel_formats:\n  - {id: rgb24}\n  - {id: rgb24}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("Parse() error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("codecs: [")); err == nil {
		t.Error("Parse() expected error for malformed YAML")
	}
}

func ids(formats []PixelFormat) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = f.ID
	}
	return out
}
