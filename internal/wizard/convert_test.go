package wizard

import (
	"errors"
	"testing"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/catalog"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/constraint"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/history"
)

func newConvert(t *testing.T) *ConvertWizard {
	t.Helper()
	return NewConvertWizard(constraint.New(catalog.Default()))
}

func TestConvertWizardHappyPath(t *testing.T) {
	w := newConvert(t)

	if w.CanProceed() {
		t.Fatal("CanProceed() = true with no file")
	}
	if err := w.Next(); !errors.Is(err, ErrStepIncomplete) {
		t.Fatalf("Next() without file error = %v, want ErrStepIncomplete", err)
	}

	if err := w.SelectFile("clip.mov"); err != nil {
		t.Fatalf("SelectFile() error = %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if err := w.SelectCodec("h264"); err != nil {
		t.Fatalf("SelectCodec() error = %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if err := w.SelectExtension("mp4"); err != nil {
		t.Fatalf("SelectExtension() error = %v", err)
	}

	state := w.State()
	if !state.IsLastStep || state.StepName != "extension" {
		t.Errorf("state step = %d (%s), want last step extension", state.Step, state.StepName)
	}

	want := `ffmpeg -i "clip.mov" -c:v libx264 -c:a copy "clip.mp4"`
	if got := w.Command(); got != want {
		t.Errorf("Command() = %q, want %q", got, want)
	}

	store := history.New(0)
	got, err := w.Complete(store)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != want {
		t.Errorf("Complete() = %q, want %q", got, want)
	}
	if entries := store.List(); len(entries) != 1 || entries[0].Command != want {
		t.Errorf("history = %+v, want one entry %q", entries, want)
	}

	after := w.State()
	if after.Step != int(StepFile) || after.File != "" || after.Codec != "" || after.Extension != "" {
		t.Errorf("state after Complete = %+v, want reset", after)
	}
}

func TestConvertWizardOptionalFlags(t *testing.T) {
	w := newConvert(t)
	mustNil(t, w.SelectFile(`C:\videos\clip.final.mov`))
	mustNil(t, w.SelectCodec("h265"))
	mustNil(t, w.SelectExtension("mkv"))
	mustNil(t, w.SelectPixelFormat("yuv420p10le"))

	mustNil(t, w.SetDimensions(1920, 0))
	want := `ffmpeg -i "C:\videos\clip.final.mov" -c:v libx265 -pix_fmt yuv420p10le -c:a copy "clip.final.mkv"`
	if got := w.Command(); got != want {
		t.Errorf("Command() with one dimension = %q, want %q", got, want)
	}

	mustNil(t, w.SetDimensions(1920, 1080))
	want = `ffmpeg -i "C:\videos\clip.final.mov" -c:v libx265 -pix_fmt yuv420p10le -s 1920x1080 -c:a copy "clip.final.mkv"`
	if got := w.Command(); got != want {
		t.Errorf("Command() = %q, want %q", got, want)
	}
}

func TestConvertWizardReconcile(t *testing.T) {
	tests := []struct {
		name      string
		codec     string
		ext       string
		thenCodec string
		wantCodec string
		wantExt   string
	}{
		{name: "compatible change keeps extension", codec: "h264", ext: "mkv", thenCodec: "vp9", wantCodec: "vp9", wantExt: "mkv"},
		{name: "incompatible change clears extension", codec: "h264", ext: "mp4", thenCodec: "vp9", wantCodec: "vp9", wantExt: ""},
		{name: "clearing codec keeps extension", codec: "h264", ext: "mp4", thenCodec: "", wantCodec: "", wantExt: "mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newConvert(t)
			mustNil(t, w.SelectCodec(tt.codec))
			mustNil(t, w.SelectExtension(tt.ext))
			mustNil(t, w.SelectCodec(tt.thenCodec))

			s := w.State()
			if s.Codec != tt.wantCodec || s.Extension != tt.wantExt {
				t.Errorf("got (%q, %q), want (%q, %q)", s.Codec, s.Extension, tt.wantCodec, tt.wantExt)
			}
		})
	}
}

func TestConvertWizardExtensionYieldsToCodec(t *testing.T) {
	w := newConvert(t)
	mustNil(t, w.SelectCodec("theora"))
	mustNil(t, w.SelectExtension("mp4"))

	s := w.State()
	if s.Codec != "theora" || s.Extension != "" {
		t.Errorf("got (%q, %q), want (theora, \"\")", s.Codec, s.Extension)
	}
	if len(s.LegalExtensions) != 1 || s.LegalExtensions[0] != "ogv" {
		t.Errorf("LegalExtensions = %v, want [ogv]", s.LegalExtensions)
	}
}

func TestConvertWizardRejectsUnknownValues(t *testing.T) {
	w := newConvert(t)

	if err := w.SelectFile(""); !errors.Is(err, ErrNoFile) {
		t.Errorf("SelectFile(\"\") error = %v, want ErrNoFile", err)
	}
	if err := w.SelectCodec("h266"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("SelectCodec(h266) error = %v, want ErrUnknownCodec", err)
	}
	if err := w.SelectExtension("exe"); !errors.Is(err, ErrUnknownExtension) {
		t.Errorf("SelectExtension(exe) error = %v, want ErrUnknownExtension", err)
	}
	if err := w.SelectPixelFormat("rgb565"); !errors.Is(err, ErrUnknownPixelFormat) {
		t.Errorf("SelectPixelFormat(rgb565) error = %v, want ErrUnknownPixelFormat", err)
	}
	if err := w.SetDimensions(-1, 10); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("SetDimensions(-1, 10) error = %v, want ErrInvalidDimension", err)
	}
}

func TestConvertWizardStepNavigation(t *testing.T) {
	w := newConvert(t)

	w.Back()
	if s := w.State(); s.Step != int(StepFile) {
		t.Fatalf("Back() on first step moved to %d", s.Step)
	}

	mustNil(t, w.SelectFile("a.mp4"))
	mustNil(t, w.SelectCodec("vp9"))
	mustNil(t, w.Next())
	mustNil(t, w.Next())
	if err := w.Next(); !errors.Is(err, ErrLastStep) {
		t.Errorf("Next() on last step error = %v, want ErrLastStep", err)
	}
	if w.CanProceed() {
		t.Error("CanProceed() = true on extension step without extension")
	}
	if _, err := w.Complete(nil); !errors.Is(err, ErrStepIncomplete) {
		t.Errorf("Complete() without extension error = %v, want ErrStepIncomplete", err)
	}

	w.Back()
	if s := w.State(); s.StepName != "codec" || !s.CanProceed {
		t.Errorf("after Back() state = %s canProceed=%v, want codec/true", s.StepName, s.CanProceed)
	}
}

func TestConvertWizardCompleteOnlyFromLastStep(t *testing.T) {
	w := newConvert(t)
	mustNil(t, w.SelectFile("a.mov"))
	mustNil(t, w.SelectCodec("h264"))
	mustNil(t, w.SelectExtension("mp4"))

	if w.Command() == "" {
		t.Fatal("Command() empty with complete selection")
	}
	if _, err := w.Complete(nil); !errors.Is(err, ErrStepIncomplete) {
		t.Errorf("Complete() on first step error = %v, want ErrStepIncomplete", err)
	}
}

func TestConvertWizardPixelFormatVisibility(t *testing.T) {
	w := newConvert(t)
	tbl := catalog.Default()

	common := len(tbl.VisiblePixelFormats(false, ""))
	if got := len(w.State().PixelFormats); got != common {
		t.Errorf("visible formats = %d, want %d", got, common)
	}

	mustNil(t, w.SelectPixelFormat("gbrp"))
	s := w.State()
	if len(s.PixelFormats) != common+1 || s.PixelFormats[0].ID != "gbrp" {
		t.Errorf("selected uncommon format not listed first: %+v", s.PixelFormats[:1])
	}

	w.ShowAllPixelFormats()
	if got := len(w.State().PixelFormats); got != len(tbl.PixelFormats()) {
		t.Errorf("visible formats with show all = %d, want %d", got, len(tbl.PixelFormats()))
	}

	w.Reset()
	if w.State().ShowAllFormats {
		t.Error("Reset() kept show-all")
	}
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
