package preview

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTempStoreCreateAndRelease(t *testing.T) {
	store, err := NewTempStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}

	src, err := store.Create("Holiday.MOV", strings.NewReader("not really a movie"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if src.Name != "Holiday.MOV" {
		t.Errorf("Name = %q", src.Name)
	}
	if src.Size != int64(len("not really a movie")) {
		t.Errorf("Size = %d", src.Size)
	}
	if src.MimeType != "video/quicktime" {
		t.Errorf("MimeType = %q, want video/quicktime", src.MimeType)
	}
	if filepath.Dir(src.Path) != store.Dir() || filepath.Ext(src.Path) != ".mov" {
		t.Errorf("Path = %q, want a .mov file in %q", src.Path, store.Dir())
	}
	if src.ID == "" {
		t.Error("ID is empty")
	}

	if _, err := os.Stat(src.Path); err != nil {
		t.Fatalf("temp file missing: %v", err)
	}
	if err := src.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(src.Path); !os.IsNotExist(err) {
		t.Errorf("temp file still present after Release: %v", err)
	}
	if !src.Released() {
		t.Error("Released() = false after Release")
	}
	if err := src.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
}

func TestTempStoreRejectsOversizedUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewTempStore(dir, 8)
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Create("big.mp4", strings.NewReader("0123456789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("oversized upload left %d files behind", len(entries))
	}
}

func TestTempStoreAcceptsExactLimit(t *testing.T) {
	store, err := NewTempStore(t.TempDir(), 4)
	if err != nil {
		t.Fatal(err)
	}
	src, err := store.Create("ok.mp4", strings.NewReader("1234"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer src.Release()
	if src.Size != 4 {
		t.Errorf("Size = %d, want 4", src.Size)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestTempStoreCopyFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := NewTempStore(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create("x.mp4", failingReader{}); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("failed upload left %d files behind", len(entries))
	}
}

func TestNilSourceRelease(t *testing.T) {
	var src *Source
	if err := src.Release(); err != nil {
		t.Errorf("nil Release: %v", err)
	}
	if src.Released() {
		t.Error("nil source reports released")
	}
}

func TestReleaseErrorIsSticky(t *testing.T) {
	want := errors.New("busy")
	calls := 0
	src := NewSource("a.mp4", "", 0, func() error {
		calls++
		return want
	})
	if err := src.Release(); !errors.Is(err, want) {
		t.Errorf("Release = %v, want %v", err, want)
	}
	if err := src.Release(); !errors.Is(err, want) {
		t.Errorf("second Release = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Errorf("release func called %d times, want 1", calls)
	}
}
