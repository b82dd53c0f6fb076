package preview

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/mediatypes"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the store's size limit.
var ErrTooLarge = errors.New("source exceeds upload size limit")

// Source binds user-supplied bytes to a decodable resource. It is owned by
// one session and released exactly once; further Release calls are no-ops.
type Source struct {
	ID        string
	Name      string
	Path      string
	Size      int64
	MimeType  string
	CreatedAt time.Time

	release  func() error
	once     sync.Once
	released atomic.Bool
	err      error
}

// NewSource wraps an existing resource. release is called on the first
// Release and may be nil.
func NewSource(name, path string, size int64, release func() error) *Source {
	metrics.SourcesLive.Inc()
	return &Source{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      path,
		Size:      size,
		MimeType:  mediatypes.GetMimeType(strings.ToLower(filepath.Ext(name))),
		CreatedAt: time.Now(),
		release:   release,
	}
}

// Release frees the underlying resource. It is safe to call on a nil
// Source and any number of times; only the first call does work.
func (s *Source) Release() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		s.released.Store(true)
		metrics.SourcesLive.Dec()
		if s.release != nil {
			s.err = s.release()
		}
		logging.Debug("Source released: %s (%s)", s.ID, s.Name)
	})
	return s.err
}

// Released reports whether Release has run.
func (s *Source) Released() bool {
	return s != nil && s.released.Load()
}

// TempStore materializes uploads as files in a directory so external
// decoders can read them. Releasing a source removes its file.
type TempStore struct {
	dir      string
	maxBytes int64
}

// NewTempStore creates a store under dir. maxBytes <= 0 disables the limit.
func NewTempStore(dir string, maxBytes int64) (*TempStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &TempStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory uploads are written to.
func (s *TempStore) Dir() string {
	return s.dir
}

// Create copies r into a new temp file and returns its Source.
func (s *TempStore) Create(name string, r io.Reader) (*Source, error) {
	ext := strings.ToLower(filepath.Ext(name))
	f, err := os.CreateTemp(s.dir, "source-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}

	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		removeQuietly(path)
		return nil, fmt.Errorf("failed to write upload: %w", copyErr)
	case closeErr != nil:
		removeQuietly(path)
		return nil, fmt.Errorf("failed to close upload: %w", closeErr)
	case s.maxBytes > 0 && n > s.maxBytes:
		removeQuietly(path)
		return nil, fmt.Errorf("%w (%s)", ErrTooLarge, humanize.Bytes(uint64(s.maxBytes)))
	}

	if !mediatypes.IsVideoFile(ext) {
		logging.Debug("Upload %s has no known video extension; relying on decoder probe", name)
	}
	logging.Info("Source stored: %s (%s)", name, humanize.Bytes(uint64(n)))
	metrics.SourceBytes.Observe(float64(n))

	return NewSource(name, path, n, func() error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return nil
	}), nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove temp file %s: %v", path, err)
	}
}
