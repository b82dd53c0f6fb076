package history

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
)

// DefaultLimit is the number of entries kept.
const DefaultLimit = 10

// Entry is one recorded command.
type Entry struct {
	Command   string    `json:"command"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sink accepts completed command text.
type Sink interface {
	Append(command string)
}

// Store is a bounded, most-recent-first command list safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
	now     func() time.Time
}

// New creates a store keeping at most limit entries. A non-positive limit
// uses DefaultLimit.
func New(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		limit: limit,
		now:   time.Now,
	}
}

// Append records a command at the front of the list. Empty commands are
// ignored.
func (s *Store) Append(command string) {
	if strings.TrimSpace(command) == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{Command: command, CreatedAt: s.now()}
	s.entries = append([]Entry{entry}, s.entries...)
	if len(s.entries) > s.limit {
		s.entries = s.entries[:s.limit]
	}

	metrics.HistoryEntries.Set(float64(len(s.entries)))
	logging.Debug("History: recorded command (%d entries)", len(s.entries))
}

// List returns a copy of the entries, newest first.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Export writes one command per line, newest first.
func (s *Store) Export(w io.Writer) error {
	for _, e := range s.List() {
		if _, err := fmt.Fprintln(w, e.Command); err != nil {
			return fmt.Errorf("failed to export history: %w", err)
		}
	}
	return nil
}
