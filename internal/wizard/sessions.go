package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/constraint"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/preview"

	"github.com/google/uuid"
)

// DefaultIdleTimeout is how long an untouched session survives.
const DefaultIdleTimeout = 30 * time.Minute

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// SessionConfig configures a Sessions registry.
type SessionConfig struct {
	Filter      *constraint.Filter
	Store       SourceStore
	Opener      preview.Opener
	Preview     preview.Options
	IdleTimeout time.Duration
}

type entry[T any] struct {
	wizard   T
	lastUsed time.Time
}

// Sessions holds the live wizard sessions keyed by id.
type Sessions struct {
	cfg SessionConfig
	now func() time.Time

	mu      sync.Mutex
	convert map[string]*entry[*ConvertWizard]
	trim    map[string]*entry[*TrimWizard]
}

// NewSessions creates an empty registry.
func NewSessions(cfg SessionConfig) *Sessions {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	return &Sessions{
		cfg:     cfg,
		now:     time.Now,
		convert: make(map[string]*entry[*ConvertWizard]),
		trim:    make(map[string]*entry[*TrimWizard]),
	}
}

// NewConvert starts a convert session.
func (s *Sessions) NewConvert() (string, *ConvertWizard) {
	id := uuid.NewString()
	w := NewConvertWizard(s.cfg.Filter)

	s.mu.Lock()
	s.convert[id] = &entry[*ConvertWizard]{wizard: w, lastUsed: s.now()}
	s.mu.Unlock()

	metrics.SessionsCreatedTotal.WithLabelValues(metrics.KindConvert).Inc()
	metrics.SessionsActive.WithLabelValues(metrics.KindConvert).Inc()
	logging.Debug("Convert session created: %s", id)
	return id, w
}

// Convert looks up a convert session and marks it used.
func (s *Sessions) Convert(id string) (*ConvertWizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.convert[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = s.now()
	return e.wizard, nil
}

// DeleteConvert ends a convert session.
func (s *Sessions) DeleteConvert(id string) error {
	s.mu.Lock()
	e, ok := s.convert[id]
	delete(s.convert, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	metrics.SessionsActive.WithLabelValues(metrics.KindConvert).Dec()
	return e.wizard.Close()
}

// NewTrim starts a trim session.
func (s *Sessions) NewTrim() (string, *TrimWizard) {
	id := uuid.NewString()
	w := NewTrimWizard(s.cfg.Store, s.cfg.Opener, s.cfg.Preview)

	s.mu.Lock()
	s.trim[id] = &entry[*TrimWizard]{wizard: w, lastUsed: s.now()}
	s.mu.Unlock()

	metrics.SessionsCreatedTotal.WithLabelValues(metrics.KindTrim).Inc()
	metrics.SessionsActive.WithLabelValues(metrics.KindTrim).Inc()
	logging.Debug("Trim session created: %s", id)
	return id, w
}

// Trim looks up a trim session and marks it used.
func (s *Sessions) Trim(id string) (*TrimWizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.trim[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = s.now()
	return e.wizard, nil
}

// DeleteTrim ends a trim session, releasing its source.
func (s *Sessions) DeleteTrim(id string) error {
	s.mu.Lock()
	e, ok := s.trim[id]
	delete(s.trim, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	metrics.SessionsActive.WithLabelValues(metrics.KindTrim).Dec()
	return e.wizard.Close()
}

// ExpireIdle closes every session not used since now minus the idle
// timeout and returns how many were removed.
func (s *Sessions) ExpireIdle(now time.Time) int {
	cutoff := now.Add(-s.cfg.IdleTimeout)

	var convert []*ConvertWizard
	var trim []*TrimWizard

	s.mu.Lock()
	for id, e := range s.convert {
		if e.lastUsed.Before(cutoff) {
			convert = append(convert, e.wizard)
			delete(s.convert, id)
			logging.Debug("Convert session expired: %s", id)
		}
	}
	for id, e := range s.trim {
		if e.lastUsed.Before(cutoff) {
			trim = append(trim, e.wizard)
			delete(s.trim, id)
			logging.Debug("Trim session expired: %s", id)
		}
	}
	s.mu.Unlock()

	for _, w := range convert {
		_ = w.Close()
		metrics.SessionsActive.WithLabelValues(metrics.KindConvert).Dec()
		metrics.SessionsExpiredTotal.WithLabelValues(metrics.KindConvert).Inc()
	}
	for _, w := range trim {
		if err := w.Close(); err != nil {
			logging.Warn("failed to close expired trim session: %v", err)
		}
		metrics.SessionsActive.WithLabelValues(metrics.KindTrim).Dec()
		metrics.SessionsExpiredTotal.WithLabelValues(metrics.KindTrim).Inc()
	}
	return len(convert) + len(trim)
}

// Run expires idle sessions periodically until ctx is done.
func (s *Sessions) Run(ctx context.Context) {
	interval := s.cfg.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if n := s.ExpireIdle(t); n > 0 {
				logging.Info("Expired %d idle session(s)", n)
			}
		}
	}
}

// Close ends every session.
func (s *Sessions) Close() {
	s.mu.Lock()
	convert, trim := s.convert, s.trim
	s.convert = make(map[string]*entry[*ConvertWizard])
	s.trim = make(map[string]*entry[*TrimWizard])
	s.mu.Unlock()

	for range convert {
		metrics.SessionsActive.WithLabelValues(metrics.KindConvert).Dec()
	}
	for id, e := range trim {
		if err := e.wizard.Close(); err != nil {
			logging.Warn("failed to close trim session %s: %v", id, err)
		}
		metrics.SessionsActive.WithLabelValues(metrics.KindTrim).Dec()
	}
}

// Stats reports session counts for the metrics collector.
type Stats struct {
	Convert       int
	Trim          int
	PreviewsReady int
}

// Stats returns the current session counts.
func (s *Sessions) Stats() Stats {
	s.mu.Lock()
	st := Stats{Convert: len(s.convert), Trim: len(s.trim)}
	trims := make([]*TrimWizard, 0, len(s.trim))
	for _, e := range s.trim {
		trims = append(trims, e.wizard)
	}
	s.mu.Unlock()

	for _, w := range trims {
		if w.pipeline.State() == preview.StateReady {
			st.PreviewsReady++
		}
	}
	return st
}
