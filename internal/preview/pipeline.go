package preview

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/timecode"
)

var (
	// ErrNotReady is returned when scrubbing without a loaded source.
	ErrNotReady = errors.New("no media loaded")
	// ErrNoDuration is returned when the loaded source has no usable duration.
	ErrNoDuration = errors.New("media has no duration")
	// ErrSuperseded is returned by Wait when a newer scrub or load replaced
	// the awaited request.
	ErrSuperseded = errors.New("preview request superseded")
)

// DefaultEpsilon is the distance in seconds under which the decoder is
// considered to already sit on the requested frame.
const DefaultEpsilon = 0.01

// State is the lifecycle state of a Pipeline.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ScrubRequest identifies one scrub. Tokens increase strictly.
type ScrubRequest struct {
	Token uint64  `json:"token"`
	Time  float64 `json:"time"`
}

// Frame is a published preview image.
type Frame struct {
	Token      uint64    `json:"token"`
	Time       float64   `json:"time"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CapturedAt time.Time `json:"capturedAt"`
	Image      []byte    `json:"-"`
}

// Options configures a Pipeline. Zero values use the package defaults.
type Options struct {
	Width   int
	Height  int
	Quality int
	Epsilon float64

	// OnLoad is called after a load of src resolves, without the pipeline
	// lock held. Superseded loads do not call it.
	OnLoad func(src *Source, meta Metadata, err error)
	// OnFrame is called after a frame is published, without the pipeline lock held.
	OnFrame func(Frame)
}

type failure struct {
	token uint64
	err   error
}

// Pipeline turns scrub positions into preview frames for a single source.
type Pipeline struct {
	opener Opener
	opts   Options

	mu         sync.Mutex
	state      State
	source     *Source
	decoder    Decoder
	meta       Metadata
	loadErr    error
	loadGen    uint64
	cancelLoad context.CancelFunc
	token      uint64
	frame      *Frame
	failed     failure
	changed    chan struct{}
}

// NewPipeline creates an idle pipeline.
func NewPipeline(opener Opener, opts Options) *Pipeline {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	return &Pipeline{
		opener:  opener,
		opts:    opts,
		changed: make(chan struct{}),
	}
}

// notifyLocked wakes every Wait call. p.mu must be held.
func (p *Pipeline) notifyLocked() {
	close(p.changed)
	p.changed = make(chan struct{})
}

// detachLocked drops the current source, decoder and preview and
// invalidates in-flight loads and scrubs. The returned func frees the
// detached resources and must be called after p.mu is released.
func (p *Pipeline) detachLocked() func() {
	src, dec, cancel := p.source, p.decoder, p.cancelLoad
	p.source, p.decoder, p.cancelLoad = nil, nil, nil
	p.state = StateIdle
	p.meta = Metadata{}
	p.frame = nil
	p.failed = failure{}
	p.token++
	p.loadGen++
	p.notifyLocked()

	return func() {
		if cancel != nil {
			cancel()
		}
		if dec != nil {
			if err := dec.Close(); err != nil {
				logging.Warn("failed to close decoder: %v", err)
			}
		}
		if err := src.Release(); err != nil {
			logging.Warn("failed to release source: %v", err)
		}
	}
}

// Load replaces the current source with src and starts opening it. The
// previous source is released before Load returns. The returned channel is
// closed once this load resolves, fails or is superseded.
func (p *Pipeline) Load(src *Source) <-chan struct{} {
	done := make(chan struct{})

	p.mu.Lock()
	cleanup := p.detachLocked()
	p.loadErr = nil
	if src == nil {
		p.mu.Unlock()
		cleanup()
		close(done)
		return done
	}
	gen := p.loadGen
	ctx, cancel := context.WithCancel(context.Background())
	p.source = src
	p.cancelLoad = cancel
	p.state = StateLoading
	p.notifyLocked()
	p.mu.Unlock()

	cleanup()

	go p.open(ctx, cancel, gen, src, done)
	return done
}

func (p *Pipeline) open(ctx context.Context, cancel context.CancelFunc, gen uint64, src *Source, done chan struct{}) {
	defer close(done)
	defer cancel()

	dec, err := p.opener.Open(ctx, src)

	p.mu.Lock()
	if gen != p.loadGen {
		// Whoever superseded this load already released src.
		p.mu.Unlock()
		metrics.PreviewLoadsTotal.WithLabelValues("superseded").Inc()
		if dec != nil {
			if cerr := dec.Close(); cerr != nil {
				logging.Warn("failed to close superseded decoder: %v", cerr)
			}
		}
		return
	}
	p.cancelLoad = nil
	onLoad := p.opts.OnLoad

	if err != nil {
		p.state = StateIdle
		p.source = nil
		p.loadErr = err
		p.notifyLocked()
		p.mu.Unlock()

		metrics.PreviewLoadsTotal.WithLabelValues("error").Inc()
		logging.Warn("Failed to load %s: %v", src.Name, err)
		if rerr := src.Release(); rerr != nil {
			logging.Warn("failed to release source: %v", rerr)
		}
		if onLoad != nil {
			onLoad(src, Metadata{}, err)
		}
		return
	}

	meta := dec.Metadata()
	if math.IsNaN(meta.Duration) || math.IsInf(meta.Duration, 0) || meta.Duration < 0 {
		meta.Duration = 0
	}
	if meta.FrameRate <= 0 {
		meta.FrameRate = timecode.DefaultFrameRate
	}
	p.decoder = dec
	p.meta = meta
	p.state = StateReady
	p.notifyLocked()
	p.mu.Unlock()

	metrics.PreviewLoadsTotal.WithLabelValues("success").Inc()
	logging.Debug("Loaded %s: duration=%.3fs %dx%d", src.Name, meta.Duration, meta.Width, meta.Height)
	if onLoad != nil {
		onLoad(src, meta, nil)
	}
}

// Scrub requests a preview at t, clamped to [0, duration]. The frame is
// captured immediately when the decoder already sits on t; otherwise a seek
// is issued and the frame is published when it completes, unless a newer
// request has been made by then.
func (p *Pipeline) Scrub(t float64) (ScrubRequest, error) {
	p.mu.Lock()
	if p.state != StateReady || p.decoder == nil {
		p.mu.Unlock()
		return ScrubRequest{}, ErrNotReady
	}
	duration := p.meta.Duration
	if duration <= 0 {
		p.mu.Unlock()
		return ScrubRequest{}, ErrNoDuration
	}
	if math.IsNaN(t) {
		t = 0
	}
	p.token++
	req := ScrubRequest{Token: p.token, Time: math.Min(math.Max(t, 0), duration)}
	dec := p.decoder
	p.notifyLocked()
	p.mu.Unlock()

	metrics.ScrubRequestsTotal.Inc()

	if math.Abs(dec.Position()-req.Time) < p.opts.Epsilon && dec.HasFrame() {
		p.capture(req, dec)
		return req, nil
	}

	dec.Seek(req.Time, func(err error) {
		p.seeked(req, dec, err)
	})
	return req, nil
}

// current reports whether req is still the latest request for dec.
func (p *Pipeline) current(req ScrubRequest, dec Decoder) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return req.Token == p.token && dec == p.decoder
}

func (p *Pipeline) seeked(req ScrubRequest, dec Decoder, err error) {
	if err != nil {
		p.fail(req, dec, err)
		return
	}
	if !p.current(req, dec) {
		metrics.ScrubResultsTotal.WithLabelValues("stale").Inc()
		return
	}
	p.capture(req, dec)
}

func (p *Pipeline) fail(req ScrubRequest, dec Decoder, err error) {
	p.mu.Lock()
	if req.Token != p.token || dec != p.decoder {
		p.mu.Unlock()
		metrics.ScrubResultsTotal.WithLabelValues("stale").Inc()
		return
	}
	p.failed = failure{token: req.Token, err: err}
	p.notifyLocked()
	p.mu.Unlock()

	metrics.ScrubResultsTotal.WithLabelValues("error").Inc()
	logging.Warn("Preview at %.3fs failed: %v", req.Time, err)
}

func (p *Pipeline) capture(req ScrubRequest, dec Decoder) {
	start := time.Now()
	img, err := dec.Frame()
	var data []byte
	if err == nil {
		data, err = Capture(img, p.opts.Width, p.opts.Height, p.opts.Quality)
	}
	metrics.CaptureDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.fail(req, dec, err)
		return
	}

	p.mu.Lock()
	if req.Token != p.token || dec != p.decoder {
		p.mu.Unlock()
		metrics.ScrubResultsTotal.WithLabelValues("stale").Inc()
		return
	}
	f := Frame{
		Token:      req.Token,
		Time:       req.Time,
		Width:      p.opts.Width,
		Height:     p.opts.Height,
		CapturedAt: time.Now(),
		Image:      data,
	}
	p.frame = &f
	p.notifyLocked()
	onFrame := p.opts.OnFrame
	p.mu.Unlock()

	metrics.ScrubResultsTotal.WithLabelValues("published").Inc()
	if onFrame != nil {
		onFrame(f)
	}
}

// Wait blocks until the frame for token is published, the request fails or
// is superseded, or ctx is done.
func (p *Pipeline) Wait(ctx context.Context, token uint64) (Frame, error) {
	for {
		p.mu.Lock()
		switch {
		case p.frame != nil && p.frame.Token == token:
			f := *p.frame
			p.mu.Unlock()
			return f, nil
		case p.failed.err != nil && p.failed.token == token:
			err := p.failed.err
			p.mu.Unlock()
			return Frame{}, err
		case token != p.token || p.state != StateReady:
			p.mu.Unlock()
			return Frame{}, ErrSuperseded
		}
		changed := p.changed
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-changed:
		}
	}
}

// WaitLoaded blocks until the pipeline leaves StateLoading or ctx is done,
// and returns the resulting state.
func (p *Pipeline) WaitLoaded(ctx context.Context) (State, error) {
	for {
		p.mu.Lock()
		state, changed := p.state, p.changed
		p.mu.Unlock()
		if state != StateLoading {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-changed:
		}
	}
}

// Preview returns the most recently published frame.
func (p *Pipeline) Preview() (Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frame == nil {
		return Frame{}, false
	}
	return *p.frame, true
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Metadata returns the loaded source's metadata, or the zero value when
// no source is ready.
func (p *Pipeline) Metadata() Metadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.meta
}

// Source returns the current source, which may still be loading.
func (p *Pipeline) Source() *Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

// Err returns the error of the last failed load, if the pipeline has not
// been loaded since.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadErr
}

// Token returns the most recently issued scrub token.
func (p *Pipeline) Token() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

// Close releases the current source and decoder and returns to idle.
// Pending scrubs are discarded. The pipeline may be loaded again.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	cleanup := p.detachLocked()
	p.loadErr = nil
	p.mu.Unlock()
	cleanup()
	return nil
}
