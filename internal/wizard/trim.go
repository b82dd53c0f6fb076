package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/command"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/history"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/preview"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/timecode"
)

// InitialPreviewTime is the preview position set when a file is picked,
// slightly past zero so the first decoded frame is not a blank keyframe.
const InitialPreviewTime = 0.08

var (
	ErrInvalidThumb = errors.New("thumb must be 0 (start) or 1 (end)")
	ErrInvalidRange = errors.New("range bounds must be finite")
)

// SourceStore turns uploaded bytes into a decodable source.
type SourceStore interface {
	Create(name string, r io.Reader) (*preview.Source, error)
}

// Timecode is one position rendered in every format the trim slider shows.
type Timecode struct {
	Seconds float64 `json:"seconds"`
	Clock   string  `json:"clock"`
	SMPTE   string  `json:"smpte"`
	Frames  int64   `json:"frames"`
}

// TrimState is a point-in-time view of a trim session.
type TrimState struct {
	File           string  `json:"file"`
	SourceID       string  `json:"sourceId,omitempty"`
	State          string  `json:"state"`
	Error          string  `json:"error,omitempty"`
	Duration       float64 `json:"duration"`
	FrameRate      int     `json:"frameRate"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	RangeStart     float64 `json:"rangeStart"`
	RangeEnd       float64 `json:"rangeEnd"`
	StartText      string  `json:"startText"`
	EndText        string  `json:"endText"`
	Scrubbing      bool    `json:"scrubbing"`
	PreviewTime    float64 `json:"previewTime"`
	PreviewToken   uint64  `json:"previewToken,omitempty"`
	PreviewVisible bool    `json:"previewVisible"`
	SliderEnabled  bool    `json:"sliderEnabled"`
	Command        string  `json:"command"`
}

// TrimWizard picks a video, lets the user drag a trim range over it with a
// live preview and renders the trim command.
type TrimWizard struct {
	store    SourceStore
	pipeline *preview.Pipeline

	// selectMu serializes SelectFile so release and create stay ordered.
	selectMu sync.Mutex

	mu          sync.Mutex
	source      *preview.Source
	file        string
	duration    float64
	frameRate   int
	width       int
	height      int
	rangeStart  float64
	rangeEnd    float64
	startText   string
	endText     string
	scrubbing   bool
	previewTime float64
}

// NewTrimWizard creates an empty trim session. opts.OnLoad is replaced.
func NewTrimWizard(store SourceStore, opener preview.Opener, opts preview.Options) *TrimWizard {
	w := &TrimWizard{
		store:     store,
		frameRate: timecode.DefaultFrameRate,
	}
	opts.OnLoad = w.loaded
	w.pipeline = preview.NewPipeline(opener, opts)
	return w
}

// loaded applies a resolved load. Callbacks for a source that has since
// been replaced are ignored.
func (w *TrimWizard) loaded(src *preview.Source, meta preview.Metadata, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if src != w.source {
		return
	}
	if err != nil {
		w.duration = 0
		w.rangeStart, w.rangeEnd = 0, 0
		return
	}

	w.duration = meta.Duration
	w.frameRate = meta.FrameRate
	w.width, w.height = meta.Width, meta.Height
	w.rangeStart, w.rangeEnd = 0, meta.Duration
	if meta.Duration > 0 {
		w.startText = timecode.Seconds(0)
		w.endText = timecode.Seconds(meta.Duration)
	} else {
		w.startText = "0"
		w.endText = timecode.Seconds(0)
	}
}

// SelectFile replaces the session's video. The previous source is released
// before the new one is stored. The typed start and end texts are kept
// until the new metadata arrives. The returned channel is closed once the
// load has resolved and its metadata has been applied.
func (w *TrimWizard) SelectFile(name string, r io.Reader) (<-chan struct{}, error) {
	if name == "" {
		return nil, ErrNoFile
	}
	w.selectMu.Lock()
	defer w.selectMu.Unlock()

	w.mu.Lock()
	w.source = nil
	w.duration = 0
	w.scrubbing = false
	w.previewTime = InitialPreviewTime
	w.mu.Unlock()

	if err := w.pipeline.Close(); err != nil {
		logging.Warn("failed to close preview pipeline: %v", err)
	}

	src, err := w.store.Create(name, r)
	if err != nil {
		w.mu.Lock()
		w.file = ""
		w.mu.Unlock()
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}

	w.mu.Lock()
	w.source = src
	w.file = name
	w.frameRate = timecode.DefaultFrameRate
	w.width, w.height = 0, 0
	w.mu.Unlock()

	return w.pipeline.Load(src), nil
}

// SetRange moves the trim handles and scrubs the preview to the handle
// being dragged. Bounds are clamped to the duration and ordered.
func (w *TrimWizard) SetRange(start, end float64, thumb int) (preview.ScrubRequest, error) {
	if thumb != 0 && thumb != 1 {
		return preview.ScrubRequest{}, ErrInvalidThumb
	}
	if math.IsNaN(start) || math.IsNaN(end) {
		return preview.ScrubRequest{}, ErrInvalidRange
	}

	w.mu.Lock()
	if w.duration <= 0 {
		w.mu.Unlock()
		return preview.ScrubRequest{}, preview.ErrNoDuration
	}
	start = clamp(start, w.duration)
	end = clamp(end, w.duration)
	if start > end {
		start, end = end, start
	}
	w.rangeStart, w.rangeEnd = start, end
	w.startText = timecode.Seconds(start)
	w.endText = timecode.Seconds(end)
	w.scrubbing = true
	w.previewTime = start
	if thumb == 1 {
		w.previewTime = end
	}
	t := w.previewTime
	w.mu.Unlock()

	return w.pipeline.Scrub(t)
}

func clamp(v, max float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > max:
		return max
	default:
		return v
	}
}

// EndScrub marks the drag as committed, hiding the preview.
func (w *TrimWizard) EndScrub() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scrubbing = false
}

// SetStartText replaces the typed start bound verbatim.
func (w *TrimWizard) SetStartText(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.startText = s
}

// SetEndText replaces the typed end bound verbatim.
func (w *TrimWizard) SetEndText(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endText = s
}

// Timecode renders t at the loaded source's frame rate.
func (w *TrimWizard) Timecode(t float64) Timecode {
	w.mu.Lock()
	fps := w.frameRate
	w.mu.Unlock()
	return Timecode{
		Seconds: t,
		Clock:   timecode.Clock(t),
		SMPTE:   timecode.SMPTE(t, fps),
		Frames:  timecode.Frames(t, fps),
	}
}

func (w *TrimWizard) commandLocked() string {
	if w.file == "" || w.startText == "" || w.endText == "" {
		return ""
	}
	return command.Trim{Input: w.file, Start: w.startText, End: w.endText}.String()
}

// Command returns the trim command, or "" until a file and both bounds are
// present. The bounds are not validated.
func (w *TrimWizard) Command() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commandLocked()
}

// CanComplete reports whether Complete would succeed.
func (w *TrimWizard) CanComplete() bool {
	return w.Command() != ""
}

// Complete appends the command to sink and closes the session.
func (w *TrimWizard) Complete(sink history.Sink) (string, error) {
	cmd := w.Command()
	if cmd == "" {
		return "", ErrStepIncomplete
	}
	if sink != nil {
		sink.Append(cmd)
	}
	metrics.CommandsGeneratedTotal.WithLabelValues(metrics.KindTrim).Inc()
	logging.Debug("Trim command generated: %s", cmd)
	return cmd, w.Close()
}

// Close releases the source and clears every field. The wizard may be
// reused.
func (w *TrimWizard) Close() error {
	w.selectMu.Lock()
	defer w.selectMu.Unlock()

	w.mu.Lock()
	w.source = nil
	w.file = ""
	w.duration = 0
	w.frameRate = timecode.DefaultFrameRate
	w.width, w.height = 0, 0
	w.rangeStart, w.rangeEnd = 0, 0
	w.startText, w.endText = "", ""
	w.scrubbing = false
	w.previewTime = 0
	w.mu.Unlock()

	// The pipeline is closed without w.mu held: pending seek callbacks
	// re-enter the pipeline and must be able to finish.
	return w.pipeline.Close()
}

// PreviewVisible reports whether the scrub preview should be shown.
func (w *TrimWizard) PreviewVisible() bool {
	_, ok := w.pipeline.Preview()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scrubbing && ok && w.duration > 0
}

// Preview returns the latest published frame.
func (w *TrimWizard) Preview() (preview.Frame, bool) {
	return w.pipeline.Preview()
}

// WaitPreview blocks until the frame for req is published or superseded.
func (w *TrimWizard) WaitPreview(ctx context.Context, req preview.ScrubRequest) (preview.Frame, error) {
	return w.pipeline.Wait(ctx, req.Token)
}

// WaitLoaded blocks until the current load resolves.
func (w *TrimWizard) WaitLoaded(ctx context.Context) (preview.State, error) {
	return w.pipeline.WaitLoaded(ctx)
}

// Source returns the current source, or nil.
func (w *TrimWizard) Source() *preview.Source {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.source
}

// State returns a snapshot of the session.
func (w *TrimWizard) State() TrimState {
	frame, hasFrame := w.pipeline.Preview()
	pstate := w.pipeline.State()
	loadErr := w.pipeline.Err()

	w.mu.Lock()
	defer w.mu.Unlock()
	s := TrimState{
		File:           w.file,
		State:          pstate.String(),
		Duration:       w.duration,
		FrameRate:      w.frameRate,
		Width:          w.width,
		Height:         w.height,
		RangeStart:     w.rangeStart,
		RangeEnd:       w.rangeEnd,
		StartText:      w.startText,
		EndText:        w.endText,
		Scrubbing:      w.scrubbing,
		PreviewTime:    w.previewTime,
		PreviewVisible: w.scrubbing && hasFrame && w.duration > 0,
		SliderEnabled:  w.duration > 0,
		Command:        w.commandLocked(),
	}
	if w.source != nil {
		s.SourceID = w.source.ID
	}
	if hasFrame {
		s.PreviewToken = frame.Token
	}
	if loadErr != nil {
		s.Error = loadErr.Error()
	}
	return s
}
