package wizard

import (
	"errors"
	"sync"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/catalog"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/command"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/constraint"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/history"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
)

var (
	ErrNoFile             = errors.New("no file selected")
	ErrUnknownCodec       = errors.New("unknown codec")
	ErrUnknownExtension   = errors.New("unknown extension")
	ErrUnknownPixelFormat = errors.New("unknown pixel format")
	ErrInvalidDimension   = errors.New("dimensions must be positive")
	ErrStepIncomplete     = errors.New("current step is incomplete")
	ErrLastStep           = errors.New("already on the last step")
)

// Step is a position in the convert flow.
type Step int

const (
	StepFile Step = iota
	StepCodec
	StepExtension
)

var stepNames = [...]string{"file", "codec", "extension"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// ConvertState is a point-in-time view of a convert session.
type ConvertState struct {
	Step            int                   `json:"step"`
	StepName        string                `json:"stepName"`
	IsLastStep      bool                  `json:"isLastStep"`
	CanProceed      bool                  `json:"canProceed"`
	File            string                `json:"file"`
	Codec           string                `json:"codec"`
	Extension       string                `json:"extension"`
	PixelFormat     string                `json:"pixelFormat"`
	Width           int                   `json:"width,omitempty"`
	Height          int                   `json:"height,omitempty"`
	ShowAllFormats  bool                  `json:"showAllPixelFormats"`
	LegalCodecs     []catalog.Codec       `json:"legalCodecs"`
	LegalExtensions []string              `json:"legalExtensions"`
	PixelFormats    []catalog.PixelFormat `json:"pixelFormats"`
	Command         string                `json:"command"`
}

// ConvertWizard walks a user through file, codec and container selection.
// Every codec or extension change is reconciled so the pair stays legal.
type ConvertWizard struct {
	filter *constraint.Filter

	mu      sync.Mutex
	step    Step
	file    string
	codec   string
	ext     string
	pixFmt  string
	width   int
	height  int
	showAll bool
}

// NewConvertWizard creates a wizard on the first step.
func NewConvertWizard(filter *constraint.Filter) *ConvertWizard {
	return &ConvertWizard{filter: filter}
}

// SelectFile sets the input display name.
func (w *ConvertWizard) SelectFile(name string) error {
	if name == "" {
		return ErrNoFile
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.file = name
	return nil
}

// SelectCodec sets the codec; an empty id clears it.
func (w *ConvertWizard) SelectCodec(id string) error {
	if id != "" {
		if _, ok := w.filter.Table().Codec(id); !ok {
			return ErrUnknownCodec
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.codec, w.ext = w.filter.Reconcile(id, w.ext)
	return nil
}

// SelectExtension sets the output container; an empty value clears it.
// An extension the current codec cannot produce is cleared by reconciliation.
func (w *ConvertWizard) SelectExtension(ext string) error {
	if ext != "" && len(w.filter.LegalCodecs(ext)) == 0 {
		return ErrUnknownExtension
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.codec, w.ext = w.filter.Reconcile(w.codec, ext)
	return nil
}

// SelectPixelFormat sets the pixel format; an empty id clears it.
func (w *ConvertWizard) SelectPixelFormat(id string) error {
	if id != "" {
		if _, ok := w.filter.Table().PixelFormat(id); !ok {
			return ErrUnknownPixelFormat
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pixFmt = id
	return nil
}

// ShowAllPixelFormats expands the picker from the common subset to the
// full catalog. It cannot be collapsed again until Reset.
func (w *ConvertWizard) ShowAllPixelFormats() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.showAll = true
}

// SetDimensions sets the output size. Zero leaves a dimension unset; the
// size flag is only emitted when both are set.
func (w *ConvertWizard) SetDimensions(width, height int) error {
	if width < 0 || height < 0 {
		return ErrInvalidDimension
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
	return nil
}

func (w *ConvertWizard) canProceedLocked() bool {
	switch w.step {
	case StepFile:
		return w.file != ""
	case StepCodec:
		return w.codec != ""
	case StepExtension:
		return w.ext != ""
	}
	return false
}

// CanProceed reports whether the current step's requirement is met.
func (w *ConvertWizard) CanProceed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canProceedLocked()
}

// Next advances one step.
func (w *ConvertWizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepExtension {
		return ErrLastStep
	}
	if !w.canProceedLocked() {
		return ErrStepIncomplete
	}
	w.step++
	return nil
}

// Back returns to the previous step. It is a no-op on the first step.
func (w *ConvertWizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step > StepFile {
		w.step--
	}
}

func (w *ConvertWizard) commandLocked() string {
	if w.file == "" || w.ext == "" {
		return ""
	}
	codec, ok := w.filter.Table().Codec(w.codec)
	if !ok {
		return ""
	}
	return command.Convert{
		Input:       w.file,
		Encoder:     codec.Encoder,
		PixelFormat: w.pixFmt,
		Width:       w.width,
		Height:      w.height,
		Extension:   w.ext,
	}.String()
}

// Command returns the command for the current selection, or "" when the
// selection is incomplete.
func (w *ConvertWizard) Command() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commandLocked()
}

// Complete finishes the flow from the last step: the command is appended
// to sink and the wizard is reset.
func (w *ConvertWizard) Complete(sink history.Sink) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepExtension || !w.canProceedLocked() {
		return "", ErrStepIncomplete
	}
	cmd := w.commandLocked()
	if cmd == "" {
		return "", ErrStepIncomplete
	}
	if sink != nil {
		sink.Append(cmd)
	}
	metrics.CommandsGeneratedTotal.WithLabelValues(metrics.KindConvert).Inc()
	logging.Debug("Convert command generated: %s", cmd)
	w.resetLocked()
	return cmd, nil
}

func (w *ConvertWizard) resetLocked() {
	w.step = StepFile
	w.file, w.codec, w.ext, w.pixFmt = "", "", "", ""
	w.width, w.height = 0, 0
	w.showAll = false
}

// Reset clears every selection and returns to the first step.
func (w *ConvertWizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
}

// Close implements the session interface; it resets the wizard.
func (w *ConvertWizard) Close() error {
	w.Reset()
	return nil
}

// State returns a snapshot including the choices legal for the current
// selection.
func (w *ConvertWizard) State() ConvertState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ConvertState{
		Step:            int(w.step),
		StepName:        w.step.String(),
		IsLastStep:      w.step == StepExtension,
		CanProceed:      w.canProceedLocked(),
		File:            w.file,
		Codec:           w.codec,
		Extension:       w.ext,
		PixelFormat:     w.pixFmt,
		Width:           w.width,
		Height:          w.height,
		ShowAllFormats:  w.showAll,
		LegalCodecs:     w.filter.LegalCodecs(w.ext),
		LegalExtensions: w.filter.LegalExtensions(w.codec),
		PixelFormats:    w.filter.Table().VisiblePixelFormats(w.showAll, w.pixFmt),
		Command:         w.commandLocked(),
	}
}
