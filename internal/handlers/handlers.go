package handlers

import (
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/constraint"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/history"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/startup"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/streaming"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/wizard"
)

// ToolChecker reports whether the external decoder tools can be run.
type ToolChecker interface {
	Available() error
}

type Handlers struct {
	sessions  *wizard.Sessions
	filter    *constraint.Filter
	history   *history.Store
	tool      ToolChecker
	maxUpload int64
	stream    streaming.TimeoutWriterConfig
	startTime time.Time
}

func New(sessions *wizard.Sessions, filter *constraint.Filter, hist *history.Store, tool ToolChecker, config *startup.Config) *Handlers {
	return &Handlers{
		sessions:  sessions,
		filter:    filter,
		history:   hist,
		tool:      tool,
		maxUpload: config.MaxUploadSize,
		stream:    streaming.DefaultTimeoutWriterConfig(),
		startTime: time.Now(),
	}
}
