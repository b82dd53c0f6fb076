package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/metrics"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/preview"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/timecode"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/workers"

	"github.com/disintegration/imaging"
)

var (
	// ErrClosed is returned for seeks on a closed decoder.
	ErrClosed = errors.New("decoder closed")
	// ErrNoFrame is returned by Frame before any seek has completed.
	ErrNoFrame = errors.New("no frame decoded")
)

// MaxProcesses caps concurrent frame extractions across all decoders.
const MaxProcesses = 8

// MemoryGate blocks frame extraction while the process is under memory
// pressure. It returns false when ctx ends first.
type MemoryGate interface {
	WaitIfPaused(ctx context.Context) bool
}

// Tool runs ffmpeg and ffprobe and tracks the decoders it opened.
type Tool struct {
	ffmpegPath  string
	ffprobePath string
	procs       *workers.Limiter
	gate        MemoryGate

	mu       sync.Mutex
	decoders map[*Decoder]struct{}
}

// New creates a Tool. Empty paths default to the binaries on PATH.
func New(ffmpegPath, ffprobePath string) *Tool {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Tool{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		procs:       workers.NewLimiter(workers.ForCPU(MaxProcesses)),
		decoders:    make(map[*Decoder]struct{}),
	}
}

// SetMemoryGate makes every extraction wait on g before starting ffmpeg.
// Call it before the first Open.
func (t *Tool) SetMemoryGate(g MemoryGate) {
	t.gate = g
}

// Available reports whether both binaries can be found.
func (t *Tool) Available() error {
	for _, bin := range []string{t.ffmpegPath, t.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found: %w", bin, err)
		}
	}
	return nil
}

// Open probes src and returns a Decoder for it. It implements preview.Opener.
func (t *Tool) Open(ctx context.Context, src *preview.Source) (preview.Decoder, error) {
	probe, err := t.Probe(ctx, src.Path)
	if err != nil {
		return nil, err
	}
	video, ok := probe.VideoStream()
	if !ok {
		return nil, fmt.Errorf("%s: %w", src.Name, ErrNoVideoStream)
	}

	fps := probe.FrameRate()
	if fps <= 0 {
		fps = timecode.DefaultFrameRate
	}

	dctx, cancel := context.WithCancel(context.Background())
	d := &Decoder{
		tool: t,
		path: src.Path,
		meta: preview.Metadata{
			Duration:  probe.Duration(),
			Width:     video.Width,
			Height:    video.Height,
			FrameRate: fps,
		},
		ctx:    dctx,
		cancel: cancel,
	}

	t.mu.Lock()
	t.decoders[d] = struct{}{}
	t.mu.Unlock()

	logging.Debug("Opened %s: codec=%s %dx%d duration=%.3fs fps=%d",
		src.Name, video.CodecName, video.Width, video.Height, d.meta.Duration, fps)
	return d, nil
}

// Cleanup closes every open decoder, killing running ffmpeg processes.
func (t *Tool) Cleanup() {
	t.mu.Lock()
	open := make([]*Decoder, 0, len(t.decoders))
	for d := range t.decoders {
		open = append(open, d)
	}
	t.mu.Unlock()

	for _, d := range open {
		logging.Info("Killing frame extraction for: %s", d.path)
		if err := d.Close(); err != nil {
			logging.Warn("failed to close decoder for %s: %v", d.path, err)
		}
	}
}

func (t *Tool) forget(d *Decoder) {
	t.mu.Lock()
	delete(t.decoders, d)
	t.mu.Unlock()
}

// Decoder extracts single frames from one file. Each Seek runs its own
// ffmpeg process; only the most recent seek updates the decoded position.
type Decoder struct {
	tool *Tool
	path string
	meta preview.Metadata

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pos     float64
	frame   image.Image
	seekGen uint64
	closed  bool
}

// Metadata implements preview.Decoder.
func (d *Decoder) Metadata() preview.Metadata {
	return d.meta
}

// Position implements preview.Decoder.
func (d *Decoder) Position() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos
}

// HasFrame implements preview.Decoder.
func (d *Decoder) HasFrame() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame != nil
}

// Frame implements preview.Decoder.
func (d *Decoder) Frame() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.frame == nil {
		return nil, ErrNoFrame
	}
	return d.frame, nil
}

// Seek implements preview.Decoder.
func (d *Decoder) Seek(t float64, done func(error)) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		done(ErrClosed)
		return
	}
	d.seekGen++
	gen := d.seekGen
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()

		img, err := d.extract(t)

		d.mu.Lock()
		switch {
		case err != nil:
			metrics.DecoderSeeksTotal.WithLabelValues("error").Inc()
		case gen != d.seekGen:
			metrics.DecoderSeeksTotal.WithLabelValues("superseded").Inc()
		default:
			d.pos = t
			d.frame = img
			metrics.DecoderSeeksTotal.WithLabelValues("success").Inc()
		}
		d.mu.Unlock()

		done(err)
	}()
}

func (d *Decoder) extract(t float64) (image.Image, error) {
	if gate := d.tool.gate; gate != nil && !gate.WaitIfPaused(d.ctx) {
		return nil, ErrClosed
	}
	release, err := d.tool.procs.Acquire(d.ctx)
	if err != nil {
		return nil, ErrClosed
	}
	defer release()

	start := time.Now()
	metrics.DecoderProcessesActive.Inc()
	defer metrics.DecoderProcessesActive.Dec()

	cmd := exec.CommandContext(d.ctx, d.tool.ffmpegPath,
		"-v", "error",
		"-ss", strconv.FormatFloat(t, 'f', 3, 64),
		"-i", d.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if d.ctx.Err() != nil {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	metrics.DecoderSeekDuration.Observe(time.Since(start).Seconds())

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame at %.3fs for %s", t, d.path)
	}

	img, err := imaging.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// Close kills running extractions and waits for their callbacks to finish.
// It must not be called from inside a Seek callback.
func (d *Decoder) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.tool.forget(d)
	return nil
}
