package preview

import (
	"context"
	"image"
)

// Metadata describes a decoded source.
type Metadata struct {
	Duration  float64 `json:"duration"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate int     `json:"frameRate"`
}

// Decoder seeks within an opened source and exposes the frame at its
// current position. Implementations must be safe for concurrent use.
type Decoder interface {
	Metadata() Metadata
	// Position is the timestamp of the most recently completed seek.
	Position() float64
	// HasFrame reports whether a frame is decoded at Position.
	HasFrame() bool
	// Seek moves to t asynchronously and calls done exactly once when the
	// seek completes or fails. done must not be called while the decoder
	// holds internal locks.
	Seek(t float64, done func(error))
	// Frame returns the frame at Position.
	Frame() (image.Image, error)
	Close() error
}

// Opener prepares a Decoder for a source. Open should honor ctx
// cancellation, which happens when a newer load supersedes this one.
type Opener interface {
	Open(ctx context.Context, src *Source) (Decoder, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, src *Source) (Decoder, error)

// Open calls f(ctx, src).
func (f OpenerFunc) Open(ctx context.Context, src *Source) (Decoder, error) {
	return f(ctx, src)
}
