// Package timecode formats positions in a video for display: wall-clock
// M:SS, SMPTE-style HH:MM:SS:FF and a frame count at an assumed frame rate.
//
// All functions are total. Negative, NaN and infinite inputs are treated as
// zero, and a non-positive frame rate falls back to [DefaultFrameRate].
package timecode
