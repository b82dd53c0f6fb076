package timecode

import (
	"fmt"
	"math"
)

// DefaultFrameRate is assumed when a source does not report a better one.
const DefaultFrameRate = 30

func sanitize(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return seconds
}

func rate(fps int) int {
	if fps <= 0 {
		return DefaultFrameRate
	}
	return fps
}

// Clock formats seconds as M:SS, flooring to whole seconds.
// Minutes are not wrapped into hours.
func Clock(seconds float64) string {
	total := int64(math.Floor(sanitize(seconds)))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Frames returns floor(seconds × fps).
func Frames(seconds float64, fps int) int64 {
	return int64(math.Floor(sanitize(seconds) * float64(rate(fps))))
}

// SMPTE formats seconds as HH:MM:SS:FF at the given frame rate.
func SMPTE(seconds float64, fps int) string {
	r := int64(rate(fps))
	totalFrames := Frames(seconds, fps)

	frames := totalFrames % r
	totalSeconds := totalFrames / r
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	mins := totalMinutes % 60
	hours := totalMinutes / 60

	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, mins, secs, frames)
}

// Seconds formats a trim bound the way the trim fields display it: two
// decimals, no unit.
func Seconds(seconds float64) string {
	return fmt.Sprintf("%.2f", sanitize(seconds))
}
