// Package preview drives scrub-time thumbnail previews for the trim wizard.
//
// A [Pipeline] owns at most one [Source] at a time. Loading a new source
// releases the previous one, and a failed load returns the pipeline to
// idle. Scrub requests are tagged with monotonically increasing tokens;
// when a seek completes, its frame is published only if no newer request
// has been issued, so the visible preview always reflects the latest
// scrub target even when seeks complete out of order.
//
// Frames are center-cropped to 16:9 and rendered as 320×180 JPEG images
// by [Capture]. Decoding is delegated to an [Opener]; the ffmpeg package
// provides the production implementation.
package preview
