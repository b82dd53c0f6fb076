// Package ffmpeg decodes preview frames with the ffmpeg and ffprobe
// command-line tools.
//
// It provides:
//   - Typed parsing of ffprobe JSON output (duration, dimensions, codec, frame rate)
//   - A preview.Opener that probes an uploaded source and returns a Decoder
//   - Single-frame extraction at arbitrary timestamps, one process per seek
//   - Process tracking so every running extraction is killed on Close or Cleanup
//   - A shared limit on concurrent extractions (MaxProcesses, FFMPEG_WORKERS)
//
// Both tools must be installed and available in the system PATH, or their
// locations configured with FFMPEG_PATH and FFPROBE_PATH.
package ffmpeg
