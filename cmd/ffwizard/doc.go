// Command ffwizard builds ffmpeg convert and trim command lines in a
// terminal. It shares the codec catalog, constraint filter and command
// synthesis with the HTTP server and never runs ffmpeg itself.
//
// Usage:
//
//	ffwizard <command> [flags]
//
// Commands:
//
//	codecs         List codecs. --extension limits the list to codecs the
//	               container accepts.
//
//	extensions     List output containers. --codec limits the list to
//	               containers the codec can be muxed into.
//
//	pixel-formats  List the common pixel formats, or every format with --all.
//
//	convert        Build a transcode command. On a terminal each missing
//	               choice is prompted for in wizard order (file, codec,
//	               container), followed by the optional pixel format and
//	               size. Without a terminal --codec and --extension are
//	               required; --interactive forces the prompts.
//
//	trim           Build a stream-copy trim command from --start, --end and
//	               FILE. Times are passed through as typed.
//
//	timecode       Render SECONDS as clock, SMPTE timecode and frame count
//	               at --fps (default 30).
//
// The finished command is the only thing written to stdout, so
//
//	eval "$(ffwizard convert clip.mov -c h264 -e mp4)"
//
// runs it. Prompts, tables shown during prompting and logs go to stderr.
package main
