// Package command renders wizard selections into ffmpeg command lines.
//
// Rendering is pure templating. Compatibility between the encoder, pixel
// format and dimensions is checked upstream by the constraint filter; this
// package never validates it and never executes anything.
//
// Convert flow:
//
//	ffmpeg -i "<input>" -c:v <encoder>[ -pix_fmt <fmt>][ -s <W>x<H>] -c:a copy "<output>"
//
// Trim flow:
//
//	ffmpeg -i "<input>" -ss <start> -to <end> -c copy "trim_<input>"
package command
