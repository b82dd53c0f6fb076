package command

import (
	"fmt"
	"strings"
)

const (
	// Tool is the program every rendered command invokes.
	Tool = "ffmpeg"

	// TrimPrefix is prepended to the input name to form a trim output name.
	TrimPrefix = "trim_"
)

// Convert holds the inputs of a convert command.
type Convert struct {
	Input       string
	Encoder     string
	PixelFormat string
	Width       int
	Height      int
	Extension   string
}

// Output returns the derived output file name.
func (c Convert) Output() string {
	return OutputName(c.Input, c.Extension)
}

// String renders the command. The size flag is only emitted when both
// dimensions are set.
func (c Convert) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s -i %s -c:v %s", Tool, quote(c.Input), c.Encoder)
	if c.PixelFormat != "" {
		fmt.Fprintf(&b, " -pix_fmt %s", c.PixelFormat)
	}
	if c.Width > 0 && c.Height > 0 {
		fmt.Fprintf(&b, " -s %dx%d", c.Width, c.Height)
	}
	fmt.Fprintf(&b, " -c:a copy %s", quote(c.Output()))
	return b.String()
}

// Trim holds the inputs of a trim command. Start and End are free-form time
// strings ("1.50", "00:00:01.5", ...) passed through after trimming
// surrounding whitespace.
type Trim struct {
	Input string
	Start string
	End   string
}

// Output returns the derived output file name.
func (t Trim) Output() string {
	return TrimPrefix + t.Input
}

// String renders the command.
func (t Trim) String() string {
	return fmt.Sprintf("%s -i %s -ss %s -to %s -c copy %s",
		Tool, quote(t.Input), strings.TrimSpace(t.Start), strings.TrimSpace(t.End), quote(t.Output()))
}

// OutputName replaces the final extension of input's base name with ext.
// Directory components (either separator) are dropped. A name whose only
// dot is its first character, or that has no dot, keeps its full base name
// as the stem.
func OutputName(input, ext string) string {
	base := input
	if i := strings.LastIndexAny(input, `/\`); i >= 0 {
		base = input[i+1:]
	}
	if base == "" {
		base = input
	}

	stem := base
	if dot := strings.LastIndex(base, "."); dot > 0 {
		stem = base[:dot]
	}
	return stem + "." + ext
}

// DisplayName picks the name a wizard shows for a picked file: the full path
// when the picker exposes one, then a relative path, then the bare name.
func DisplayName(path, relativePath, name string) string {
	switch {
	case path != "":
		return path
	case relativePath != "":
		return relativePath
	default:
		return name
	}
}

// quote wraps a name in double quotes verbatim. Names are not escaped so a
// Windows path keeps its single backslashes.
func quote(s string) string {
	return `"` + s + `"`
}
