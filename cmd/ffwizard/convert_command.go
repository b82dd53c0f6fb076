package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/command"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/wizard"

	"github.com/spf13/cobra"
)

// errAborted is returned when input ends before the wizard is complete.
var errAborted = errors.New("convert aborted: input closed before the last step")

type convertOptions struct {
	file        string
	codec       string
	extension   string
	pixelFormat string
	width       int
	height      int
	interactive bool
}

func newConvertCommand(ctx *cliContext) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert [FILE]",
		Short: "Build a transcode command",
		Long: "Build a transcode command. On a terminal, missing choices are prompted\n" +
			"for step by step; otherwise --codec and --extension are required.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.file = args[0]
			}
			cw := wizard.NewConvertWizard(ctx.filter)

			var (
				line string
				err  error
			)
			if opts.interactive || ctx.isTerminal(cmd) {
				p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
				line, err = runConvertInteractive(cmd, cw, p, opts)
			} else {
				line, err = runConvertFlags(cw, opts)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.codec, "codec", "c", "", "Video codec id (see ffwizard codecs)")
	cmd.Flags().StringVarP(&opts.extension, "extension", "e", "", "Output container extension")
	cmd.Flags().StringVarP(&opts.pixelFormat, "pixel-format", "p", "", "Output pixel format")
	cmd.Flags().IntVar(&opts.width, "width", 0, "Output width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Output height in pixels")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Prompt for missing choices even when input is not a terminal")
	return cmd
}

// runConvertFlags applies every choice at once. A codec and container that
// cannot be combined is an error rather than a silently cleared choice.
func runConvertFlags(cw *wizard.ConvertWizard, opts convertOptions) (string, error) {
	if opts.file == "" {
		return "", errors.New("an input FILE is required")
	}
	if opts.codec == "" || opts.extension == "" {
		return "", errors.New("--codec and --extension are required when not running interactively")
	}
	ext := normalizeExtension(opts.extension)

	if err := cw.SelectFile(opts.file); err != nil {
		return "", err
	}
	if err := cw.SelectCodec(opts.codec); err != nil {
		return "", fmt.Errorf("%w %q (see ffwizard codecs)", err, opts.codec)
	}
	if err := cw.SelectExtension(ext); err != nil {
		return "", fmt.Errorf("%w %q (see ffwizard extensions)", err, ext)
	}
	if state := cw.State(); state.Extension != ext {
		return "", fmt.Errorf("codec %s cannot be muxed into .%s; choose one of: %s",
			opts.codec, ext, strings.Join(state.LegalExtensions, ", "))
	}
	if err := applyConvertExtras(cw, opts); err != nil {
		return "", err
	}

	line := cw.Command()
	logging.Debug("Convert command built from flags: %s", line)
	return line, nil
}

func applyConvertExtras(cw *wizard.ConvertWizard, opts convertOptions) error {
	if opts.pixelFormat != "" {
		if err := cw.SelectPixelFormat(opts.pixelFormat); err != nil {
			return fmt.Errorf("%w %q (see ffwizard pixel-formats --all)", err, opts.pixelFormat)
		}
	}
	return cw.SetDimensions(opts.width, opts.height)
}

// runConvertInteractive walks the three wizard steps, prompting only for
// choices the flags left open, then offers the optional settings.
func runConvertInteractive(cmd *cobra.Command, cw *wizard.ConvertWizard, p *prompter, opts convertOptions) (string, error) {
	ctx := cmd.Context()

	// Step 1: file
	name := opts.file
	for name == "" {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		answer, err := p.ask("Input file: ")
		if err != nil {
			return "", err
		}
		name = command.DisplayName("", "", answer)
	}
	if err := cw.SelectFile(name); err != nil {
		return "", err
	}
	p.note(describeInput(name))
	if err := cw.Next(); err != nil {
		return "", err
	}

	// Step 2: codec
	if opts.codec != "" {
		if err := cw.SelectCodec(opts.codec); err != nil {
			return "", fmt.Errorf("%w %q", err, opts.codec)
		}
	}
	for !cw.CanProceed() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		state := cw.State()
		choices := make([]string, 0, len(state.LegalCodecs))
		for _, c := range state.LegalCodecs {
			choices = append(choices, c.ID)
		}
		p.note(codecTable(state.LegalCodecs))
		id, err := p.choose("Codec", choices)
		if err != nil {
			return "", err
		}
		if err := cw.SelectCodec(id); err != nil {
			p.note(err.Error())
		}
	}
	if err := cw.Next(); err != nil {
		return "", err
	}

	// Step 3: container. A flag value the codec cannot produce is cleared by
	// reconciliation and asked for again.
	if opts.extension != "" {
		if err := cw.SelectExtension(normalizeExtension(opts.extension)); err != nil {
			return "", fmt.Errorf("%w %q", err, opts.extension)
		}
	}
	for !cw.CanProceed() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		legal := cw.State().LegalExtensions
		ext, err := p.choose("Container", legal)
		if err != nil {
			return "", err
		}
		if err := cw.SelectExtension(normalizeExtension(ext)); err != nil {
			p.note(err.Error())
		}
	}

	if err := applyConvertExtras(cw, opts); err != nil {
		return "", err
	}
	if opts.pixelFormat == "" {
		if err := promptPixelFormat(cw, p); err != nil {
			return "", err
		}
	}
	if opts.width == 0 && opts.height == 0 {
		if err := promptSize(cw, p); err != nil {
			return "", err
		}
	}

	return cw.Complete(nil)
}

func promptPixelFormat(cw *wizard.ConvertWizard, p *prompter) error {
	for {
		state := cw.State()
		ids := make([]string, 0, len(state.PixelFormats))
		for _, pf := range state.PixelFormats {
			ids = append(ids, pf.ID)
		}
		hint := "Enter to keep the source format"
		if !state.ShowAllFormats {
			hint += ", \"all\" for every format"
		}
		p.note(fmt.Sprintf("Pixel formats: %s", strings.Join(ids, ", ")))
		answer, err := p.ask(fmt.Sprintf("Pixel format (%s): ", hint))
		if err != nil {
			return err
		}
		switch {
		case answer == "":
			return nil
		case answer == "all" && !state.ShowAllFormats:
			cw.ShowAllPixelFormats()
		default:
			if err := cw.SelectPixelFormat(answer); err != nil {
				p.note(fmt.Sprintf("%v %q", err, answer))
				continue
			}
			return nil
		}
	}
}

func promptSize(cw *wizard.ConvertWizard, p *prompter) error {
	for {
		answer, err := p.ask("Output size WIDTHxHEIGHT (Enter to keep the source size): ")
		if err != nil {
			return err
		}
		if answer == "" {
			return nil
		}
		w, h, err := parseSize(answer)
		if err == nil {
			err = cw.SetDimensions(w, h)
		}
		if err != nil {
			p.note(err.Error())
			continue
		}
		return nil
	}
}

// parseSize reads "1280x720" (an upper-case X is accepted).
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q", ws)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q", hs)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, wizard.ErrInvalidDimension
	}
	return w, h, nil
}

// prompter reads answers line by line. Prompts and notes go to out so the
// finished command alone reaches stdout.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) note(s string) {
	if s != "" {
		fmt.Fprintln(p.out, s)
	}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
		return "", errAborted
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// choose accepts either a listed value or its 1-based position.
func (p *prompter) choose(label string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("no %s is available for the current selection", strings.ToLower(label))
	}
	for {
		for i, c := range choices {
			fmt.Fprintf(p.out, "  %d) %s\n", i+1, c)
		}
		answer, err := p.ask(label + ": ")
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(choices) {
			return choices[n-1], nil
		}
		for _, c := range choices {
			if strings.EqualFold(answer, c) {
				return c, nil
			}
		}
		p.note(fmt.Sprintf("%q is not one of the listed choices", sanitizeAnswer(answer)))
	}
}

// sanitizeAnswer keeps echoed input printable.
func sanitizeAnswer(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
