package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/catalog"

	"github.com/spf13/cobra"
)

func newCodecsCommand(ctx *cliContext) *cobra.Command {
	var extension string

	cmd := &cobra.Command{
		Use:   "codecs",
		Short: "List codecs, optionally only those a container accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ext := normalizeExtension(extension)
			codecs := ctx.filter.LegalCodecs(ext)
			if len(codecs) == 0 {
				return fmt.Errorf("no codec can be muxed into %q", ext)
			}
			fmt.Fprintln(cmd.OutOrStdout(), codecTable(codecs))
			return nil
		},
	}
	cmd.Flags().StringVarP(&extension, "extension", "e", "", "Only list codecs this container accepts")
	return cmd
}

func codecTable(codecs []catalog.Codec) string {
	rows := make([][]string, 0, len(codecs))
	for _, c := range codecs {
		rows = append(rows, []string{c.ID, c.Label, c.Encoder, strings.Join(c.Extensions, ", ")})
	}
	return renderTable([]string{"ID", "Codec", "Encoder", "Containers"}, rows)
}

func newExtensionsCommand(ctx *cliContext) *cobra.Command {
	var codec string

	cmd := &cobra.Command{
		Use:   "extensions",
		Short: "List output containers, optionally only those a codec supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if codec != "" {
				if _, ok := ctx.filter.Table().Codec(codec); !ok {
					return fmt.Errorf("unknown codec %q (see ffwizard codecs)", codec)
				}
			}
			exts := ctx.filter.LegalExtensions(codec)
			rows := make([][]string, 0, len(exts))
			for _, ext := range exts {
				rows = append(rows, []string{ext, strconv.Itoa(len(ctx.filter.LegalCodecs(ext)))})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Extension", "Codecs"}, rows, 1))
			return nil
		},
	}
	cmd.Flags().StringVarP(&codec, "codec", "c", "", "Only list containers this codec supports")
	return cmd
}

func newPixelFormatsCommand(ctx *cliContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "pixel-formats",
		Short: "List output pixel formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := ctx.filter.Table().VisiblePixelFormats(all, "")
			rows := make([][]string, 0, len(formats))
			for _, pf := range formats {
				common := ""
				if pf.Common {
					common = "yes"
				}
				rows = append(rows, []string{pf.ID, pf.Label, common})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Format", "Common"}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include uncommon formats")
	return cmd
}

// normalizeExtension accepts "mp4", ".mp4" and "MP4" alike.
func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
