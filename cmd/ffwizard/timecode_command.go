package main

import (
	"fmt"
	"strconv"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/timecode"

	"github.com/spf13/cobra"
)

func newTimecodeCommand() *cobra.Command {
	var fps int

	cmd := &cobra.Command{
		Use:   "timecode SECONDS",
		Short: "Show a position as clock, SMPTE timecode and frame count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid SECONDS %q: %w", args[0], err)
			}
			rows := [][]string{
				{"Clock", timecode.Clock(seconds)},
				{"SMPTE", timecode.SMPTE(seconds, fps)},
				{"Frames", strconv.FormatInt(timecode.Frames(seconds, fps), 10)},
				{"Trim field", timecode.Seconds(seconds)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Format", "Value"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&fps, "fps", timecode.DefaultFrameRate, "Frame rate; non-positive values use the default")
	return cmd
}
