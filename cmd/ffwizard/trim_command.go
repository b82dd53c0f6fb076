package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/command"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/filesystem"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newTrimCommand() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "trim --start TIME --end TIME FILE",
		Short: "Build a stream-copy trim command",
		Long: "Build a stream-copy trim command. TIME is passed to ffmpeg as typed,\n" +
			"so seconds (\"1.50\") and clock forms (\"00:01:02.5\") both work.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
				return errors.New("--start and --end are required")
			}
			logging.Debug("Input: %s", describeInput(args[0]))

			fmt.Fprintln(cmd.OutOrStdout(), command.Trim{Input: args[0], Start: start, End: end}.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&start, "start", "s", "", "Start time")
	cmd.Flags().StringVarP(&end, "end", "e", "", "End time")
	return cmd
}

// describeInput names a file with its size when it exists locally. The
// command is still built for files that are not present.
func describeInput(name string) string {
	info, err := filesystem.StatWithRetry(name, filesystem.DefaultRetryConfig())
	switch {
	case err != nil:
		return fmt.Sprintf("%s (not found locally)", name)
	case info.IsDir():
		return fmt.Sprintf("%s (directory)", name)
	default:
		return fmt.Sprintf("%s (%s)", name, humanize.Bytes(uint64(info.Size())))
	}
}
