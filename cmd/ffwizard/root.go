package main

import (
	"os"

	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/catalog"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/constraint"
	"github.com/cha84rakanal/ffmpeg-easy-wizard/internal/logging"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// cliContext carries what every subcommand shares.
type cliContext struct {
	filter *constraint.Filter
	// isTerminal reports whether the command's input is an interactive
	// terminal. Replaced in tests.
	isTerminal func(cmd *cobra.Command) bool
}

func newCLIContext() *cliContext {
	return &cliContext{
		filter:     constraint.New(catalog.Default()),
		isTerminal: stdinIsTerminal,
	}
}

func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(newCLIContext())
}

func newRootCommandWith(ctx *cliContext) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "ffwizard",
		Short:         "Build ffmpeg convert and trim commands",
		Long:          "ffwizard builds ffmpeg command lines from codec, container and trim choices.\nIt prints commands and never runs ffmpeg itself.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logging.Configure(logging.Config{Level: level, Output: cmd.ErrOrStderr()})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log wizard decisions to stderr")

	rootCmd.AddCommand(newCodecsCommand(ctx))
	rootCmd.AddCommand(newExtensionsCommand(ctx))
	rootCmd.AddCommand(newPixelFormatsCommand(ctx))
	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newTrimCommand())
	rootCmd.AddCommand(newTimecodeCommand())

	return rootCmd
}
