package main

import (
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string
	var verboseFlag bool

	ctx := newCommandContext(&configFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:   "mkvbatch",
		Short: "Batch mux videos with subtitles and chapters",
		Long: `mkvbatch pairs every video in a folder with the subtitle and chapter file
at the same sorted position and writes one Matroska file per video using
mkvmerge, or edits existing Matroska files in place with mkvpropedit.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Also write logs to stderr")

	rootCmd.AddCommand(
		newMuxCommand(ctx),
		newListCommand(ctx),
		newCheckCommand(ctx),
		newHistoryCommand(ctx),
		newConfigCommand(ctx),
	)
	return rootCmd
}
