package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var folders folderOptions
	var settings settingFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Preview how videos, subtitles, and chapters pair up",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := settings.apply(cmd, cfg); err != nil {
				return err
			}
			q, sel, err := buildQueue(cfg, &folders, settings.subtitleOverrides)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			state := q.State()
			if state.Empty {
				fmt.Fprintln(out, "No video files found")
				return nil
			}
			fmt.Fprintln(out, renderJobTable(state, false))
			if summary := attachmentSummary(sel.attachments); summary != "" {
				fmt.Fprintln(out, summary)
			}
			warnings := append(unpairedWarnings(sel), collisionWarnings(sel, cfg.Paths.DestinationDir)...)
			for _, warning := range warnings {
				fmt.Fprintln(out, "Warning: "+warning)
			}
			fmt.Fprintf(out, "%d job(s) would be written to %s\n", state.JobCount, cfg.Paths.DestinationDir)
			return nil
		},
	}
	folders.register(cmd)
	settings.register(cmd)
	return cmd
}
