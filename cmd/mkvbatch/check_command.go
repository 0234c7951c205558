package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mkvbatch/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var folders folderOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check mkvtoolnix binaries and folder access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			report := preflight.RunAll(cfg, folders.preflightFolders())
			lines := renderSectionHeader("Binaries", colorize)
			for _, status := range report.Binaries {
				kind := statusOK
				detail := status.Path
				switch {
				case !status.Available && status.Optional:
					kind = statusWarn
					detail = status.Detail + "; " + status.Description
				case !status.Available:
					kind = statusError
					detail = status.Detail
				}
				lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, result := range report.Directories {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderStatusLine("Config", statusInfo, configLabel(ctx.configPath), colorize))
			lines = append(lines, renderStatusLine("Metadata edits", statusInfo, yesNo(report.MetadataEditAvailable()), colorize))
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if !report.Ready() {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
	folders.register(cmd)
	return cmd
}

func configLabel(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
