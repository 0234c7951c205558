package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/language"
	"mkvbatch/internal/queue"
)

// settingFlags override config values for a single invocation.
type settingFlags struct {
	destination        string
	strategy           string
	abortOnErrors      bool
	discardAttachments bool
	subtitleLanguage   string
	subtitleTrackName  string
	subtitleDelay      float64
	subtitleDefault    bool
	subtitleForced     bool
	defaultAudio       string
	defaultSubtitle    string
	subtitleOverrides  []string
}

func (f *settingFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.destination, "destination", "d", "", "Output folder (overrides paths.destination_dir)")
	flags.StringVar(&f.strategy, "strategy", "", "Strategy for edit-eligible jobs: ask, remux, or edit")
	flags.BoolVar(&f.abortOnErrors, "abort-on-errors", false, "Pause the run after the first failed job")
	flags.BoolVar(&f.discardAttachments, "discard-attachments", false, "Drop attachments already in the source")
	flags.StringVar(&f.subtitleLanguage, "subtitle-language", "", "Language of paired subtitles")
	flags.StringVar(&f.subtitleTrackName, "subtitle-track-name", "", "Track name of paired subtitles")
	flags.Float64Var(&f.subtitleDelay, "subtitle-delay", 0, "Subtitle delay in seconds (may be negative)")
	flags.BoolVar(&f.subtitleDefault, "subtitle-default", false, "Mark paired subtitles as the default track")
	flags.BoolVar(&f.subtitleForced, "subtitle-forced", false, "Mark paired subtitles as forced")
	flags.StringVar(&f.defaultAudio, "default-audio", "", "Make the source audio track in this language the default")
	flags.StringVar(&f.defaultSubtitle, "default-subtitle", "", "Make the source subtitle track in this language the default")
	flags.StringArrayVar(&f.subtitleOverrides, "subtitle-option", nil,
		"Per-job subtitle options as JOB:key=value,... (keys: language, name, delay, default, forced)")
}

// apply copies every flag the user set onto cfg and re-validates it.
func (f *settingFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	if changed("destination") {
		cfg.Paths.DestinationDir = f.destination
	}
	if changed("strategy") {
		cfg.Mux.Strategy = f.strategy
	}
	if changed("abort-on-errors") {
		cfg.Mux.AbortOnErrors = f.abortOnErrors
	}
	if changed("discard-attachments") {
		cfg.Attachments.DiscardExisting = f.discardAttachments
	}
	if changed("subtitle-language") {
		cfg.Subtitles.Language = f.subtitleLanguage
	}
	if changed("subtitle-track-name") {
		cfg.Subtitles.TrackName = f.subtitleTrackName
	}
	if changed("subtitle-delay") {
		cfg.Subtitles.DelaySeconds = f.subtitleDelay
	}
	if changed("subtitle-default") {
		cfg.Subtitles.SetDefault = f.subtitleDefault
	}
	if changed("subtitle-forced") {
		cfg.Subtitles.SetForced = f.subtitleForced
	}
	if changed("default-audio") {
		cfg.Edits.DefaultAudioLanguage = f.defaultAudio
	}
	if changed("default-subtitle") {
		cfg.Edits.DefaultSubtitleLanguage = f.defaultSubtitle
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.EnsureDirectories()
}

// parseSubtitleOverride parses "JOB:key=value,..." where JOB is the 1-based
// row number shown in the job table. Unset keys keep base values.
func parseSubtitleOverride(raw string, base queue.TrackOptions) (int, queue.TrackOptions, error) {
	jobPart, settings, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return 0, base, fmt.Errorf("subtitle option %q: expected JOB:key=value", raw)
	}
	number, err := strconv.Atoi(strings.TrimSpace(jobPart))
	if err != nil || number < 1 {
		return 0, base, fmt.Errorf("subtitle option %q: job must be a positive row number", raw)
	}

	opts := base
	for _, pair := range strings.Split(settings, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return 0, base, fmt.Errorf("subtitle option %q: %q is not key=value", raw, pair)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "language", "lang":
			code, ok := language.ToISO3(value)
			if !ok {
				return 0, base, fmt.Errorf("subtitle option %q: unknown language %q", raw, value)
			}
			opts.Language = code
		case "name", "track_name":
			opts.TrackName = value
		case "delay":
			delay, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return 0, base, fmt.Errorf("subtitle option %q: invalid delay %q", raw, value)
			}
			opts.DelaySeconds = delay
		case "default":
			flag, err := parseYesNo(value)
			if err != nil {
				return 0, base, fmt.Errorf("subtitle option %q: %w", raw, err)
			}
			opts.SetDefault = flag
		case "forced":
			flag, err := parseYesNo(value)
			if err != nil {
				return 0, base, fmt.Errorf("subtitle option %q: %w", raw, err)
			}
			opts.SetForced = flag
		default:
			return 0, base, fmt.Errorf("subtitle option %q: unknown key %q", raw, key)
		}
	}
	return number - 1, opts, nil
}

func parseYesNo(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected yes or no, got %q", value)
	}
}
