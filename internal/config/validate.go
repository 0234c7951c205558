package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"mkvbatch/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateMux(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateEdits(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		return errors.New("paths.destination_dir must be set")
	}
	if c.History.Enabled && strings.TrimSpace(c.Paths.HistoryDB) == "" {
		return errors.New("paths.history_db must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateTools() error {
	if strings.TrimSpace(c.Tools.MKVMerge) == "" {
		return errors.New("tools.mkvmerge must be set")
	}
	if strings.TrimSpace(c.Tools.MKVPropEdit) == "" {
		return errors.New("tools.mkvpropedit must be set")
	}
	return nil
}

func (c *Config) validateMux() error {
	switch c.Mux.Strategy {
	case StrategyAsk, StrategyRemux, StrategyEdit:
		return nil
	default:
		return fmt.Errorf("mux.strategy must be one of %q, %q or %q, got %q", StrategyAsk, StrategyRemux, StrategyEdit, c.Mux.Strategy)
	}
}

func (c *Config) validateSubtitles() error {
	if len(c.Subtitles.Extensions) == 0 {
		return errors.New("subtitles.extensions must list at least one extension")
	}
	if _, ok := language.ToISO3(c.Subtitles.Language); !ok {
		return fmt.Errorf("subtitles.language %q is not a recognised language code", c.Subtitles.Language)
	}
	if math.IsNaN(c.Subtitles.DelaySeconds) || math.Abs(c.Subtitles.DelaySeconds) > maxSubtitleDelaySeconds {
		return fmt.Errorf("subtitles.delay_seconds must be within ±%d", maxSubtitleDelaySeconds)
	}
	if len(c.Chapters.Extensions) == 0 {
		return errors.New("chapters.extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateEdits() error {
	for key, value := range map[string]string{
		"edits.default_audio_language":    c.Edits.DefaultAudioLanguage,
		"edits.default_subtitle_language": c.Edits.DefaultSubtitleLanguage,
	} {
		if value == "" {
			continue
		}
		if _, ok := language.ToISO3(value); !ok {
			return fmt.Errorf("%s %q is not a recognised language code", key, value)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn or error, got %q", c.Logging.Level)
	}
}
