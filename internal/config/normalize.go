package config

import (
	"fmt"
	"os"
	"strings"

	"mkvbatch/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeMux()
	c.normalizeSubtitles()
	c.Chapters.Extensions = normalizeExtensions(c.Chapters.Extensions)
	c.normalizeEdits()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		c.Paths.DestinationDir = defaultDestinationDir
	}
	if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.MKVMerge = strings.TrimSpace(c.Tools.MKVMerge)
	if value, ok := os.LookupEnv(envMKVMerge); ok && strings.TrimSpace(value) != "" {
		c.Tools.MKVMerge = strings.TrimSpace(value)
	}
	if c.Tools.MKVMerge == "" {
		c.Tools.MKVMerge = defaultMKVMerge
	}
	c.Tools.MKVPropEdit = strings.TrimSpace(c.Tools.MKVPropEdit)
	if value, ok := os.LookupEnv(envMKVPropEdit); ok && strings.TrimSpace(value) != "" {
		c.Tools.MKVPropEdit = strings.TrimSpace(value)
	}
	if c.Tools.MKVPropEdit == "" {
		c.Tools.MKVPropEdit = defaultMKVPropEdit
	}
}

func (c *Config) normalizeMux() {
	c.Mux.Strategy = strings.ToLower(strings.TrimSpace(c.Mux.Strategy))
	if c.Mux.Strategy == "" {
		c.Mux.Strategy = defaultMuxStrategy
	}
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Extensions = normalizeExtensions(c.Subtitles.Extensions)
	c.Subtitles.Language = normalizeLanguage(c.Subtitles.Language)
	if c.Subtitles.Language == "" {
		c.Subtitles.Language = defaultSubtitleLanguage
	}
	c.Subtitles.TrackName = strings.TrimSpace(c.Subtitles.TrackName)
}

func (c *Config) normalizeEdits() {
	c.Edits.DefaultAudioLanguage = normalizeLanguage(c.Edits.DefaultAudioLanguage)
	c.Edits.DefaultSubtitleLanguage = normalizeLanguage(c.Edits.DefaultSubtitleLanguage)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// normalizeLanguage maps recognised codes to ISO 639-2 and leaves anything
// else trimmed so Validate can report it.
func normalizeLanguage(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if iso3, ok := language.ToISO3(value); ok {
		return iso3
	}
	return value
}

// NormalizeExtensions lower-cases, strips leading dots, and deduplicates a
// list of file extensions while keeping the original order.
func NormalizeExtensions(values []string) []string {
	return normalizeExtensions(values)
}

func normalizeExtensions(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimLeft(strings.TrimSpace(value), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
