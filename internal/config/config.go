package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains output and bookkeeping locations.
type Paths struct {
	DestinationDir string `toml:"destination_dir"`
	LogDir         string `toml:"log_dir"`
	HistoryDB      string `toml:"history_db"`
}

// Tools names the mkvtoolnix binaries. Values may be bare names resolved via
// PATH or absolute paths.
type Tools struct {
	MKVMerge    string `toml:"mkvmerge"`
	MKVPropEdit string `toml:"mkvpropedit"`
}

// Mux controls how the worker runs the queue.
type Mux struct {
	AbortOnErrors bool   `toml:"abort_on_errors"`
	Strategy      string `toml:"strategy"`
}

// Subtitles contains the matching rules and the track options applied to
// every paired subtitle.
type Subtitles struct {
	Extensions   []string `toml:"extensions"`
	Language     string   `toml:"language"`
	TrackName    string   `toml:"track_name"`
	DelaySeconds float64  `toml:"delay_seconds"`
	SetDefault   bool     `toml:"set_default"`
	SetForced    bool     `toml:"set_forced"`
}

// Chapters contains the chapter file matching rules.
type Chapters struct {
	Extensions []string `toml:"extensions"`
}

// Attachments controls attachment handling for remuxed outputs.
type Attachments struct {
	DiscardExisting bool `toml:"discard_existing"`
}

// Edits holds default-track changes applied to tracks already in the source.
type Edits struct {
	DefaultAudioLanguage    string `toml:"default_audio_language"`
	DefaultSubtitleLanguage string `toml:"default_subtitle_language"`
}

// History toggles the run history store.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mkvbatch.
//
// Configuration sections:
//   - Paths: destination, log directory, and history database
//   - Tools: mkvmerge and mkvpropedit binaries
//   - Mux: strategy selection and abort-on-errors
//   - Subtitles: matching extensions and per-track options
//   - Chapters: matching extensions
//   - Attachments: existing attachment handling
//   - Edits: default-track changes for source tracks
//   - History: run history toggle
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Tools       Tools       `toml:"tools"`
	Mux         Mux         `toml:"mux"`
	Subtitles   Subtitles   `toml:"subtitles"`
	Chapters    Chapters    `toml:"chapters"`
	Attachments Attachments `toml:"attachments"`
	Edits       Edits       `toml:"edits"`
	History     History     `toml:"history"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Normalize expands paths and canonicalizes values after callers mutate a
// loaded config, for example when applying command-line overrides.
func (c *Config) Normalize() error {
	return c.normalize()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a mux run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DestinationDir, c.Paths.LogDir}
	if c.History.Enabled && strings.TrimSpace(c.Paths.HistoryDB) != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogFilePath returns the file the run log is written to.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, logFileName)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// Sample returns the commented sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
