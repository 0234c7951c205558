package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mkvbatch/internal/config"
)

// ConfigOption customizes a generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig returns the default config with every path moved under a fresh
// temp directory, then applies opts in order.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		DestinationDir: filepath.Join(base, "output"),
		LogDir:         filepath.Join(base, "logs"),
		HistoryDB:      filepath.Join(base, "state", "history.db"),
	}

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfg}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithStrategy sets mux.strategy.
func WithStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mux.Strategy = strategy
	}
}

// WithAbortOnErrors sets mux.abort_on_errors.
func WithAbortOnErrors(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mux.AbortOnErrors = enabled
	}
}

// WithStubbedBinaries points tools at do-nothing scripts that exit 0. With
// no names, both mkvmerge and mkvpropedit are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	if len(names) == 0 {
		names = []string{"mkvmerge", "mkvpropedit"}
	}
	return func(b *configBuilder) {
		for _, name := range names {
			WithStubScript(name, "#!/bin/sh\nexit 0\n")(b)
		}
	}
}

// WithStubScript writes script as an executable under <base>/bin and points
// the matching tools entry at it. name is "mkvmerge" or "mkvpropedit".
func WithStubScript(name, script string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", name, err)
		}
		switch name {
		case "mkvmerge":
			b.cfg.Tools.MKVMerge = target
		case "mkvpropedit":
			b.cfg.Tools.MKVPropEdit = target
		default:
			b.t.Fatalf("no tools entry for stub %q", name)
		}
	}
}

// BaseDir returns the temp directory backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DestinationDir)
}
