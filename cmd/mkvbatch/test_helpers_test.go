package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mkvbatch/internal/config"
	"mkvbatch/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// stubMKVMerge mimics mkvmerge --gui-mode: it reports progress and writes the
// -o target. Videos named "broken*" fail with an error line.
const stubMKVMerge = `#!/bin/sh
out=""
video=""
while [ $# -gt 0 ]; do
    case "$1" in
        -o) out="$2"; shift ;;
        --gui-mode) ;;
        *) [ -z "$video" ] && video="$1" ;;
    esac
    shift
done
case "$(basename "$video")" in
    broken*)
        echo "#GUI#error: $video is not a supported container"
        exit 2
        ;;
esac
echo "#GUI#progress 50%"
printf 'muxed output' > "$out"
echo "#GUI#progress 100%"
exit 0
`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithStubScript("mkvmerge", stubMKVMerge),
		testsupport.WithStubbedBinaries("mkvpropedit"),
	)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("MKVBATCH_MKVMERGE", "")
	t.Setenv("MKVBATCH_MKVPROPEDIT", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndestination_dir = %q\nlog_dir = %q\nhistory_db = %q\n\n[tools]\nmkvmerge = %q\nmkvpropedit = %q\n",
		cfg.Paths.DestinationDir,
		cfg.Paths.LogDir,
		cfg.Paths.HistoryDB,
		cfg.Tools.MKVMerge,
		cfg.Tools.MKVPropEdit,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", substr, output)
	}
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected %s to be non-empty", path)
	}
}

// runIDFrom extracts the id from the "Run <id> <outcome>: ..." summary line.
func runIDFrom(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "Run ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 1 {
			return fields[1]
		}
	}
	t.Fatalf("no run summary in output:\n%s", output)
	return ""
}
