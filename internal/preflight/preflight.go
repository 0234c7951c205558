package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"mkvbatch/internal/config"
	"mkvbatch/internal/deps"
)

// Binary names reported in Report.Binaries.
const (
	NameMKVMerge    = "mkvmerge"
	NameMKVPropEdit = "mkvpropedit"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Report collects every check of one preflight pass.
type Report struct {
	Directories []Result
	Binaries    []deps.Status
}

// Ready reports whether every directory check passed and every required
// binary is available.
func (r Report) Ready() bool {
	for _, result := range r.Directories {
		if !result.Passed {
			return false
		}
	}
	for _, status := range r.Binaries {
		if !status.Satisfied() {
			return false
		}
	}
	return true
}

// Failures lists a one-line description of each blocking problem.
func (r Report) Failures() []string {
	var out []string
	for _, result := range r.Directories {
		if !result.Passed {
			out = append(out, result.Name+": "+result.Detail)
		}
	}
	for _, status := range r.Binaries {
		if !status.Satisfied() {
			out = append(out, status.Name+": "+status.Detail)
		}
	}
	return out
}

// MetadataEditAvailable reports whether mkvpropedit was found.
func (r Report) MetadataEditAvailable() bool {
	status, ok := deps.Find(r.Binaries, NameMKVPropEdit)
	return ok && status.Available
}

// Folders names the source folders of a run. Empty entries are skipped.
type Folders struct {
	Videos      string
	Subtitles   string
	Chapters    string
	Attachments string
}

// RunAll checks the configured binaries, the destination directory, and any
// source folders that are set.
func RunAll(cfg *config.Config, folders Folders) Report {
	if cfg == nil {
		return Report{}
	}
	report := Report{Binaries: CheckBinaries(cfg)}
	report.Directories = append(report.Directories,
		CheckDirectoryAccess("Destination directory", cfg.Paths.DestinationDir))

	sources := []struct {
		name string
		path string
	}{
		{"Video folder", folders.Videos},
		{"Subtitle folder", folders.Subtitles},
		{"Chapter folder", folders.Chapters},
		{"Attachment folder", folders.Attachments},
	}
	for _, source := range sources {
		if strings.TrimSpace(source.path) == "" {
			continue
		}
		report.Directories = append(report.Directories, CheckReadableDirectory(source.name, source.path))
	}
	return report
}

// CheckBinaries resolves mkvmerge (required) and mkvpropedit (optional).
func CheckBinaries(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        NameMKVMerge,
			Command:     cfg.Tools.MKVMerge,
			Description: "Required for remuxing",
		},
		{
			Name:        NameMKVPropEdit,
			Command:     cfg.Tools.MKVPropEdit,
			Description: "Enables in-place default-track edits",
			Optional:    true,
		},
	})
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}
