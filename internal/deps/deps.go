// Package deps resolves the external binaries mkvbatch shells out to.
package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// Requirement names a binary and how to find it. Command is a bare name
// looked up on PATH or a path to an executable.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one Requirement.
type Status struct {
	Requirement
	Path      string
	Available bool
	Detail    string
}

// Satisfied reports whether the requirement does not block a run.
func (s Status) Satisfied() bool {
	return s.Available || s.Optional
}

// Resolve looks up a single requirement.
func Resolve(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	status := Status{Requirement: req}
	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}

	path, err := exec.LookPath(req.Command)
	if err != nil {
		status.Detail = lookupDetail(req.Command, err)
		return status
	}
	status.Path = path
	status.Available = true
	return status
}

// CheckBinaries resolves requirements in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Resolve(req)
	}
	return results
}

// Find returns the status named name, or false.
func Find(statuses []Status, name string) (Status, bool) {
	for _, status := range statuses {
		if status.Name == name {
			return status, true
		}
	}
	return Status{}, false
}

func lookupDetail(command string, err error) string {
	if !strings.ContainsRune(command, '/') {
		return fmt.Sprintf("%q not found on PATH", command)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("%s does not exist", command)
	}
	return fmt.Sprintf("%s is not executable", command)
}
