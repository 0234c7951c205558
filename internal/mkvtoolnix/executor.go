package mkvtoolnix

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"mkvbatch/internal/muxerr"
)

// Stream identifies which pipe a line of tool output came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Executor abstracts command execution for testability. onLine receives each
// stdout and stderr line tagged with its stream; calls are serialized.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(Stream, string)) error
}

// ExitStatusError reports a process that ran and exited non-zero.
type ExitStatusError struct {
	Code int
}

func (e *ExitStatusError) Error() string {
	return "exit status " + strconv.Itoa(e.Code)
}

type commandExecutor struct{}

const maxLineBytes = 1 << 20

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(Stream, string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return muxerr.Wrap(muxerr.ErrToolLaunch, "mkvtoolnix", "start", binary, err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once
	var forwardMu sync.Mutex

	forward := func(stream Stream, line string) {
		if onLine == nil {
			return
		}
		forwardMu.Lock()
		defer forwardMu.Unlock()
		onLine(stream, line)
	}

	scan := func(stream Stream, r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			forward(stream, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
			// Drain so the child never blocks on a full pipe.
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go scan(Stdout, stdout)
	go scan(Stderr, stderr)
	wg.Wait()

	waitErr := cmd.Wait()
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0 {
			return &ExitStatusError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("wait command: %w", waitErr)
	}
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	return nil
}
