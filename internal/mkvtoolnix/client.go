package mkvtoolnix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"mkvbatch/internal/language"
	"mkvbatch/internal/logging"
	"mkvbatch/internal/muxerr"
)

// Tool names used in errors and logs.
const (
	ToolMerge    = "mkvmerge"
	ToolPropEdit = "mkvpropedit"
)

// exitWarnings is the mkvtoolnix exit status for "finished with warnings".
const exitWarnings = 1

// ToolError reports a run that exited with an error status. Output holds the
// error and warning lines the tool printed, verbatim.
type ToolError struct {
	Tool   string
	Code   int
	Output string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.Code)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return muxerr.ErrToolExecution
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the logger raw tool output is written to at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps mkvmerge and mkvpropedit invocations.
type Client struct {
	mergeBinary    string
	propEditBinary string
	exec           Executor
	logger         *slog.Logger
}

// New constructs a client. mkvpropedit may be empty when only remuxing is
// available.
func New(mergeBinary, propEditBinary string, opts ...Option) (*Client, error) {
	mergeBinary = strings.TrimSpace(mergeBinary)
	if mergeBinary == "" {
		return nil, errors.New("mkvmerge binary required")
	}
	client := &Client{
		mergeBinary:    mergeBinary,
		propEditBinary: strings.TrimSpace(propEditBinary),
		exec:           commandExecutor{},
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "mkvtoolnix")
	return client, nil
}

// SubtitleTrack is an external subtitle file added during a remux.
type SubtitleTrack struct {
	Path        string
	Language    string
	TrackName   string
	DelayMillis int64
	Default     bool
	Forced      bool
}

// MergeRequest describes one mkvmerge run.
type MergeRequest struct {
	Output             string
	Video              string
	Subtitle           *SubtitleTrack
	Chapters           string
	Attachments        []string
	DiscardAttachments bool
	Edits              TrackEdits
}

// PropEditRequest describes one in-place mkvpropedit run.
type PropEditRequest struct {
	Path  string
	Edits TrackEdits
}

// Result summarizes a run that succeeded.
type Result struct {
	ExitCode  int
	Warnings  []string
	Unmatched []string
}

// Merge remuxes the request into req.Output. onProgress receives every parsed
// progress, warning, and error line as it arrives.
func (c *Client) Merge(ctx context.Context, req MergeRequest, onProgress func(Progress)) (Result, error) {
	if strings.TrimSpace(req.Output) == "" || strings.TrimSpace(req.Video) == "" {
		return Result{}, muxerr.Wrap(muxerr.ErrInvalidPath, "mkvtoolnix", "merge", "video and output required", nil)
	}
	var flags []FlagChange
	var unmatched []string
	if req.Edits.HasEdits() {
		info, err := c.Identify(ctx, req.Video)
		if err != nil {
			return Result{}, err
		}
		flags, unmatched = PlanDefaultFlags(info, req.Edits)
	}
	result, err := c.run(ctx, ToolMerge, c.mergeBinary, MergeArgs(req, flags), onProgress)
	result.Unmatched = unmatched
	return result, err
}

// MergeArgs builds the mkvmerge command line. Options before a file name
// apply to that file, so default-track flags precede the video and subtitle
// options precede the subtitle.
func MergeArgs(req MergeRequest, flags []FlagChange) []string {
	args := []string{"--gui-mode", "-o", req.Output}
	if req.DiscardAttachments {
		args = append(args, "--no-attachments")
	}
	for _, flag := range flags {
		args = append(args, "--default-track", strconv.Itoa(flag.ID)+":"+yesNo(flag.Default))
	}
	args = append(args, req.Video)

	if sub := req.Subtitle; sub != nil && strings.TrimSpace(sub.Path) != "" {
		args = append(args, "--language", "0:"+language.MustISO3(sub.Language))
		if name := strings.TrimSpace(sub.TrackName); name != "" {
			args = append(args, "--track-name", "0:"+name)
		}
		if sub.DelayMillis != 0 {
			args = append(args, "--sync", "0:"+strconv.FormatInt(sub.DelayMillis, 10))
		}
		args = append(args,
			"--default-track", "0:"+yesNo(sub.Default),
			"--forced-track", "0:"+yesNo(sub.Forced),
			sub.Path,
		)
	}
	if strings.TrimSpace(req.Chapters) != "" {
		args = append(args, "--chapters", req.Chapters)
	}
	for _, attachment := range req.Attachments {
		if strings.TrimSpace(attachment) == "" {
			continue
		}
		args = append(args, "--attach-file", attachment)
	}
	return args
}

// PropEdit applies default-track edits to req.Path in place. When every
// track already carries the wanted flags nothing is executed.
func (c *Client) PropEdit(ctx context.Context, req PropEditRequest, onProgress func(Progress)) (Result, error) {
	if c.propEditBinary == "" {
		return Result{}, muxerr.Wrap(muxerr.ErrToolLaunch, "mkvtoolnix", "propedit", "mkvpropedit not configured", nil)
	}
	if strings.TrimSpace(req.Path) == "" {
		return Result{}, muxerr.Wrap(muxerr.ErrInvalidPath, "mkvtoolnix", "propedit", "path required", nil)
	}
	info, err := c.Identify(ctx, req.Path)
	if err != nil {
		return Result{}, err
	}
	flags, unmatched := PlanDefaultFlags(info, req.Edits)
	if len(flags) == 0 {
		if onProgress != nil {
			onProgress(Progress{Percent: 100})
		}
		return Result{Unmatched: unmatched}, nil
	}
	result, err := c.run(ctx, ToolPropEdit, c.propEditBinary, PropEditArgs(req.Path, flags), onProgress)
	result.Unmatched = unmatched
	return result, err
}

// PropEditArgs builds the mkvpropedit command line.
func PropEditArgs(path string, flags []FlagChange) []string {
	args := []string{"--gui-mode", path}
	for _, flag := range flags {
		value := "0"
		if flag.Default {
			value = "1"
		}
		args = append(args, "--edit", "track:@"+strconv.Itoa(flag.Number), "--set", "flag-default="+value)
	}
	return args
}

// Identify runs mkvmerge -J and decodes the result. Only stdout carries the
// JSON document; stderr is logged and kept for error reports.
func (c *Client) Identify(ctx context.Context, path string) (Info, error) {
	var out, diag strings.Builder
	err := c.exec.Run(ctx, c.mergeBinary, []string{"-J", path}, func(stream Stream, line string) {
		if stream == Stderr {
			c.logger.Debug("identify stderr", logging.String("tool", ToolMerge), logging.String("line", line))
			diag.WriteString(line)
			diag.WriteByte('\n')
			return
		}
		out.WriteString(line)
		out.WriteByte('\n')
	})
	if err != nil {
		var exitErr *ExitStatusError
		if !errors.As(err, &exitErr) || exitErr.Code > exitWarnings {
			output := strings.TrimSpace(diag.String() + out.String())
			return Info{}, classifyRunError(ToolMerge, err, output)
		}
	}
	var info Info
	if err := json.Unmarshal([]byte(out.String()), &info); err != nil {
		return Info{}, muxerr.Wrap(muxerr.ErrToolExecution, "mkvtoolnix", "identify", path, err)
	}
	return info, nil
}

func (c *Client) run(ctx context.Context, tool, binary string, args []string, onProgress func(Progress)) (Result, error) {
	var diagnostics []string
	var warnings []string
	c.logger.Debug("running tool", logging.String("tool", tool), logging.Any("args", args))

	err := c.exec.Run(ctx, binary, args, func(_ Stream, line string) {
		c.logger.Debug("tool output", logging.String("tool", tool), logging.String("line", line))
		progress, ok := ParseProgress(line)
		if !ok {
			return
		}
		if progress.Error || progress.Warning {
			diagnostics = append(diagnostics, progress.Message)
		}
		if progress.Warning {
			warnings = append(warnings, progress.Message)
		}
		if onProgress != nil {
			onProgress(progress)
		}
	})
	result := Result{Warnings: warnings}
	if err == nil {
		return result, nil
	}
	var exitErr *ExitStatusError
	if errors.As(err, &exitErr) && exitErr.Code == exitWarnings {
		result.ExitCode = exitWarnings
		return result, nil
	}
	return result, classifyRunError(tool, err, strings.Join(diagnostics, "\n"))
}

func classifyRunError(tool string, err error, output string) error {
	var exitErr *ExitStatusError
	if errors.As(err, &exitErr) {
		return &ToolError{Tool: tool, Code: exitErr.Code, Output: output}
	}
	if errors.Is(err, muxerr.ErrToolLaunch) {
		return err
	}
	return muxerr.Wrap(muxerr.ErrToolExecution, "mkvtoolnix", tool, "", err)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
