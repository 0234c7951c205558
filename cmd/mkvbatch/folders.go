package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mkvbatch/internal/config"
	"mkvbatch/internal/files"
	"mkvbatch/internal/muxer"
	"mkvbatch/internal/preflight"
	"mkvbatch/internal/queue"
)

// folderOptions are the source folder flags shared by mux, list, and check.
type folderOptions struct {
	videos      string
	subtitles   string
	chapters    string
	attachments string
	subtitleTop string
	chapterTop  string
}

func (o *folderOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.videos, "videos", "", "Folder holding the video files")
	flags.StringVar(&o.subtitles, "subtitles", "", "Folder holding subtitle files paired by position")
	flags.StringVar(&o.chapters, "chapters", "", "Folder holding chapter files paired by position")
	flags.StringVar(&o.attachments, "attachments", "", "Folder whose files are attached to every output")
	flags.StringVar(&o.subtitleTop, "subtitle-top", "", "Move the named subtitle file to the top of its list")
	flags.StringVar(&o.chapterTop, "chapter-top", "", "Move the named chapter file to the top of its list")
}

func (o *folderOptions) preflightFolders() preflight.Folders {
	return preflight.Folders{
		Videos:      o.videos,
		Subtitles:   o.subtitles,
		Chapters:    o.chapters,
		Attachments: o.attachments,
	}
}

// selection is the listed content of the source folders.
type selection struct {
	videos      []files.Entry
	subtitles   []files.Entry
	chapters    []files.Entry
	attachments []files.Entry
}

// loadSelection lists every configured folder. Any listing failure aborts so
// no partial queue is ever built.
func loadSelection(cfg *config.Config, opts *folderOptions) (selection, error) {
	var sel selection
	if strings.TrimSpace(opts.videos) == "" {
		return sel, fmt.Errorf("--videos is required")
	}

	var err error
	if sel.videos, err = files.List(opts.videos, nil); err != nil {
		return sel, fmt.Errorf("list videos: %w", err)
	}
	if strings.TrimSpace(opts.subtitles) != "" {
		if sel.subtitles, err = files.List(opts.subtitles, cfg.Subtitles.Extensions); err != nil {
			return sel, fmt.Errorf("list subtitles: %w", err)
		}
	}
	if strings.TrimSpace(opts.chapters) != "" {
		if sel.chapters, err = files.List(opts.chapters, cfg.Chapters.Extensions); err != nil {
			return sel, fmt.Errorf("list chapters: %w", err)
		}
	}
	if strings.TrimSpace(opts.attachments) != "" {
		if sel.attachments, err = files.List(opts.attachments, nil); err != nil {
			return sel, fmt.Errorf("list attachments: %w", err)
		}
	}

	if err := moveToTop(sel.subtitles, opts.subtitleTop, "subtitle"); err != nil {
		return sel, err
	}
	if err := moveToTop(sel.chapters, opts.chapterTop, "chapter"); err != nil {
		return sel, err
	}
	return sel, nil
}

func moveToTop(entries []files.Entry, name, kind string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	i := files.IndexOf(entries, name)
	if i < 0 {
		return fmt.Errorf("%s file %q not found", kind, name)
	}
	files.MoveToTop(entries, i)
	return nil
}

// trackOptions snapshots the subtitle settings applied to every paired
// subtitle.
func trackOptions(cfg *config.Config) queue.TrackOptions {
	return queue.TrackOptions{
		DelaySeconds: cfg.Subtitles.DelaySeconds,
		Language:     cfg.Subtitles.Language,
		TrackName:    cfg.Subtitles.TrackName,
		SetDefault:   cfg.Subtitles.SetDefault,
		SetForced:    cfg.Subtitles.SetForced,
	}
}

// buildQueue lists the folders and builds a queue from them.
func buildQueue(cfg *config.Config, opts *folderOptions, overrides []string) (*queue.Queue, selection, error) {
	sel, err := loadSelection(cfg, opts)
	if err != nil {
		return nil, sel, err
	}
	q := queue.New()
	if _, err := q.Build(sel.videos, sel.subtitles, sel.chapters, trackOptions(cfg)); err != nil {
		return nil, sel, err
	}
	for _, raw := range overrides {
		index, opts, err := parseSubtitleOverride(raw, trackOptions(cfg))
		if err != nil {
			return nil, sel, err
		}
		if err := q.SetSubtitleOptions(index, opts); err != nil {
			return nil, sel, fmt.Errorf("subtitle override %q: %w", raw, err)
		}
	}
	return q, sel, nil
}

// unpairedWarnings describes partner files left over after positional
// pairing.
func unpairedWarnings(sel selection) []string {
	var out []string
	if extra := len(sel.subtitles) - len(sel.videos); extra > 0 {
		out = append(out, fmt.Sprintf("%d subtitle file(s) have no video and will be ignored", extra))
	}
	if extra := len(sel.chapters) - len(sel.videos); extra > 0 {
		out = append(out, fmt.Sprintf("%d chapter file(s) have no video and will be ignored", extra))
	}
	return out
}

// collisionWarnings names videos whose remux outputs share a file name in
// destination; the later job overwrites the earlier output.
func collisionWarnings(sel selection, destination string) []string {
	names := make([]string, len(sel.videos))
	for i, video := range sel.videos {
		names[i] = video.Name
	}
	var out []string
	for _, group := range muxer.OutputCollisions(destination, names) {
		out = append(out, fmt.Sprintf("%s all remux to %s; later jobs overwrite earlier outputs",
			strings.Join(group, ", "), muxer.OutputPath(destination, group[0])))
	}
	return out
}
