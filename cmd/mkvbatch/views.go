package main

import (
	"fmt"
	"strconv"
	"strings"

	"mkvbatch/internal/files"
	"mkvbatch/internal/language"
	"mkvbatch/internal/queue"
)

const maxMessageWidth = 60

func renderJobTable(state queue.State, withResults bool) string {
	columns := []column{
		{title: "#", align: alignRight},
		{title: "Video"},
		{title: "Subtitle"},
		{title: "Chapter"},
		{title: "Size Before", align: alignRight},
	}
	if withResults {
		columns = append(columns,
			column{title: "Size After", align: alignRight},
			column{title: "Status"},
			column{title: "Message"},
		)
	}

	rows := make([][]string, 0, len(state.Jobs))
	for _, job := range state.Jobs {
		row := []string{
			strconv.Itoa(job.Index + 1),
			job.VideoName,
			subtitleCell(job),
			partnerCell(job.ChapterFound, job.ChapterName),
			files.HumanSize(job.SizeBefore),
		}
		if withResults {
			sizeAfter := "-"
			if job.Status.Finished() {
				sizeAfter = files.HumanSize(job.SizeAfter)
			}
			row = append(row, sizeAfter, statusCell(job), truncate(job.FailureMessage, maxMessageWidth))
		}
		rows = append(rows, row)
	}
	return renderTable(columns, rows)
}

func subtitleCell(job queue.Job) string {
	if !job.SubtitleFound {
		return "-"
	}
	var details []string
	if job.Track.Language != "" && job.Track.Language != language.Undetermined {
		details = append(details, job.Track.Language)
	}
	if job.Track.DelaySeconds != 0 {
		details = append(details, strconv.FormatFloat(job.Track.DelaySeconds, 'f', -1, 64)+"s")
	}
	if job.Track.SetDefault {
		details = append(details, "default")
	}
	if job.Track.SetForced {
		details = append(details, "forced")
	}
	if len(details) == 0 {
		return job.SubtitleName
	}
	return fmt.Sprintf("%s (%s)", job.SubtitleName, strings.Join(details, ", "))
}

func partnerCell(found bool, name string) string {
	if !found {
		return "-"
	}
	return name
}

func statusCell(job queue.Job) string {
	switch job.Status {
	case queue.StatusDone:
		if job.UsedMetadataEdit {
			return "done (edited)"
		}
		return "done"
	case queue.StatusFailed:
		return "failed"
	case queue.StatusRunning:
		return fmt.Sprintf("running %d%%", job.Progress)
	default:
		return "pending"
	}
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-3]) + "..."
}

func attachmentSummary(entries []files.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	return fmt.Sprintf("Attachments: %d file(s), %s", len(entries), files.HumanSize(files.TotalSize(entries)))
}
