package muxer

import (
	"mkvbatch/internal/config"
	"mkvbatch/internal/mkvtoolnix"
	"mkvbatch/internal/queue"
)

// Decision is the operator's answer to a strategy confirmation.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionMetadataEdit
	DecisionFullRemux
	DecisionCancel
)

func (d Decision) String() string {
	switch d {
	case DecisionMetadataEdit:
		return "metadata_edit"
	case DecisionFullRemux:
		return "full_remux"
	case DecisionCancel:
		return "cancel"
	default:
		return "none"
	}
}

// DefaultEligibility allows an in-place edit only when the job adds nothing
// to the container: no subtitle, no chapters, no attachments, and at least
// one default-track edit to apply to a Matroska source.
func DefaultEligibility(opts Options) func(queue.Job) bool {
	return func(job queue.Job) bool {
		if job.SubtitleFound || job.ChapterFound {
			return false
		}
		if len(opts.Attachments) > 0 || opts.DiscardAttachments {
			return false
		}
		if !opts.Edits.HasEdits() {
			return false
		}
		return mkvtoolnix.IsMatroska(job.VideoPath)
	}
}

// decisionForStrategy maps a configured strategy to a fixed decision.
// "ask" has no fixed decision.
func decisionForStrategy(strategy string) Decision {
	switch strategy {
	case config.StrategyEdit:
		return DecisionMetadataEdit
	case config.StrategyRemux:
		return DecisionFullRemux
	default:
		return DecisionNone
	}
}
