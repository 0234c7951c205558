package mkvtoolnix

import (
	"path/filepath"
	"strings"

	"mkvbatch/internal/language"
)

// Track types reported by mkvmerge -J.
const (
	TrackVideo     = "video"
	TrackAudio     = "audio"
	TrackSubtitles = "subtitles"
)

// Info is the subset of mkvmerge -J output the muxer needs.
type Info struct {
	Container Container `json:"container"`
	Tracks    []Track   `json:"tracks"`
}

// Container describes the identified file.
type Container struct {
	Type       string `json:"type"`
	Recognized bool   `json:"recognized"`
	Supported  bool   `json:"supported"`
}

// Track is one track of the identified file. ID is mkvmerge's track ID;
// Properties.Number is the Matroska track number mkvpropedit selects with
// "track:@N".
type Track struct {
	ID         int             `json:"id"`
	Type       string          `json:"type"`
	Codec      string          `json:"codec"`
	Properties TrackProperties `json:"properties"`
}

// TrackProperties carries the flags and labels the edits act on.
type TrackProperties struct {
	Number       int    `json:"number"`
	Language     string `json:"language"`
	LanguageIETF string `json:"language_ietf"`
	DefaultTrack bool   `json:"default_track"`
	ForcedTrack  bool   `json:"forced_track"`
	TrackName    string `json:"track_name"`
}

// IsMatroska reports whether the container is Matroska or WebM.
func (i Info) IsMatroska() bool {
	t := strings.ToLower(i.Container.Type)
	return strings.Contains(t, "matroska") || strings.Contains(t, "webm")
}

// Language returns the track language, preferring the ISO 639-2 field.
func (t Track) Language() string {
	if lang := strings.TrimSpace(t.Properties.Language); lang != "" {
		return lang
	}
	return strings.TrimSpace(t.Properties.LanguageIETF)
}

// TrackEdits are default-track changes applied to tracks already in the
// source. Empty fields leave that track type untouched.
type TrackEdits struct {
	DefaultAudioLanguage    string
	DefaultSubtitleLanguage string
}

// HasEdits reports whether any edit is requested.
func (e TrackEdits) HasEdits() bool {
	return strings.TrimSpace(e.DefaultAudioLanguage) != "" || strings.TrimSpace(e.DefaultSubtitleLanguage) != ""
}

// FlagChange sets or clears the default flag of one track.
type FlagChange struct {
	ID      int
	Number  int
	Type    string
	Default bool
}

// PlanDefaultFlags resolves edits against the tracks in info. For each edited
// type the first track in the requested language becomes the default and the
// other tracks of that type lose the flag. Tracks whose flag already has the
// wanted value are skipped. A type with no matching track is reported in
// unmatched and left alone.
func PlanDefaultFlags(info Info, edits TrackEdits) (changes []FlagChange, unmatched []string) {
	plan := func(trackType, lang string) {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			return
		}
		chosen := -1
		for i, track := range info.Tracks {
			if track.Type == trackType && language.Equal(track.Language(), lang) {
				chosen = i
				break
			}
		}
		if chosen < 0 {
			unmatched = append(unmatched, trackType+":"+lang)
			return
		}
		for i, track := range info.Tracks {
			if track.Type != trackType {
				continue
			}
			want := i == chosen
			if track.Properties.DefaultTrack == want {
				continue
			}
			changes = append(changes, FlagChange{
				ID:      track.ID,
				Number:  track.Properties.Number,
				Type:    trackType,
				Default: want,
			})
		}
	}
	plan(TrackAudio, edits.DefaultAudioLanguage)
	plan(TrackSubtitles, edits.DefaultSubtitleLanguage)
	return changes, unmatched
}

var matroskaExtensions = map[string]struct{}{
	".mkv":  {},
	".mka":  {},
	".mks":  {},
	".mk3d": {},
	".webm": {},
}

// IsMatroska reports whether path has a Matroska family extension, which is
// what mkvpropedit can edit in place.
func IsMatroska(path string) bool {
	_, ok := matroskaExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
