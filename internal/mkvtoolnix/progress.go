package mkvtoolnix

import (
	"strconv"
	"strings"
)

// Progress is one interpreted line of tool output.
type Progress struct {
	Percent int
	Error   bool
	Warning bool
	Message string
}

const (
	guiProgressPrefix = "#GUI#progress"
	guiErrorPrefix    = "#GUI#error"
	guiWarningPrefix  = "#GUI#warning"
	plainProgress     = "Progress:"
	plainError        = "Error:"
	plainWarning      = "Warning:"
)

// ParseProgress interprets a line of mkvmerge or mkvpropedit output. It
// returns false for lines that carry neither progress nor a diagnostic.
// Error and warning messages keep the line verbatim.
func ParseProgress(line string) (Progress, bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, guiProgressPrefix):
		return parsePercent(strings.TrimPrefix(trimmed, guiProgressPrefix))
	case strings.HasPrefix(trimmed, plainProgress):
		return parsePercent(strings.TrimPrefix(trimmed, plainProgress))
	case strings.HasPrefix(trimmed, guiErrorPrefix), strings.HasPrefix(trimmed, plainError):
		return Progress{Error: true, Message: trimmed}, true
	case strings.HasPrefix(trimmed, guiWarningPrefix), strings.HasPrefix(trimmed, plainWarning):
		return Progress{Warning: true, Message: trimmed}, true
	default:
		return Progress{}, false
	}
}

func parsePercent(rest string) (Progress, bool) {
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, "%")
	value, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return Progress{}, false
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return Progress{Percent: value}, true
}
