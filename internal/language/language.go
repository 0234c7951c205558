package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Undetermined is the ISO 639-2 code mkvtoolnix uses for unknown languages.
const Undetermined = "und"

// Word forms and bibliographic codes that x/text does not resolve on its own.
var aliases = map[string]string{
	"english":    "eng",
	"spanish":    "spa",
	"french":     "fra",
	"german":     "deu",
	"italian":    "ita",
	"portuguese": "por",
	"japanese":   "jpn",
	"korean":     "kor",
	"chinese":    "zho",
	"russian":    "rus",
	"dutch":      "nld",
	"swedish":    "swe",
	"danish":     "dan",
	"norwegian":  "nor",
	"finnish":    "fin",
	"polish":     "pol",
	"fre":        "fra",
	"ger":        "deu",
	"chi":        "zho",
	"dut":        "nld",
	"cze":        "ces",
	"gre":        "ell",
	"per":        "fas",
	"rum":        "ron",
	"slo":        "slk",
	"ice":        "isl",
	"alb":        "sqi",
	"arm":        "hye",
	"baq":        "eus",
	"bur":        "mya",
	"geo":        "kat",
	"mac":        "mkd",
	"mao":        "mri",
	"may":        "msa",
	"tib":        "bod",
	"wel":        "cym",
}

// ToISO3 converts a language code or English word to ISO 639-2. The boolean
// is false when the input is not a recognised language. Empty input maps to
// "und" and is reported as recognised.
func ToISO3(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == Undetermined {
		return Undetermined, true
	}
	if mapped, ok := aliases[code]; ok {
		return mapped, true
	}
	base, err := xlanguage.ParseBase(code)
	if err != nil {
		return "", false
	}
	iso3 := base.ISO3()
	if iso3 == "" {
		return "", false
	}
	return iso3, true
}

// MustISO3 is ToISO3 with unknown input mapped to "und".
func MustISO3(code string) string {
	iso3, ok := ToISO3(code)
	if !ok {
		return Undetermined
	}
	return iso3
}

// Equal reports whether two codes name the same language, so "en", "eng" and
// "English" all match each other.
func Equal(a, b string) bool {
	left, okLeft := ToISO3(a)
	right, okRight := ToISO3(b)
	if !okLeft || !okRight {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return left == right
}

// DisplayName returns the English name for a code, "Unknown" for empty or
// undetermined input, and the uppercased code when nothing matches.
func DisplayName(code string) string {
	iso3, ok := ToISO3(code)
	if iso3 == Undetermined {
		return "Unknown"
	}
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	base, err := xlanguage.ParseBase(iso3)
	if err != nil {
		return strings.ToUpper(iso3)
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return strings.ToUpper(iso3)
}
