// Package language normalizes language codes for mkvtoolnix track options.
//
// mkvmerge expects ISO 639-2 codes. Users type whatever is at hand ("en",
// "eng", "fre", "English"), so everything is funnelled through ToISO3 before
// it reaches a command line.
package language
