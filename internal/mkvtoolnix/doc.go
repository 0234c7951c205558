// Package mkvtoolnix wraps the mkvmerge and mkvpropedit command-line tools.
//
// Both tools run in --gui-mode so progress and diagnostics arrive as
// "#GUI#progress 42%", "#GUI#error ..." and "#GUI#warning ..." lines that do
// not depend on the user's locale. ParseProgress also accepts the plain
// "Progress: 42%" form for older builds.
//
// mkvtoolnix exit codes: 0 success, 1 success with warnings, 2 error. Exit 1
// is treated as success; the warnings are returned on the Result.
package mkvtoolnix
