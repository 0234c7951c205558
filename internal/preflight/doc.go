// Package preflight provides readiness checks for the binaries and
// directories a mux run depends on.
//
// The mux command calls RunAll before building the queue and refuses to start
// when a required check fails. The check command prints the same report.
// mkvpropedit is optional; its availability becomes the worker's
// metadata-edit capability flag.
package preflight
