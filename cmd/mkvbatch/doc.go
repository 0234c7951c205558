// Command mkvbatch pairs videos with subtitle and chapter files by position
// and remuxes each pair with mkvmerge.
//
// Subcommands:
//   - mux: build the queue, run it, and record the outcome
//   - list: preview the pairing without running anything
//   - check: report binary and directory readiness
//   - history: show recorded runs
//   - config init / config validate: manage the configuration file
//
// During mux the first Ctrl-C pauses after the current job and the second
// cancels. Jobs are never interrupted mid-run.
package main
