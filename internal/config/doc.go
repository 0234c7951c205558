// Package config loads, normalizes, and validates mkvbatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the MKVBATCH_MKVMERGE and
// MKVBATCH_MKVPROPEDIT environment overrides. Language codes are canonicalized
// to ISO 639-2 and extensions are stored lower-case without leading dots.
//
// The loaded Config is passed explicitly to the matcher, queue, and worker;
// nothing reads settings from package-level state.
package config
