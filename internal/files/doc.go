// Package files lists the input folders of a batch: videos, subtitles,
// chapters, and attachments.
//
// Listings skip directories and zero-byte files and are returned in natural
// order, so "Episode 2" comes before "Episode 10". Positional pairing in the
// queue depends on that ordering being stable.
package files
