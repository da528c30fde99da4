package ingest

import (
	"strings"
)

// MergeNotes unions freshly supplied notes into the existing set. The raw
// input is split on commas, each piece trimmed, empty pieces dropped; a new
// piece is appended only when no existing note equals it after trimming.
// Order is existing-first, then new pieces in input order. The merge is
// idempotent and pure; the caller owns the read-modify-write against the
// profile row.
func MergeNotes(existing []string, rawNotesInput string) []string {
	merged := make([]string, 0, len(existing))
	seen := make(map[string]bool, len(existing))
	for _, note := range existing {
		merged = append(merged, note)
		seen[strings.TrimSpace(note)] = true
	}

	for _, piece := range strings.Split(rawNotesInput, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if seen[piece] {
			continue
		}
		seen[piece] = true
		merged = append(merged, piece)
	}

	return merged
}
