// Package extras recognizes Google Photos "edited version" companion files by
// their localized filename suffixes.
package extras

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// editedSuffixes are the localized suffixes Google Photos appends to edited
// copies. All entries are NFC-normalized lowercase.
var editedSuffixes = []string{
	"-edited",
	"-effects",
	"-smile",
	"-mix",
	"-edytowane",
	"-bearbeitet",
	"-bewerkt",
	"-modifié",
	"-modificato",
	"-editado",
	"-redigerad",
	"-muokattu",
	"-upravené",
	"-редактировано",
}

// IsExtra reports whether the file's basename (minus extension) carries one of
// the known edited-version suffixes.
func IsExtra(basename string) bool {
	name := normalize(basename)
	for _, suffix := range editedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// StripSuffix removes a trailing edited-version suffix from a basename while
// keeping the extension. Returns the input unchanged when no suffix matches.
func StripSuffix(basename string) string {
	ext := filepath.Ext(basename)
	stem := strings.TrimSuffix(basename, ext)
	normalized := norm.NFC.String(stem)
	lower := strings.ToLower(normalized)

	for _, suffix := range editedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return normalized[:len(normalized)-len(suffix)] + ext
		}
	}
	return basename
}

func normalize(basename string) string {
	ext := filepath.Ext(basename)
	stem := strings.TrimSuffix(basename, ext)
	return strings.ToLower(norm.NFC.String(stem))
}
