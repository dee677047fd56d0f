package sidecar

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/extras"
)

var (
	// trailing "(N)" before the extension, e.g. image(11).jpg
	bracketRe = regexp.MustCompile(`^(.*)(\(\d+\))(\.[^.]+)$`)

	// trailing localized word suffix, optionally numbered, e.g. -ed(1)
	wordSuffixRe = regexp.MustCompile(`-[A-Za-zÀ-ÖØ-öø-ÿ]+(\(\d+\))?$`)

	// single-digit parenthesized suffix glued to the extension dot
	digitSuffixRe = regexp.MustCompile(`\(\d\)\.`)
)

// Find locates the JSON sidecar for a media file by trying filename variants
// in order and returning the first that exists on disk. Matching operates on
// the basename only; the directory never changes. The tryhard variants are
// aggressive rewrites used when the caller has nothing to lose.
func Find(mediaPath string, tryhard bool) (string, bool) {
	dir := filepath.Dir(mediaPath)
	base := filepath.Base(mediaPath)

	for _, variant := range Variants(base, tryhard) {
		candidate := filepath.Join(dir, variant)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Variants returns the candidate sidecar basenames for a media basename, most
// likely first. Exposed for tests.
func Variants(base string, tryhard bool) []string {
	variants := []string{}
	seen := map[string]struct{}{}
	add := func(name string) {
		if name == "" {
			return
		}
		withExt := name + ".json"
		if _, dup := seen[withExt]; dup {
			return
		}
		seen[withExt] = struct{}{}
		variants = append(variants, withExt)
	}

	// 1. Identity.
	add(base)

	// 2. Truncation: Google caps sidecar filenames at 51 characters.
	if runeLen(base)+len(".json") > maxSidecarName {
		add(truncateRunes(base, maxSidecarName-len(".json")))
	}

	// 3. Bracket swap: image(11).jpg pairs with image.jpg(11).json.
	if m := bracketRe.FindStringSubmatch(base); m != nil {
		add(m[1] + m[3] + m[2])
	}

	// 4. Edited-suffix strip.
	if stripped := extras.StripSuffix(base); stripped != base {
		add(stripped)
	}

	// 5. No-extension form.
	ext := filepath.Ext(base)
	if ext != "" {
		add(strings.TrimSuffix(base, ext))
	}

	if !tryhard {
		return variants
	}

	// 6. Aggressive: strip any trailing word suffix from the stem.
	stem := strings.TrimSuffix(base, ext)
	if stripped := wordSuffixRe.ReplaceAllString(stem, ""); stripped != stem {
		add(stripped + ext)
	}

	// 7. Aggressive: drop a single-digit "(N)" glued to the extension.
	if stripped := digitSuffixRe.ReplaceAllString(base, "."); stripped != base {
		add(stripped)
	}

	return variants
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
