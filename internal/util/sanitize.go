package util

import (
	"regexp"
	"strings"
)

const (
	// ReservedToken may not appear anywhere in a destination item name.
	ReservedToken = "_vti_"
	// ReservedTokenMarker replaces every ReservedToken occurrence.
	ReservedTokenMarker = "vti-removed-in-migration"
	// MigratedPrefix replaces the leading tilde of a folder name.
	MigratedPrefix = "migrated-"
)

// ForbiddenCharacters lists every character the destination platform rejects
// in an item name, in the order they are reported.
const ForbiddenCharacters = `"*:<>?/\|`

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// forbiddenCharReplacer substitutes each forbidden character in a single left
// to right pass. Output is never re-scanned, and no replacement string is
// itself forbidden, so the result is always clean.
var forbiddenCharReplacer = strings.NewReplacer(
	"?", " ",
	"*", " ",
	":", "-",
	"|", "-",
	`"`, "'",
	"<", "",
	">", "",
	"/", "",
	`\`, "",
)

func ContainsForbiddenChars(name string) bool {
	return invalidFilenameChars.MatchString(name)
}

// ForbiddenCharsIn returns the distinct forbidden characters found in name,
// in first-occurrence order.
func ForbiddenCharsIn(name string) []string {
	matches := invalidFilenameChars.FindAllString(name, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		if _, exists := seen[match]; exists {
			continue
		}
		seen[match] = struct{}{}
		out = append(out, match)
	}
	return out
}

// ReplaceForbiddenChars applies the fixed character map to every occurrence.
func ReplaceForbiddenChars(name string) string {
	return forbiddenCharReplacer.Replace(name)
}

func ContainsReservedToken(name string) bool {
	return strings.Contains(name, ReservedToken)
}

func ReplaceReservedToken(name string) string {
	return strings.ReplaceAll(name, ReservedToken, ReservedTokenMarker)
}

func HasLeadingTilde(name string) bool {
	return strings.HasPrefix(name, "~")
}

// ReplaceLeadingTilde swaps a single leading tilde for MigratedPrefix.
func ReplaceLeadingTilde(name string) string {
	if !HasLeadingTilde(name) {
		return name
	}
	return MigratedPrefix + strings.TrimPrefix(name, "~")
}
