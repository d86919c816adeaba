package util

import (
	"regexp"
	"strconv"
	"strings"
)

var signedDecimal = regexp.MustCompile(`-?\d*\.?\d+`)

// FirstNumber extracts the first signed decimal number in text, e.g. 16.2
// from "16.2 GB". ok is false when text holds no number.
func FirstNumber(text string) (value float64, ok bool) {
	match := signedDecimal.FindString(text)
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// HasSizeUnit reports whether a human readable size uses unit, e.g. "GB".
// Units are matched case-sensitively as the export writes them.
func HasSizeUnit(sizeText string, unit string) bool {
	return strings.Contains(sizeText, unit)
}
