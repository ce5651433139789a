// Package nid finds a national identity number on a card photograph.
//
// The scan crops every text block reported by a detection.RegionFinder out of
// the colour image, runs OCR on it and accepts the first OCR line whose digits
// form a number of 10, 13, 15 or 17 characters. There is no fuzzy matching: a
// line either has exactly one of those digit counts or it is ignored.
package nid

import (
	"strings"
)

// NotRecognized is reported when no OCR line qualifies as an ID number.
const NotRecognized = "Not Recognized"

// validLengths are the digit counts of the supported NID formats.
var validLengths = map[int]bool{10: true, 13: true, 15: true, 17: true}

// ValidLength reports whether n is an accepted NID digit count.
func ValidLength(n int) bool {
	return validLengths[n]
}

// Digits keeps only the ASCII digits of s, in order.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchLine extracts the digits of one OCR line and reports whether they form
// a valid NID. Letters, punctuation and spaces between digits are dropped, so
// "NID No: 1234 567 890" yields "1234567890".
func MatchLine(line string) (string, bool) {
	d := Digits(strings.TrimSpace(line))
	if !ValidLength(len(d)) {
		return "", false
	}
	return d, true
}

// MatchText splits OCR output into lines and returns the first line that
// matches. Digits on different lines are never joined.
func MatchText(text string) (string, bool) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if id, ok := MatchLine(line); ok {
			return id, true
		}
	}
	return "", false
}
