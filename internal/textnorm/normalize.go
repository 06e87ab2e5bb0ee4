// Package textnorm holds the single text cleaning routine used at training and
// inference time.
package textnorm

import (
	"regexp"
	"strings"
)

// space matches every Unicode white space rune (unicode.IsSpace), not only ASCII.
const space = `\s\v\x{85}\p{Z}`

var (
	urlPattern   = regexp.MustCompile(`(?:http|www|https)[^` + space + `]+`)
	digitPattern = regexp.MustCompile(`\p{Nd}+`)
	// Anything that is not a word character or white space.
	punctPattern = regexp.MustCompile(`[^\p{L}\p{N}_` + space + `]`)
)

// maxPasses bounds the fixed-point loop; every pass after the first only removes text.
const maxPasses = 8

// Normalize lowercases text, strips URL-like tokens, digit runs and punctuation, and
// trims surrounding whitespace. It is repeated until the output is stable so that
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	out := clean(text)
	for i := 1; i < maxPasses; i++ {
		next := clean(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func clean(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = digitPattern.ReplaceAllString(text, "")
	text = punctPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// NormalizeAll applies Normalize to every element, returning a new slice.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}
