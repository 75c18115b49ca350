package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTitleLength is the maximum number of runes in a task title
const MaxTitleLength = 120

var (
	leadingMentions = regexp.MustCompile(`^(?:\s*(?:<@[^>]+>|@[A-Za-z0-9][A-Za-z0-9._-]*)[\s,:;]*)+`)
	// longest phrases first
	leadingBoilerplate = regexp.MustCompile(`(?i)^\s*(?:hey|hi|hello)?[\s,]*(?:i need you to|need you to|could you please|can you please|would you please|could you|can you|would you|will you|please|pls|kindly)\b[\s,:]*`)
	sentenceEnd        = regexp.MustCompile(`[.?!](?:\s|$)`)
)

// Title derives a task title from a message: leading mentions and
// assignment boilerplate are removed, only the first sentence is kept,
// trailing punctuation is trimmed and the first letter capitalised.
func Title(text string) string {
	title := strings.TrimSpace(text)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}

	for {
		before := title
		title = leadingMentions.ReplaceAllString(title, "")
		title = leadingBoilerplate.ReplaceAllString(title, "")
		title = strings.TrimSpace(title)
		if title == before {
			break
		}
	}

	if loc := sentenceEnd.FindStringIndex(title); loc != nil {
		title = title[:loc[0]]
	}
	title = strings.TrimRightFunc(title, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) && r != ')' && r != '"'
	})

	if title == "" {
		title = strings.TrimSpace(text)
	}

	title = capitalize(title)
	if utf8.RuneCountInString(title) > MaxTitleLength {
		title = strings.TrimSpace(string([]rune(title)[:MaxTitleLength]))
	}
	return title
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
