package util

import (
	"strings"
	"unicode/utf8"
)

// MaxPostLength bounds post text after sanitization.
const MaxPostLength = 500

// FilterText trims whitespace, strips control characters, and truncates the
// result to MaxPostLength runes.
func FilterText(content string) string {
	var b strings.Builder
	for _, r := range content {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if utf8.RuneCountInString(cleaned) > MaxPostLength {
		runes := []rune(cleaned)
		cleaned = string(runes[:MaxPostLength])
	}
	return cleaned
}

// TruncateRunes returns at most n leading runes of s.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ExtractMentions extracts @username mentions from text content
// Returns a slice of unique usernames (lowercase, without @ symbol)
func ExtractMentions(content string) []string {
	var mentions []string
	words := strings.Fields(content)
	seen := make(map[string]bool)

	for _, word := range words {
		if strings.HasPrefix(word, "@") && len(word) > 1 {
			username := strings.TrimPrefix(word, "@")
			username = strings.TrimRight(username, ".,!?;:")
			username = strings.ToLower(username)

			if !seen[username] && len(username) >= 1 && len(username) <= 30 {
				seen[username] = true
				mentions = append(mentions, username)
			}
		}
	}
	return mentions
}

// ExtractHashtags extracts #tag tokens from text content.
// Returns unique lowercase tags without the # symbol.
func ExtractHashtags(content string) []string {
	var tags []string
	words := strings.Fields(content)
	seen := make(map[string]bool)

	for _, word := range words {
		if strings.HasPrefix(word, "#") && len(word) > 1 {
			tag := strings.TrimPrefix(word, "#")
			tag = strings.TrimRight(tag, ".,!?;:")
			tag = strings.ToLower(tag)

			if tag != "" && !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
