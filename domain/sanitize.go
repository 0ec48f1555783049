// domain/sanitize.go
package domain

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Sanitize turns an arbitrary input value into plain text of at most limit
// code points: non-strings become "", NUL bytes are dropped, surrounding
// whitespace is trimmed, the value is cut on a rune boundary and markup is
// stripped.
//
// Stripping and trimming repeat until nothing changes, so
// Sanitize(Sanitize(v)) == Sanitize(v).
func Sanitize(v any, limit int) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.ReplaceAll(s, "\x00", "")
	s = Truncate(strings.TrimSpace(s), limit)
	for {
		next := strings.TrimSpace(StripTags(s))
		if next == s {
			return s
		}
		s = next
	}
}

// Truncate keeps the first limit code points of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// StripTags removes element tags, comments and doctypes from s and keeps the
// text between them byte for byte. Entities are left encoded.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	for {
		stripped := stripOnce(s)
		if stripped == s {
			return s
		}
		s = stripped
	}
}

func stripOnce(s string) string {
	var buf bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF is the only error a strings.Reader can produce
			return buf.String()
		case html.TextToken:
			buf.Write(z.Raw())
		}
	}
}
