package dipsw

// sanitize.go normalizes individual cell values.
//
// Extracted text arrives with stray whitespace, mixed line endings, and
// occasionally decomposed Unicode (accents split from their base letter).
// All helpers here are total: absent input yields nil, never an error.

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanCell trims a cell and returns nil if nothing is left.
func CleanCell(c Cell) *string {
	if c == nil {
		return nil
	}
	return CleanText(*c)
}

// CleanText is CleanCell for a plain string.
func CleanText(s string) *string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return nil
	}
	return &s
}

// cellText returns the trimmed text of a cell, or "" when absent.
func cellText(c Cell) string {
	return Deref(CleanCell(c))
}

// EscapeSQL doubles embedded single quotes so s can sit inside a SQL
// string literal.
func EscapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// flattenLines replaces every line break with a single space.
func flattenLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
