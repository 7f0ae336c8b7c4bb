// Package textutil holds the newline handling applied around the parser
// and writer.
package textutil

import "bytes"

// NormalizeUTF8LF converts CRLF and lone CR to LF and replaces invalid UTF-8
// byte sequences with the Unicode replacement character.
func NormalizeUTF8LF(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return bytes.ToValidUTF8(b, []byte("\uFFFD"))
}

// EnsureTrailingLF appends a single \n if not already present.
func EnsureTrailingLF(b []byte) []byte {
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return b
	}
	return append(b, '\n')
}

// TrimTrailingBlankLines drops blank lines at the end of b, keeping one
// final \n when b is not empty.
func TrimTrailingBlankLines(b []byte) []byte {
	b = bytes.TrimRight(b, "\n")
	if len(b) == 0 {
		return b
	}
	return append(b, '\n')
}
