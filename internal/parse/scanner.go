// Package parse turns smali text into the types model. It is a hand-written
// recursive-descent parser over a byte cursor; every production either
// consumes its construct completely or returns a *types.ParseError carrying
// the line and column of the failure. There is no error recovery.
package parse

import (
	"fmt"
	"strings"

	"smalikit/types"
)

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) rest() string { return s.src[s.pos:] }

func (s *scanner) hasPrefix(p string) bool { return strings.HasPrefix(s.rest(), p) }

// skipSpace skips horizontal whitespace only.
func (s *scanner) skipSpace() {
	for !s.eof() {
		switch s.src[s.pos] {
		case ' ', '\t', '\r':
			s.pos++
		default:
			return
		}
	}
}

// skipInline skips horizontal whitespace and a trailing comment, stopping
// before the newline.
func (s *scanner) skipInline() {
	s.skipSpace()
	if s.peek() == '#' {
		for !s.eof() && s.src[s.pos] != '\n' {
			s.pos++
		}
	}
}

// skipBlank skips whitespace, newlines and comment lines.
func (s *scanner) skipBlank() {
	for {
		s.skipInline()
		if s.peek() != '\n' {
			return
		}
		s.pos++
	}
}

// atLineEnd reports whether only whitespace or a comment remains on the
// current line.
func (s *scanner) atLineEnd() bool {
	save := s.pos
	s.skipInline()
	end := s.eof() || s.peek() == '\n'
	s.pos = save
	return end
}

func (s *scanner) expectLineEnd() error {
	s.skipInline()
	if s.eof() {
		return nil
	}
	if s.peek() != '\n' {
		return s.errorf(types.Lexical, "unexpected %q, expected end of line", s.token())
	}
	s.pos++
	return nil
}

// token returns the whitespace-delimited run at the cursor without
// consuming it; used for error messages.
func (s *scanner) token() string {
	end := s.pos
	for end < len(s.src) && !isSpace(s.src[end]) {
		end++
	}
	if end-s.pos > 40 {
		end = s.pos + 40
	}
	return s.src[s.pos:end]
}

// word consumes a run of bytes up to whitespace or any of the stop bytes.
func (s *scanner) word(stop string) string {
	start := s.pos
	for !s.eof() {
		c := s.src[s.pos]
		if isSpace(c) || strings.IndexByte(stop, c) >= 0 {
			break
		}
		s.pos++
	}
	return s.src[start:s.pos]
}

// peekWord is word without consuming.
func (s *scanner) peekWord(stop string) string {
	save := s.pos
	w := s.word(stop)
	s.pos = save
	return w
}

// directive consumes ".name" and returns it including the dot, or "" when
// the cursor is not on a directive.
func (s *scanner) directive() string {
	if s.peek() != '.' {
		return ""
	}
	end := s.pos + 1
	for end < len(s.src) && (isLower(s.src[end]) || s.src[end] == '-') {
		end++
	}
	if end == s.pos+1 {
		return ""
	}
	d := s.src[s.pos:end]
	s.pos = end
	return d
}

func (s *scanner) peekDirective() string {
	save := s.pos
	d := s.directive()
	s.pos = save
	return d
}

// expect consumes lit or fails.
func (s *scanner) expect(lit string) error {
	if !s.hasPrefix(lit) {
		return s.errorf(types.Lexical, "expected %q, found %q", lit, s.token())
	}
	s.pos += len(lit)
	return nil
}

// comma consumes an operand separator with surrounding blanks.
func (s *scanner) comma() error {
	s.skipSpace()
	if err := s.expect(","); err != nil {
		return err
	}
	s.skipSpace()
	return nil
}

func (s *scanner) location(pos int) (line, col int) {
	line = 1 + strings.Count(s.src[:pos], "\n")
	col = pos - strings.LastIndexByte(s.src[:pos], '\n')
	return line, col
}

func (s *scanner) errorAt(pos int, kind types.ErrorKind, format string, args ...any) *types.ParseError {
	line, col := s.location(pos)
	return &types.ParseError{Kind: kind, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) errorf(kind types.ErrorKind, format string, args ...any) *types.ParseError {
	return s.errorAt(s.pos, kind, format, args...)
}

// relocate re-anchors a location-free error (from descriptor decoding) at pos.
func (s *scanner) relocate(pos int, err error) error {
	if pe, ok := err.(*types.ParseError); ok && pe.Line == 0 {
		line, col := s.location(pos)
		return &types.ParseError{Kind: pe.Kind, Line: line, Column: col, Msg: pe.Msg}
	}
	return err
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
