package parse

import (
	"strings"

	"smalikit/types"
)

// Fragment parses a sequence of method-body elements without any
// surrounding class or method. Empty or blank input yields an empty slice.
// Input that does not start a recognizable element is reported as an
// Incomplete error; an element that starts but is malformed keeps its own
// Lexical or Structural error.
func Fragment(src string) ([]types.Instruction, error) {
	s := &scanner{src: strings.ReplaceAll(src, "\r\n", "\n")}
	out := []types.Instruction{}
	for {
		s.skipBlank()
		if s.eof() {
			return out, nil
		}
		if !s.startsBodyElement() {
			return nil, s.errorf(types.Incomplete, "unparsed input starting at %q", s.token())
		}
		in, err := s.bodyElement()
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
}
