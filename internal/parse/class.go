package parse

import (
	"strings"

	"smalikit/types"
)

// Class parses a complete smali class. Header directives, annotations,
// fields and methods may appear in any order after .class; blank lines and
// # comments are allowed between any two units.
func Class(src string) (*types.SmaliClass, error) {
	s := &scanner{src: strings.ReplaceAll(src, "\r\n", "\n")}
	return s.class()
}

func (s *scanner) class() (*types.SmaliClass, error) {
	s.skipBlank()
	if d := s.peekDirective(); d != ".class" {
		if s.eof() {
			return nil, s.errorf(types.Structural, "empty input: expected .class directive")
		}
		return nil, s.errorf(types.Structural, "expected .class directive, found %q", s.token())
	}
	s.directive()
	c := &types.SmaliClass{Flags: s.flags()}
	s.skipSpace()
	name, err := s.classDesc()
	if err != nil {
		return nil, err
	}
	c.Name = name
	if err := s.expectLineEnd(); err != nil {
		return nil, err
	}

	for {
		s.skipBlank()
		if s.eof() {
			return c, nil
		}
		start := s.pos
		switch d := s.directive(); d {
		case ".super":
			if c.Super != nil {
				return nil, s.errorAt(start, types.Structural, "duplicate .super directive")
			}
			s.skipSpace()
			sup, err := s.classDesc()
			if err != nil {
				return nil, err
			}
			c.Super = &sup
		case ".implements":
			s.skipSpace()
			iface, err := s.classDesc()
			if err != nil {
				return nil, err
			}
			c.Implements = append(c.Implements, iface)
		case ".source":
			if c.Source != nil {
				return nil, s.errorAt(start, types.Structural, "duplicate .source directive")
			}
			s.skipSpace()
			src, err := s.stringLiteral()
			if err != nil {
				return nil, err
			}
			c.Source = &src
		case ".annotation":
			a, err := s.annotation(start)
			if err != nil {
				return nil, err
			}
			c.Annotations = append(c.Annotations, a)
			continue
		case ".field":
			f, extra, err := s.field()
			if err != nil {
				return nil, err
			}
			c.Fields = append(c.Fields, f)
			c.Annotations = append(c.Annotations, extra...)
			continue
		case ".method":
			m, err := s.method(start)
			if err != nil {
				return nil, err
			}
			c.Methods = append(c.Methods, m)
			continue
		case ".class":
			return nil, s.errorAt(start, types.Structural, "duplicate .class directive")
		case "":
			return nil, s.errorAt(start, types.Structural, "unexpected %q at class level", s.token())
		default:
			return nil, s.errorAt(start, types.Structural, "unexpected directive %s at class level", s.directiveText(start))
		}
		if err := s.expectLineEnd(); err != nil {
			return nil, err
		}
	}
}

// directiveText renders the directive at start for messages, joining
// ".end" with the word that follows it.
func (s *scanner) directiveText(start int) string {
	save := s.pos
	defer func() { s.pos = save }()
	s.pos = start
	d := s.directive()
	if d == ".end" || d == ".restart" {
		s.skipSpace()
		if w := s.word(""); w != "" {
			return d + " " + w
		}
	}
	return d
}

// flags consumes access-flag keywords.
func (s *scanner) flags() types.AccessFlags {
	var flags types.AccessFlags
	for {
		s.skipSpace()
		w := s.peekWord("")
		f, ok := types.ParseAccessFlag(w)
		if !ok {
			return flags
		}
		s.pos += len(w)
		flags |= f
	}
}

// field parses the remainder of a .field declaration. Annotations that
// follow it belong to the field only when closed by .end field; otherwise
// they are returned separately for the class.
func (s *scanner) field() (types.Field, []types.Annotation, error) {
	f := types.Field{Flags: s.flags()}
	s.skipSpace()
	namePos := s.pos
	f.Name = s.word(":")
	if f.Name == "" || s.peek() != ':' {
		return types.Field{}, nil, s.errorAt(namePos, types.Lexical, "expected field name:type, found %q", s.token())
	}
	s.pos++
	t, err := s.typeDesc()
	if err != nil {
		return types.Field{}, nil, err
	}
	f.Type = t
	s.skipSpace()
	if s.peek() == '=' {
		s.pos++
		s.skipSpace()
		v, err := s.value()
		if err != nil {
			return types.Field{}, nil, err
		}
		f.Initial = v
	}
	if err := s.expectLineEnd(); err != nil {
		return types.Field{}, nil, err
	}
	anns, closed, err := s.memberAnnotations("field")
	if err != nil {
		return types.Field{}, nil, err
	}
	if closed {
		f.Annotations = anns
		return f, nil, nil
	}
	return f, anns, nil
}

// memberAnnotations collects .annotation blocks and an optional
// ".end <closer>". Without the closer the cursor is left right after the
// last annotation.
func (s *scanner) memberAnnotations(closer string) ([]types.Annotation, bool, error) {
	var anns []types.Annotation
	for {
		save := s.pos
		s.skipBlank()
		start := s.pos
		switch s.directive() {
		case ".annotation":
			a, err := s.annotation(start)
			if err != nil {
				return nil, false, err
			}
			anns = append(anns, a)
			continue
		case ".end":
			s.skipSpace()
			if s.word("") == closer {
				if err := s.expectLineEnd(); err != nil {
					return nil, false, err
				}
				return anns, true, nil
			}
		}
		s.pos = save
		return anns, false, nil
	}
}

// isEnd consumes ".end <closer>" when it is next.
func (s *scanner) isEnd(closer string) bool {
	save := s.pos
	if s.directive() == ".end" {
		s.skipSpace()
		if s.word("") == closer {
			return true
		}
	}
	s.pos = save
	return false
}
