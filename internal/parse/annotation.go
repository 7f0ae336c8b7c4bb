package parse

import (
	"math"
	"strings"

	"smalikit/types"
)

// annotation parses the remainder of an .annotation block; the directive
// itself has been consumed and start is its offset.
func (s *scanner) annotation(start int) (types.Annotation, error) {
	s.skipSpace()
	visPos := s.pos
	vis, ok := types.ParseVisibility(s.word(""))
	if !ok {
		return types.Annotation{}, s.errorAt(visPos, types.Lexical, "expected annotation visibility (build, runtime, system), found %q", s.src[visPos:s.pos])
	}
	s.skipSpace()
	typ, err := s.classDesc()
	if err != nil {
		return types.Annotation{}, err
	}
	if err := s.expectLineEnd(); err != nil {
		return types.Annotation{}, err
	}
	elems, err := s.annotationElements(start, ".annotation", "annotation", true)
	if err != nil {
		return types.Annotation{}, err
	}
	return types.Annotation{Visibility: vis, Type: typ, Elements: elems}, nil
}

// annotationElements reads name = value lines up to ".end <closer>". When
// lineEnd is set the closing directive must end its line.
func (s *scanner) annotationElements(start int, opener, closer string, lineEnd bool) ([]types.AnnotationElement, error) {
	var elems []types.AnnotationElement
	for {
		s.skipBlank()
		if s.eof() {
			return nil, s.errorAt(start, types.Structural, "unterminated %s: missing .end %s", opener, closer)
		}
		if s.peek() == '.' {
			dpos := s.pos
			if d := s.directive(); d != ".end" {
				return nil, s.errorAt(dpos, types.Structural, "unexpected directive %s inside %s", d, opener)
			}
			s.skipSpace()
			if w := s.word(",}"); w != closer {
				return nil, s.errorAt(dpos, types.Structural, "unexpected .end %s inside %s", w, opener)
			}
			if lineEnd {
				if err := s.expectLineEnd(); err != nil {
					return nil, err
				}
			}
			return elems, nil
		}
		namePos := s.pos
		name := s.word("=")
		if name == "" {
			return nil, s.errorAt(namePos, types.Lexical, "expected annotation element name, found %q", s.token())
		}
		s.skipSpace()
		if err := s.expect("="); err != nil {
			return nil, err
		}
		s.skipSpace()
		v, err := s.value()
		if err != nil {
			return nil, err
		}
		if err := s.expectLineEnd(); err != nil {
			return nil, err
		}
		elems = append(elems, types.AnnotationElement{Name: name, Value: v})
	}
}

// value parses one encoded value. Arrays and sub-annotations may span lines.
func (s *scanner) value() (types.Value, error) {
	start := s.pos
	switch c := s.peek(); {
	case c == '{':
		return s.arrayValue()
	case c == '"':
		str, err := s.stringLiteral()
		return types.StringValue(str), err
	case c == '\'':
		ch, err := s.charLiteral()
		return types.CharValue(ch), err
	case c == '(':
		proto, err := s.protoDesc()
		return types.MethodTypeValue{Proto: proto}, err
	case c == '.':
		switch d := s.directive(); d {
		case ".subannotation":
			return s.subAnnotation(start)
		case ".enum":
			s.skipSpace()
			f, err := s.fieldRef()
			return types.EnumValue{Field: f}, err
		default:
			return nil, s.errorAt(start, types.Structural, "unexpected directive %s in value position", d)
		}
	case c == 'L' || c == '[':
		return s.typeOrMemberValue()
	}

	tok := s.peekWord(",}#")
	switch tok {
	case "true":
		s.pos += len(tok)
		return types.BoolValue(true), nil
	case "false":
		s.pos += len(tok)
		return types.BoolValue(false), nil
	case "null":
		s.pos += len(tok)
		return types.NullValue{}, nil
	}
	if len(tok) == 1 && strings.IndexByte("VZBCSIJFD", tok[0]) >= 0 {
		t, err := s.typeDesc()
		return types.TypeValue{Type: t}, err
	}
	if strings.Contains(tok, "@") {
		s.pos += len(tok)
		return types.MethodHandleValue{Raw: tok}, nil
	}
	return s.numberValue()
}

func (s *scanner) typeOrMemberValue() (types.Value, error) {
	save := s.pos
	t, err := s.typeDesc()
	if err != nil {
		return nil, err
	}
	if !s.hasPrefix("->") {
		return types.TypeValue{Type: t}, nil
	}
	s.pos = save
	f, m, err := s.memberRef()
	if err != nil {
		return nil, err
	}
	if f != nil {
		return types.FieldValue{Field: *f}, nil
	}
	return types.MethodValue{Method: *m}, nil
}

func (s *scanner) arrayValue() (types.Value, error) {
	start := s.pos
	s.pos++ // {
	arr := types.ArrayValue{}
	s.skipBlank()
	if s.peek() == '}' {
		s.pos++
		return arr, nil
	}
	for {
		s.skipBlank()
		if s.eof() {
			return nil, s.errorAt(start, types.Structural, "unterminated array value: missing '}'")
		}
		v, err := s.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
		s.skipBlank()
		switch s.peek() {
		case ',':
			s.pos++
		case '}':
			s.pos++
			return arr, nil
		default:
			if s.eof() {
				return nil, s.errorAt(start, types.Structural, "unterminated array value: missing '}'")
			}
			return nil, s.errorf(types.Lexical, "expected ',' or '}' in array value, found %q", s.token())
		}
	}
}

func (s *scanner) subAnnotation(start int) (types.Value, error) {
	s.skipSpace()
	typ, err := s.classDesc()
	if err != nil {
		return nil, err
	}
	if err := s.expectLineEnd(); err != nil {
		return nil, err
	}
	elems, err := s.annotationElements(start, ".subannotation", "subannotation", false)
	if err != nil {
		return nil, err
	}
	return types.SubAnnotationValue{Type: typ, Elements: elems}, nil
}

// numberValue parses a numeric literal honoring smali's width suffixes.
func (s *scanner) numberValue() (types.Value, error) {
	start := s.pos
	tok := s.literalToken()
	if tok == "" {
		return nil, s.errorAt(start, types.Lexical, "expected value, found %q", s.token())
	}
	if looksFloat(tok) {
		f, isFloat, ok := parseFloatLiteral(tok)
		if !ok {
			return nil, s.errorAt(start, types.Lexical, "malformed floating point literal %q", tok)
		}
		if isFloat {
			return types.FloatValue(float32(f)), nil
		}
		return types.DoubleValue(f), nil
	}
	lit, ok := parseIntLiteral(tok)
	if !ok {
		return nil, s.errorAt(start, types.Lexical, "malformed literal %q", tok)
	}
	switch lit.suffix {
	case 't':
		v := narrow(lit, 8)
		if v < math.MinInt8 || v > math.MaxInt8 {
			return nil, s.errorAt(start, types.Lexical, "byte literal %q out of range", tok)
		}
		return types.ByteValue(int8(v)), nil
	case 's':
		v := narrow(lit, 16)
		if v < math.MinInt16 || v > math.MaxInt16 {
			return nil, s.errorAt(start, types.Lexical, "short literal %q out of range", tok)
		}
		return types.ShortValue(int16(v)), nil
	case 'l':
		return types.LongValue(lit.value), nil
	}
	v := narrow(lit, 32)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, s.errorAt(start, types.Lexical, "int literal %q out of range", tok)
	}
	return types.IntValue(int32(v)), nil
}
