package parse

import (
	"smalikit/types"
)

// method parses a .method block up to and including .end method. start is
// the offset of the .method directive.
func (s *scanner) method(start int) (types.Method, error) {
	m := types.Method{Flags: s.flags()}
	s.skipSpace()
	namePos := s.pos
	for !s.eof() && s.peek() != '(' && !isSpace(s.peek()) {
		s.pos++
	}
	m.Name = s.src[namePos:s.pos]
	if m.Name == "" || s.peek() != '(' {
		return types.Method{}, s.errorAt(namePos, types.Lexical, "expected method name and prototype, found %q", s.src[namePos:s.pos])
	}
	proto, err := s.protoDesc()
	if err != nil {
		return types.Method{}, err
	}
	m.Signature = proto
	if err := s.expectLineEnd(); err != nil {
		return types.Method{}, err
	}

	for {
		s.skipBlank()
		if s.eof() {
			return types.Method{}, s.errorAt(start, types.Structural, "unterminated .method %s: missing .end method", m.Name)
		}
		if s.isEnd("method") {
			if err := s.expectLineEnd(); err != nil {
				return types.Method{}, err
			}
			return m, nil
		}
		dpos := s.pos
		switch d := s.peekDirective(); d {
		case ".registers", ".locals":
			s.directive()
			if m.Directive != types.NoRegisters {
				return types.Method{}, s.errorAt(dpos, types.Structural, "duplicate register directive %s", d)
			}
			n, err := s.registerCount()
			if err != nil {
				return types.Method{}, err
			}
			m.Directive = types.RegistersDirective
			if d == ".locals" {
				m.Directive = types.LocalsDirective
			}
			m.Count = n
			if err := s.expectLineEnd(); err != nil {
				return types.Method{}, err
			}
		case ".param":
			s.directive()
			p, extra, err := s.param()
			if err != nil {
				return types.Method{}, err
			}
			m.Params = append(m.Params, p)
			m.Annotations = append(m.Annotations, extra...)
		case ".annotation":
			s.directive()
			a, err := s.annotation(dpos)
			if err != nil {
				return types.Method{}, err
			}
			m.Annotations = append(m.Annotations, a)
		case ".method", ".field", ".class", ".super", ".implements", ".source":
			return types.Method{}, s.errorAt(start, types.Structural, "unterminated .method %s: found %s before .end method", m.Name, d)
		default:
			in, err := s.bodyElement()
			if err != nil {
				return types.Method{}, err
			}
			m.Body = append(m.Body, in)
		}
	}
}

func (s *scanner) registerCount() (int, error) {
	s.skipSpace()
	start := s.pos
	tok := s.literalToken()
	lit, ok := parseIntLiteral(tok)
	if !ok || lit.suffix != 0 || lit.value < 0 || lit.value > 0xffff {
		return 0, s.errorAt(start, types.Lexical, "invalid register count %q", tok)
	}
	return int(lit.value), nil
}

// param parses the remainder of a .param directive. As with fields, the
// annotations that follow belong to the parameter only when closed by
// .end param.
func (s *scanner) param() (types.Parameter, []types.Annotation, error) {
	s.skipSpace()
	reg, err := s.register()
	if err != nil {
		return types.Parameter{}, nil, err
	}
	p := types.Parameter{Register: reg}
	s.skipSpace()
	if s.peek() == ',' {
		s.pos++
		s.skipSpace()
		name, err := s.stringLiteral()
		if err != nil {
			return types.Parameter{}, nil, err
		}
		p.Name = &name
	}
	if err := s.expectLineEnd(); err != nil {
		return types.Parameter{}, nil, err
	}
	anns, closed, err := s.memberAnnotations("param")
	if err != nil {
		return types.Parameter{}, nil, err
	}
	if closed {
		p.Annotations = anns
		return p, nil, nil
	}
	return p, anns, nil
}

// bodyDirectives are the directives that start a body element.
var bodyDirectives = map[string]bool{
	".line":          true,
	".prologue":      true,
	".epilogue":      true,
	".catch":         true,
	".catchall":      true,
	".local":         true,
	".end":           true,
	".restart":       true,
	".packed-switch": true,
	".sparse-switch": true,
	".array-data":    true,
}

// startsBodyElement reports whether the cursor is on something bodyElement
// recognizes: a label, a body directive or a known mnemonic.
func (s *scanner) startsBodyElement() bool {
	switch s.peek() {
	case ':':
		return true
	case '.':
		d := s.peekDirective()
		if d == ".end" || d == ".restart" {
			save := s.pos
			s.directive()
			s.skipSpace()
			w := s.word("")
			s.pos = save
			return w == "local"
		}
		return bodyDirectives[d]
	}
	_, ok := types.LookupOpcode(s.peekWord(""))
	return ok
}

// bodyElement parses one label, debug directive, try/catch directive,
// payload or instruction, including its line end.
func (s *scanner) bodyElement() (types.Instruction, error) {
	start := s.pos
	if s.peek() == ':' {
		name, err := s.labelRef()
		if err != nil {
			return nil, err
		}
		return types.Label{Name: name}, s.expectLineEnd()
	}
	if s.peek() != '.' {
		in, err := s.instruction()
		if err != nil {
			return nil, err
		}
		return in, s.expectLineEnd()
	}

	var in types.Instruction
	var err error
	switch d := s.directive(); d {
	case ".line":
		s.skipSpace()
		tok := s.literalToken()
		lit, ok := parseIntLiteral(tok)
		if !ok || lit.suffix != 0 || lit.value < 0 || lit.value > 1<<31-1 {
			return nil, s.errorAt(start, types.Lexical, "invalid line number %q", tok)
		}
		in = types.LineNumber{Line: int(lit.value)}
	case ".prologue":
		in = types.Prologue{}
	case ".epilogue":
		in = types.Epilogue{}
	case ".catch":
		s.skipSpace()
		var exc types.ObjectIdentifier
		if exc, err = s.classDesc(); err != nil {
			return nil, err
		}
		c, err := s.catchTail()
		if err != nil {
			return nil, err
		}
		c.Exception = &exc
		in = c
	case ".catchall":
		if in, err = s.catchTail(); err != nil {
			return nil, err
		}
	case ".local":
		if in, err = s.localStart(); err != nil {
			return nil, err
		}
	case ".end", ".restart":
		s.skipSpace()
		if w := s.word(""); w != "local" {
			return nil, s.errorAt(start, types.Structural, "unexpected %s %s in method body", d, w)
		}
		s.skipSpace()
		reg, err := s.register()
		if err != nil {
			return nil, err
		}
		if d == ".end" {
			in = types.LocalEnd{Register: reg}
		} else {
			in = types.LocalRestart{Register: reg}
		}
	case ".packed-switch":
		return s.packedSwitch(start)
	case ".sparse-switch":
		return s.sparseSwitch(start)
	case ".array-data":
		return s.arrayData(start)
	case "":
		return nil, s.errorAt(start, types.Lexical, "unexpected %q in method body", s.token())
	default:
		return nil, s.errorAt(start, types.Structural, "unexpected directive %s in method body", d)
	}
	return in, s.expectLineEnd()
}

// catchTail reads "{:start .. :end} :handler".
func (s *scanner) catchTail() (types.Catch, error) {
	var c types.Catch
	s.skipSpace()
	if err := s.expect("{"); err != nil {
		return c, err
	}
	s.skipSpace()
	var err error
	if c.Start, err = s.labelRef(); err != nil {
		return c, err
	}
	s.skipSpace()
	if err := s.expect(".."); err != nil {
		return c, err
	}
	s.skipSpace()
	if c.End, err = s.labelRef(); err != nil {
		return c, err
	}
	s.skipSpace()
	if err := s.expect("}"); err != nil {
		return c, err
	}
	s.skipSpace()
	if c.Handler, err = s.labelRef(); err != nil {
		return c, err
	}
	return c, nil
}

// localStart reads `vN[, "name"|null:Type[, "signature"]]`.
func (s *scanner) localStart() (types.LocalStart, error) {
	s.skipSpace()
	reg, err := s.register()
	if err != nil {
		return types.LocalStart{}, err
	}
	l := types.LocalStart{Register: reg}
	s.skipSpace()
	if s.peek() != ',' {
		return l, nil
	}
	s.pos++
	s.skipSpace()
	if s.hasPrefix("null") {
		s.pos += len("null")
	} else {
		name, err := s.stringLiteral()
		if err != nil {
			return types.LocalStart{}, err
		}
		l.Name = &name
	}
	if err := s.expect(":"); err != nil {
		return types.LocalStart{}, err
	}
	t, err := s.typeDesc()
	if err != nil {
		return types.LocalStart{}, err
	}
	l.Type = &t
	s.skipSpace()
	if s.peek() == ',' {
		s.pos++
		s.skipSpace()
		sig, err := s.stringLiteral()
		if err != nil {
			return types.LocalStart{}, err
		}
		l.Signature = &sig
	}
	return l, nil
}

// payloadLine positions the cursor on the next payload entry, reporting
// done once the closing directive has been consumed.
func (s *scanner) payloadLine(start int, closer string) (done bool, err error) {
	s.skipBlank()
	if s.eof() {
		return false, s.errorAt(start, types.Structural, "unterminated .%s: missing .end %s", closer, closer)
	}
	if s.isEnd(closer) {
		return true, s.expectLineEnd()
	}
	if s.peek() == '.' {
		return false, s.errorf(types.Structural, "unexpected directive %s inside .%s", s.peekDirective(), closer)
	}
	return false, nil
}

func (s *scanner) packedSwitch(start int) (types.Instruction, error) {
	s.skipSpace()
	keyPos := s.pos
	key, err := s.literal64(4)
	if err != nil {
		return nil, err
	}
	if !types.LitInt.Fits(key) {
		return nil, s.errorAt(keyPos, types.Lexical, "packed-switch first key %d out of range", key)
	}
	if err := s.expectLineEnd(); err != nil {
		return nil, err
	}
	p := types.PackedSwitchPayload{FirstKey: int32(key), Targets: []string{}}
	for {
		done, err := s.payloadLine(start, "packed-switch")
		if err != nil {
			return nil, err
		}
		if done {
			return p, nil
		}
		target, err := s.labelRef()
		if err != nil {
			return nil, err
		}
		if err := s.expectLineEnd(); err != nil {
			return nil, err
		}
		p.Targets = append(p.Targets, target)
	}
}

func (s *scanner) sparseSwitch(start int) (types.Instruction, error) {
	if err := s.expectLineEnd(); err != nil {
		return nil, err
	}
	p := types.SparseSwitchPayload{Entries: []types.SwitchEntry{}}
	for {
		done, err := s.payloadLine(start, "sparse-switch")
		if err != nil {
			return nil, err
		}
		if done {
			return p, nil
		}
		keyPos := s.pos
		key, err := s.literal64(4)
		if err != nil {
			return nil, err
		}
		if !types.LitInt.Fits(key) {
			return nil, s.errorAt(keyPos, types.Lexical, "sparse-switch key %d out of range", key)
		}
		s.skipSpace()
		if err := s.expect("->"); err != nil {
			return nil, err
		}
		s.skipSpace()
		target, err := s.labelRef()
		if err != nil {
			return nil, err
		}
		if err := s.expectLineEnd(); err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, types.SwitchEntry{Key: int32(key), Target: target})
	}
}

var arrayElementWidth = map[int64]types.LiteralWidth{1: types.LitByte, 2: types.LitShort, 4: types.LitInt, 8: types.LitLong}

func (s *scanner) arrayData(start int) (types.Instruction, error) {
	s.skipSpace()
	wPos := s.pos
	tok := s.literalToken()
	lit, ok := parseIntLiteral(tok)
	if !ok {
		return nil, s.errorAt(wPos, types.Lexical, "invalid array-data element width %q", tok)
	}
	width := lit.value
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, s.errorAt(wPos, types.Lexical, "array-data element width %d is not 1, 2, 4 or 8", width)
	}
	if err := s.expectLineEnd(); err != nil {
		return nil, err
	}
	elem := arrayElementWidth[width]
	p := types.ArrayDataPayload{ElementWidth: int(width), Values: []int64{}}
	for {
		done, err := s.payloadLine(start, "array-data")
		if err != nil {
			return nil, err
		}
		if done {
			return p, nil
		}
		for !s.atLineEnd() {
			vPos := s.pos
			v, err := s.literal64(int(width))
			if err != nil {
				return nil, err
			}
			if !elem.Fits(v) {
				return nil, s.errorAt(vPos, types.Lexical, "array-data element %s does not fit in %d bytes", s.src[vPos:s.pos], width)
			}
			p.Values = append(p.Values, v)
			s.skipSpace()
		}
		if err := s.expectLineEnd(); err != nil {
			return nil, err
		}
	}
}
