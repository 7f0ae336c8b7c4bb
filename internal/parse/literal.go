package parse

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"smalikit/types"
)

// register reads v<N> or p<N>.
func (s *scanner) register() (types.Register, error) {
	start := s.pos
	c := s.peek()
	if c != 'v' && c != 'p' {
		return types.Register{}, s.errorf(types.Lexical, "expected register, found %q", s.token())
	}
	s.pos++
	digits := s.pos
	for !s.eof() && isDigit(s.peek()) {
		s.pos++
	}
	if digits == s.pos {
		s.pos = start
		return types.Register{}, s.errorf(types.Lexical, "expected register, found %q", s.token())
	}
	n, err := strconv.ParseUint(s.src[digits:s.pos], 10, 16)
	if err != nil {
		return types.Register{}, s.errorAt(start, types.Lexical, "register %q out of range", s.src[start:s.pos])
	}
	return types.Register{Kind: types.RegisterKind(c), Num: uint16(n)}, nil
}

// labelRef reads :name.
func (s *scanner) labelRef() (string, error) {
	if s.peek() != ':' {
		return "", s.errorf(types.Lexical, "expected label, found %q", s.token())
	}
	s.pos++
	name := s.word(",}#.")
	if name == "" {
		return "", s.errorf(types.Lexical, "empty label name")
	}
	return name, nil
}

// typeDesc decodes one type descriptor at the cursor.
func (s *scanner) typeDesc() (types.TypeSignature, error) {
	start := s.pos
	t, n, err := types.DecodeType(s.rest())
	if err != nil {
		return types.TypeSignature{}, s.relocate(start, err)
	}
	s.pos += n
	return t, nil
}

// classDesc decodes a descriptor that must name a class.
func (s *scanner) classDesc() (types.ObjectIdentifier, error) {
	start := s.pos
	t, err := s.typeDesc()
	if err != nil {
		return types.ObjectIdentifier{}, err
	}
	if t.Kind != types.KindObject {
		return types.ObjectIdentifier{}, s.errorAt(start, types.Lexical, "expected class descriptor, found %q", t.JNI())
	}
	return t.Class, nil
}

// protoDesc decodes a method prototype at the cursor.
func (s *scanner) protoDesc() (types.MethodSignature, error) {
	start := s.pos
	m, n, err := types.DecodeMethodSignature(s.rest())
	if err != nil {
		return types.MethodSignature{}, s.relocate(start, err)
	}
	s.pos += n
	return m, nil
}

// memberRef reads Lowner;->name followed by either :Type (field) or a
// prototype (method). Exactly one of the results is set.
func (s *scanner) memberRef() (*types.FieldRef, *types.MethodRef, error) {
	owner, err := s.typeDesc()
	if err != nil {
		return nil, nil, err
	}
	if err := s.expect("->"); err != nil {
		return nil, nil, err
	}
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if c == ':' || c == '(' || isSpace(c) || c == ',' {
			break
		}
		s.pos++
	}
	name := s.src[start:s.pos]
	if name == "" {
		return nil, nil, s.errorf(types.Lexical, "expected member name after '->'")
	}
	switch s.peek() {
	case ':':
		s.pos++
		t, err := s.typeDesc()
		if err != nil {
			return nil, nil, err
		}
		return &types.FieldRef{Owner: owner, Name: name, Type: t}, nil, nil
	case '(':
		proto, err := s.protoDesc()
		if err != nil {
			return nil, nil, err
		}
		return nil, &types.MethodRef{Owner: owner, Name: name, Signature: proto}, nil
	}
	return nil, nil, s.errorf(types.Lexical, "expected ':' or '(' after member name %q", name)
}

func (s *scanner) fieldRef() (types.FieldRef, error) {
	start := s.pos
	f, m, err := s.memberRef()
	if err != nil {
		return types.FieldRef{}, err
	}
	if f == nil {
		return types.FieldRef{}, s.errorAt(start, types.Lexical, "expected field reference, found method %s", m)
	}
	return *f, nil
}

func (s *scanner) methodRef() (types.MethodRef, error) {
	start := s.pos
	f, m, err := s.memberRef()
	if err != nil {
		return types.MethodRef{}, err
	}
	if m == nil {
		return types.MethodRef{}, s.errorAt(start, types.Lexical, "expected method reference, found field %s", f)
	}
	return *m, nil
}

// literalToken consumes a numeric literal token.
func (s *scanner) literalToken() string {
	return s.word(",}#")
}

// intLiteral is a parsed integer literal with its optional width suffix
// (t, s or L; 0 when absent).
type intLiteral struct {
	value  int64
	suffix byte
	hex    bool
}

func parseIntLiteral(tok string) (intLiteral, bool) {
	if tok == "" {
		return intLiteral{}, false
	}
	var lit intLiteral
	switch last := tok[len(tok)-1]; last {
	case 't', 'T', 's', 'S', 'l', 'L':
		lit.suffix = last | 0x20 // lower-case
		tok = tok[:len(tok)-1]
	}
	neg := false
	switch {
	case strings.HasPrefix(tok, "-"):
		neg = true
		tok = tok[1:]
	case strings.HasPrefix(tok, "+"):
		tok = tok[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X"):
		base = 16
		tok = tok[2:]
		lit.hex = true
	case len(tok) > 1 && tok[0] == '0':
		base = 8
		tok = tok[1:]
	}
	if tok == "" {
		return intLiteral{}, false
	}
	mag, err := strconv.ParseUint(tok, base, 64)
	if err != nil {
		return intLiteral{}, false
	}
	if neg {
		lit.value = -int64(mag)
	} else {
		lit.value = int64(mag)
	}
	return lit, true
}

// narrow folds an unsigned hex spelling into the signed range of the given
// bit width (0xffffffff as an int is -1), as smali's literal tools do.
func narrow(lit intLiteral, bits uint) int64 {
	if !lit.hex || bits >= 64 {
		return lit.value
	}
	if lit.value >= 1<<(bits-1) && lit.value < 1<<bits {
		return lit.value - 1<<bits
	}
	return lit.value
}

// parseFloatLiteral accepts decimal/exponent forms and Infinity/NaN, with an
// optional f/F or d/D suffix. isFloat reports an f suffix.
func parseFloatLiteral(tok string) (v float64, isFloat bool, ok bool) {
	if tok == "" {
		return 0, false, false
	}
	switch tok[len(tok)-1] {
	case 'f', 'F':
		isFloat = true
		tok = tok[:len(tok)-1]
	case 'd', 'D':
		tok = tok[:len(tok)-1]
	}
	switch strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "+") {
	case "Infinity":
		if strings.HasPrefix(tok, "-") {
			return math.Inf(-1), isFloat, true
		}
		return math.Inf(1), isFloat, true
	case "NaN":
		return math.NaN(), isFloat, true
	}
	bits := 64
	if isFloat {
		bits = 32
	}
	f, err := strconv.ParseFloat(tok, bits)
	if err != nil {
		return 0, false, false
	}
	return f, isFloat, true
}

// looksFloat reports whether a token is spelled as a floating point literal.
func looksFloat(tok string) bool {
	t := strings.TrimPrefix(strings.TrimPrefix(tok, "-"), "+")
	if strings.HasPrefix(t, "Infinity") || strings.HasPrefix(t, "NaN") {
		return true
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		return false
	}
	if strings.ContainsAny(t, ".eE") {
		return true
	}
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case 'f', 'F', 'd', 'D':
		return true
	}
	return false
}

// literal64 parses an integer or floating literal into raw bits of the given
// width (1, 2, 4 or 8 bytes), as used by const and .array-data.
func (s *scanner) literal64(widthBytes int) (int64, error) {
	start := s.pos
	tok := s.literalToken()
	if looksFloat(tok) {
		f, _, ok := parseFloatLiteral(tok)
		if !ok {
			return 0, s.errorAt(start, types.Lexical, "malformed literal %q", tok)
		}
		if widthBytes == 8 {
			return int64(math.Float64bits(f)), nil
		}
		return int64(int32(math.Float32bits(float32(f)))), nil
	}
	lit, ok := parseIntLiteral(tok)
	if !ok {
		return 0, s.errorAt(start, types.Lexical, "malformed literal %q", tok)
	}
	return narrow(lit, uint(widthBytes*8)), nil
}

// stringLiteral reads a double-quoted string and decodes its escapes.
func (s *scanner) stringLiteral() (string, error) {
	if s.peek() != '"' {
		return "", s.errorf(types.Lexical, "expected string literal, found %q", s.token())
	}
	start := s.pos
	s.pos++
	var b strings.Builder
	var pending []uint16
	flush := func() {
		if len(pending) > 0 {
			b.WriteString(types.StringFromUTF16(pending))
			pending = pending[:0]
		}
	}
	for {
		if s.eof() || s.peek() == '\n' {
			return "", s.errorAt(start, types.Lexical, "unterminated string literal")
		}
		c := s.peek()
		if c == '"' {
			s.pos++
			flush()
			return b.String(), nil
		}
		if c != '\\' {
			flush()
			_, size := utf8.DecodeRuneInString(s.rest())
			b.WriteString(s.rest()[:size])
			s.pos += size
			continue
		}
		u, err := s.escape()
		if err != nil {
			return "", err
		}
		pending = append(pending, u)
	}
}

// charLiteral reads a single-quoted char.
func (s *scanner) charLiteral() (uint16, error) {
	if s.peek() != '\'' {
		return 0, s.errorf(types.Lexical, "expected char literal, found %q", s.token())
	}
	start := s.pos
	s.pos++
	var u uint16
	switch c := s.peek(); {
	case c == '\\':
		e, err := s.escape()
		if err != nil {
			return 0, err
		}
		u = e
	case s.eof() || c == '\n' || c == '\'':
		return 0, s.errorAt(start, types.Lexical, "malformed char literal")
	default:
		r, size := utf8.DecodeRuneInString(s.rest())
		if r > 0xffff {
			return 0, s.errorAt(start, types.Lexical, "char literal %q outside the basic plane", r)
		}
		u = uint16(r)
		s.pos += size
	}
	if s.peek() != '\'' {
		return 0, s.errorAt(start, types.Lexical, "unterminated char literal")
	}
	s.pos++
	return u, nil
}

// escape decodes one backslash escape into a UTF-16 code unit.
func (s *scanner) escape() (uint16, error) {
	start := s.pos
	s.pos++ // backslash
	c := s.peek()
	s.pos++
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case '0':
		return 0, nil
	case '"', '\'', '\\':
		return uint16(c), nil
	case 'u':
		if s.pos+4 > len(s.src) {
			return 0, s.errorAt(start, types.Lexical, "truncated \\u escape")
		}
		v, err := strconv.ParseUint(s.src[s.pos:s.pos+4], 16, 16)
		if err != nil {
			return 0, s.errorAt(start, types.Lexical, "malformed \\u escape %q", s.src[start:s.pos+4])
		}
		s.pos += 4
		return uint16(v), nil
	}
	return 0, s.errorAt(start, types.Lexical, "unknown escape \\%c", c)
}
