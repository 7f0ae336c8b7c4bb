package types

import (
	"strings"
	"unicode/utf8"
)

// Kind enumerates the TypeSignature variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindObject
	KindArray
)

// MaxArrayDimensions is the deepest array a Dalvik descriptor may express.
const MaxArrayDimensions = 255

var primitiveDescriptors = [...]struct {
	kind Kind
	jni  byte
	java string
}{
	{KindVoid, 'V', "void"},
	{KindBool, 'Z', "boolean"},
	{KindByte, 'B', "byte"},
	{KindChar, 'C', "char"},
	{KindShort, 'S', "short"},
	{KindInt, 'I', "int"},
	{KindLong, 'J', "long"},
	{KindFloat, 'F', "float"},
	{KindDouble, 'D', "double"},
}

// TypeSignature is one JNI type: a primitive, void, a class, or an array.
//
// Arrays are flat: Elem is never itself an array and Dims is always >= 1.
// Use ArrayOf to build them so nested arrays collapse into Dims.
type TypeSignature struct {
	Kind  Kind
	Class ObjectIdentifier // KindObject only
	Elem  *TypeSignature   // KindArray only
	Dims  int              // KindArray only
}

var (
	Void   = TypeSignature{Kind: KindVoid}
	Bool   = TypeSignature{Kind: KindBool}
	Byte   = TypeSignature{Kind: KindByte}
	Char   = TypeSignature{Kind: KindChar}
	Short  = TypeSignature{Kind: KindShort}
	Int    = TypeSignature{Kind: KindInt}
	Long   = TypeSignature{Kind: KindLong}
	Float  = TypeSignature{Kind: KindFloat}
	Double = TypeSignature{Kind: KindDouble}
)

// ObjectType wraps a class identifier.
func ObjectType(id ObjectIdentifier) TypeSignature {
	return TypeSignature{Kind: KindObject, Class: id}
}

// ArrayOf returns elem with dims more array dimensions. A dims of zero or
// less returns elem unchanged.
func ArrayOf(elem TypeSignature, dims int) TypeSignature {
	if dims <= 0 {
		return elem
	}
	if elem.Kind == KindArray {
		return ArrayOf(*elem.Elem, elem.Dims+dims)
	}
	e := elem
	return TypeSignature{Kind: KindArray, Elem: &e, Dims: dims}
}

// JNI encodes t as a descriptor: V Z B C S I J F D, L...; or [-prefixed.
func (t TypeSignature) JNI() string {
	switch t.Kind {
	case KindObject:
		return t.Class.JNIType()
	case KindArray:
		return strings.Repeat("[", t.Dims) + t.Elem.JNI()
	}
	for _, p := range primitiveDescriptors {
		if p.kind == t.Kind {
			return string(p.jni)
		}
	}
	return ""
}

// JavaType renders t the way Java source spells it ("int[][]",
// "java.lang.String").
func (t TypeSignature) JavaType() string {
	switch t.Kind {
	case KindObject:
		return t.Class.JavaType()
	case KindArray:
		return t.Elem.JavaType() + strings.Repeat("[]", t.Dims)
	}
	for _, p := range primitiveDescriptors {
		if p.kind == t.Kind {
			return p.java
		}
	}
	return ""
}

func (t TypeSignature) String() string { return t.JNI() }

// Equal compares two signatures structurally.
func (t TypeSignature) Equal(o TypeSignature) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindObject:
		return t.Class == o.Class
	case KindArray:
		return t.Dims == o.Dims && t.Elem.Equal(*o.Elem)
	}
	return true
}

// IsWide reports whether a value of this type occupies a register pair.
func (t TypeSignature) IsWide() bool {
	return t.Kind == KindLong || t.Kind == KindDouble
}

// IsPrimitive is true for everything except objects, arrays and void.
func (t TypeSignature) IsPrimitive() bool {
	return t.Kind >= KindBool && t.Kind <= KindDouble
}

// RegisterWidth is the number of registers a value of this type occupies.
func (t TypeSignature) RegisterWidth() int {
	switch {
	case t.Kind == KindVoid:
		return 0
	case t.IsWide():
		return 2
	}
	return 1
}

// ParseTypeSignature decodes exactly one descriptor; trailing characters are
// an error.
func ParseTypeSignature(s string) (TypeSignature, error) {
	t, n, err := DecodeType(s)
	if err != nil {
		return TypeSignature{}, err
	}
	if n != len(s) {
		return TypeSignature{}, lexicalf("invalid type descriptor %q: trailing %q", s, s[n:])
	}
	return t, nil
}

// DecodeType decodes the single descriptor at the start of s and reports how
// many bytes it consumed.
func DecodeType(s string) (TypeSignature, int, error) {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	if dims > MaxArrayDimensions {
		return TypeSignature{}, 0, lexicalf("invalid type descriptor %q: more than %d array dimensions", clip(s), MaxArrayDimensions)
	}
	if dims == len(s) {
		return TypeSignature{}, 0, lexicalf("invalid type descriptor %q: missing element type", clip(s))
	}
	var (
		elem TypeSignature
		n    int
	)
	switch c := s[dims]; c {
	case 'L':
		end := dims + 1
		for end < len(s) && isDescriptorByte(s[end]) {
			end++
		}
		switch {
		case end == len(s):
			return TypeSignature{}, 0, lexicalf("invalid type descriptor %q: unterminated class descriptor", clip(s))
		case s[end] != ';':
			return TypeSignature{}, 0, lexicalf("invalid type descriptor %q: unexpected %q in class name", clip(s), s[end])
		}
		name := s[dims+1 : end]
		if err := checkSegments(name, '/'); err != nil {
			return TypeSignature{}, 0, lexicalf("invalid type descriptor %q: %s", clip(s), err.(*ParseError).Msg)
		}
		elem = ObjectType(ObjectIdentifier{internal: name})
		n = end + 1
	default:
		k := primitiveKind(c)
		if k == KindInvalid {
			return TypeSignature{}, 0, lexicalf("invalid type descriptor %q: unexpected %q", clip(s), c)
		}
		if k == KindVoid && dims > 0 {
			return TypeSignature{}, 0, lexicalf("invalid type descriptor %q: array of void", clip(s))
		}
		elem = TypeSignature{Kind: k}
		n = dims + 1
	}
	if dims > 0 {
		return ArrayOf(elem, dims), n, nil
	}
	return elem, n, nil
}

// isDescriptorByte reports whether b may appear between L and ; of a class
// descriptor. Multi-byte UTF-8 is checked rune by rune in checkSegments.
func isDescriptorByte(b byte) bool {
	return b == '/' || b >= utf8.RuneSelf || isNameRune(rune(b))
}

// clip shortens s to its first line for error messages; decoders are handed
// the rest of a whole source file.
func clip(s string) string {
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		s = s[:i]
	}
	if len(s) > 64 {
		s = s[:64] + "..."
	}
	return s
}

func primitiveKind(c byte) Kind {
	for _, p := range primitiveDescriptors {
		if p.jni == c {
			return p.kind
		}
	}
	return KindInvalid
}

// MethodSignature is a method prototype: ordered parameters and a return type.
type MethodSignature struct {
	Params []TypeSignature
	Return TypeSignature
}

// JNI renders "(<params>)<return>".
func (m MethodSignature) JNI() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Params {
		b.WriteString(p.JNI())
	}
	b.WriteByte(')')
	b.WriteString(m.Return.JNI())
	return b.String()
}

func (m MethodSignature) String() string { return m.JNI() }

// Equal compares parameter lists positionally and the return type.
func (m MethodSignature) Equal(o MethodSignature) bool {
	if len(m.Params) != len(o.Params) || !m.Return.Equal(o.Return) {
		return false
	}
	for i := range m.Params {
		if !m.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

// ParameterRegisters counts the registers the arguments occupy, including
// the implicit receiver of non-static methods.
func (m MethodSignature) ParameterRegisters(static bool) int {
	n := 0
	if !static {
		n = 1
	}
	for _, p := range m.Params {
		n += p.RegisterWidth()
	}
	return n
}

// ParseMethodSignature decodes "(<params>)<return>".
func ParseMethodSignature(s string) (MethodSignature, error) {
	m, n, err := DecodeMethodSignature(s)
	if err != nil {
		return MethodSignature{}, err
	}
	if n != len(s) {
		return MethodSignature{}, lexicalf("invalid method descriptor %q: trailing %q", s, s[n:])
	}
	return m, nil
}

// DecodeMethodSignature decodes the prototype at the start of s and reports
// how many bytes it consumed.
func DecodeMethodSignature(s string) (MethodSignature, int, error) {
	if s == "" || s[0] != '(' {
		return MethodSignature{}, 0, lexicalf("invalid method descriptor %q: expected '('", clip(s))
	}
	var m MethodSignature
	pos := 1
	for {
		if pos >= len(s) {
			return MethodSignature{}, 0, lexicalf("invalid method descriptor %q: unterminated parameter list", clip(s))
		}
		if s[pos] == ')' {
			pos++
			break
		}
		t, n, err := DecodeType(s[pos:])
		if err != nil {
			return MethodSignature{}, 0, lexicalf("invalid method descriptor %q: %s", clip(s), err.(*ParseError).Msg)
		}
		if t.Kind == KindVoid {
			return MethodSignature{}, 0, lexicalf("invalid method descriptor %q: void parameter", clip(s))
		}
		m.Params = append(m.Params, t)
		pos += n
	}
	if pos >= len(s) {
		return MethodSignature{}, 0, lexicalf("invalid method descriptor %q: missing return type", clip(s))
	}
	ret, n, err := DecodeType(s[pos:])
	if err != nil {
		return MethodSignature{}, 0, lexicalf("invalid method descriptor %q: %s", clip(s), err.(*ParseError).Msg)
	}
	m.Return = ret
	return m, pos + n, nil
}
