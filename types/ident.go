// Package types holds the in-memory model of a smali class: identifiers,
// type and method signatures, access flags, annotations, instructions and
// the class/field/method aggregate.
//
// Conventions:
//   - Class names are stored once, in slashed (JNI internal) form, and
//     rendered to either dotted Java form or the L...; descriptor on demand.
//   - Closed families (type kinds, instruction shapes, encoded values) are
//     sealed interfaces or enums; the writer switches over them exhaustively.
//   - Nothing in this package performs I/O or logging.
package types

import (
	"strings"
	"unicode/utf8"
)

// ObjectIdentifier is a fully-qualified class name. The zero value is the
// empty name and is not a valid identifier.
type ObjectIdentifier struct {
	internal string // com/basic/Test
}

// FromJavaType builds an identifier from dotted Java notation
// ("com.basic.Test"). The input is accepted verbatim; use ParseJavaType
// when the name must be validated.
func FromJavaType(s string) ObjectIdentifier {
	return ObjectIdentifier{internal: strings.ReplaceAll(s, ".", "/")}
}

// FromJNIType builds an identifier from a class descriptor
// ("Lcom/basic/Test;"). A missing L prefix or ; suffix is tolerated; use
// ParseJNIType when the descriptor must be validated.
func FromJNIType(s string) ObjectIdentifier {
	s = strings.TrimPrefix(s, "L")
	s = strings.TrimSuffix(s, ";")
	return ObjectIdentifier{internal: s}
}

// ParseJavaType is the validating form of FromJavaType.
func ParseJavaType(s string) (ObjectIdentifier, error) {
	if strings.Contains(s, "/") {
		return ObjectIdentifier{}, lexicalf("invalid java class name %q: unexpected '/'", s)
	}
	if err := checkSegments(s, '.'); err != nil {
		return ObjectIdentifier{}, err
	}
	return FromJavaType(s), nil
}

// ParseJNIType is the validating form of FromJNIType: s must be exactly
// L<segment>(/<segment>)*; .
func ParseJNIType(s string) (ObjectIdentifier, error) {
	if len(s) < 3 || s[0] != 'L' || s[len(s)-1] != ';' {
		return ObjectIdentifier{}, lexicalf("invalid class descriptor %q: expected L<name>;", s)
	}
	inner := s[1 : len(s)-1]
	if strings.ContainsAny(inner, ".;") {
		return ObjectIdentifier{}, lexicalf("invalid class descriptor %q: unexpected '.' or ';'", s)
	}
	if err := checkSegments(inner, '/'); err != nil {
		return ObjectIdentifier{}, err
	}
	return ObjectIdentifier{internal: inner}, nil
}

func checkSegments(name string, sep rune) error {
	if name == "" {
		return lexicalf("empty class name")
	}
	for _, seg := range strings.Split(name, string(sep)) {
		if seg == "" {
			return lexicalf("invalid class name %q: empty segment", name)
		}
		for _, r := range seg {
			if !isNameRune(r) {
				return lexicalf("invalid class name %q: unexpected %q", name, r)
			}
		}
	}
	return nil
}

// isNameRune follows the dex SimpleName alphabet.
func isNameRune(r rune) bool {
	switch {
	case r < utf8.RuneSelf:
		return r == '_' || r == '$' || r == '-' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9'
	case r >= 0xa1 && r <= 0x1fff, r >= 0x2010 && r <= 0x2027, r >= 0x2030 && r <= 0xd7ff,
		r >= 0xe000 && r <= 0xffef, r >= 0x10000 && r <= 0x10ffff:
		return true
	}
	return false
}

// JavaType renders the dotted form, e.g. "com.basic.Test".
func (o ObjectIdentifier) JavaType() string {
	return strings.ReplaceAll(o.internal, "/", ".")
}

// JNIType renders the descriptor form, e.g. "Lcom/basic/Test;".
func (o ObjectIdentifier) JNIType() string {
	return "L" + o.internal + ";"
}

// InternalName is the slashed name without the descriptor wrapper.
func (o ObjectIdentifier) InternalName() string { return o.internal }

// SimpleName is the last segment ("Test").
func (o ObjectIdentifier) SimpleName() string {
	if i := strings.LastIndexByte(o.internal, '/'); i >= 0 {
		return o.internal[i+1:]
	}
	return o.internal
}

// Package is the dotted package ("com.basic"), empty for the default package.
func (o ObjectIdentifier) Package() string {
	if i := strings.LastIndexByte(o.internal, '/'); i >= 0 {
		return strings.ReplaceAll(o.internal[:i], "/", ".")
	}
	return ""
}

// IsZero reports whether o is the empty identifier.
func (o ObjectIdentifier) IsZero() bool { return o.internal == "" }

func (o ObjectIdentifier) String() string { return o.JavaType() }
