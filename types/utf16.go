package types

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Dex strings are UTF-16 and may hold unpaired surrogates, which UTF-8
// cannot represent. StringValue and const-string payloads therefore carry
// them in WTF-8: a lone surrogate U+D800..U+DFFF is stored as its
// three-byte generalized UTF-8 form (0xED 0xA0..0xBF 0x80..0xBF).

// StringFromUTF16 converts UTF-16 code units to a Go string. Valid
// surrogate pairs become the supplementary rune; unpaired surrogates are
// kept in WTF-8 form.
func StringFromUTF16(units []uint16) string {
	var b strings.Builder
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		if utf16.IsSurrogate(u) {
			if u < 0xdc00 && i+1 < len(units) {
				if r := utf16.DecodeRune(u, rune(units[i+1])); r != utf8.RuneError {
					b.WriteRune(r)
					i++
					continue
				}
			}
			b.WriteByte(byte(0xe0 | u>>12))
			b.WriteByte(byte(0x80 | (u>>6)&0x3f))
			b.WriteByte(byte(0x80 | u&0x3f))
			continue
		}
		b.WriteRune(u)
	}
	return b.String()
}

// UTF16Units is the inverse of StringFromUTF16. Bytes that are neither
// UTF-8 nor an encoded surrogate become U+FFFD.
func UTF16Units(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		if u, ok := surrogateAt(s, i); ok {
			units = append(units, u)
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r > 0xffff {
			hi, lo := utf16.EncodeRune(r)
			units = append(units, uint16(hi), uint16(lo))
			continue
		}
		units = append(units, uint16(r))
	}
	return units
}

func surrogateAt(s string, i int) (uint16, bool) {
	if i+2 >= len(s) || s[i] != 0xed || s[i+1] < 0xa0 || s[i+1] > 0xbf || s[i+2] < 0x80 || s[i+2] > 0xbf {
		return 0, false
	}
	return 0xd000 | uint16(s[i+1]&0x3f)<<6 | uint16(s[i+2]&0x3f), true
}
