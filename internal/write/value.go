package write

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"smalikit/types"
)

// Value renders an encoded value. indent is the nesting level of the line
// the value starts on; arrays and sub-annotations continue below it.
func Value(v types.Value, indent int) string {
	switch x := v.(type) {
	case types.ByteValue:
		return Hex(int64(x)) + "t"
	case types.ShortValue:
		return Hex(int64(x)) + "s"
	case types.CharValue:
		return QuoteChar(uint16(x))
	case types.IntValue:
		return Hex(int64(x))
	case types.LongValue:
		return Hex(int64(x)) + "L"
	case types.FloatValue:
		return Float(float64(x), 32) + "f"
	case types.DoubleValue:
		return Float(float64(x), 64)
	case types.BoolValue:
		return strconv.FormatBool(bool(x))
	case types.StringValue:
		return Quote(string(x))
	case types.NullValue:
		return "null"
	case types.TypeValue:
		return x.Type.JNI()
	case types.FieldValue:
		return x.Field.String()
	case types.MethodValue:
		return x.Method.String()
	case types.EnumValue:
		return ".enum " + x.Field.String()
	case types.ArrayValue:
		if len(x) == 0 {
			return "{}"
		}
		var b strings.Builder
		b.WriteString("{\n")
		for i, e := range x {
			b.WriteString(strings.Repeat(indentUnit, indent+1))
			b.WriteString(Value(e, indent+1))
			if i < len(x)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(indentUnit, indent))
		b.WriteByte('}')
		return b.String()
	case types.SubAnnotationValue:
		p := &printer{}
		p.b.WriteString(".subannotation " + x.Type.JNIType() + "\n")
		p.elements(indent+1, x.Elements)
		p.b.WriteString(strings.Repeat(indentUnit, indent))
		p.b.WriteString(".end subannotation")
		return p.b.String()
	case types.MethodTypeValue:
		return x.Proto.JNI()
	case types.MethodHandleValue:
		return x.Raw
	default:
		panic(fmt.Sprintf("write: unhandled value %T", v))
	}
}

// Hex formats v as smali does: 0x1, -0x1.
func Hex(v int64) string {
	if v < 0 {
		return "-0x" + strconv.FormatUint(uint64(-v), 16)
	}
	return "0x" + strconv.FormatUint(uint64(v), 16)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

// Float formats a floating point literal so that it reads back as a float:
// it always carries a '.' or exponent, and spells out Infinity and NaN.
func Float(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Quote renders a string literal. Everything outside printable ASCII is
// written as \uXXXX UTF-16 escapes; lone surrogates held in WTF-8 come out
// as their own escape.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, u := range types.UTF16Units(s) {
		writeUnit(&b, u)
	}
	b.WriteByte('"')
	return b.String()
}

// QuoteChar renders a char literal.
func QuoteChar(u uint16) string {
	var b strings.Builder
	b.WriteByte('\'')
	writeUnit(&b, u)
	b.WriteByte('\'')
	return b.String()
}

func writeUnit(b *strings.Builder, u uint16) {
	switch u {
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\t':
		b.WriteString(`\t`)
	case '\\':
		b.WriteString(`\\`)
	case '"', '\'':
		b.WriteByte('\\')
		b.WriteByte(byte(u))
	default:
		if u < 0x20 || u >= 0x7f {
			fmt.Fprintf(b, `\u%04x`, u)
			return
		}
		b.WriteByte(byte(u))
	}
}
