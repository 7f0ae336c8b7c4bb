package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeSignature(t *testing.T) {
	tests := []struct {
		in   string
		java string
		kind Kind
	}{
		{"V", "void", KindVoid},
		{"Z", "boolean", KindBool},
		{"J", "long", KindLong},
		{"Ljava/lang/String;", "java.lang.String", KindObject},
		{"[I", "int[]", KindArray},
		{"[[Ljava/lang/Object;", "java.lang.Object[][]", KindArray},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			ts, err := ParseTypeSignature(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, ts.Kind)
			assert.Equal(t, tc.java, ts.JavaType())
			assert.Equal(t, tc.in, ts.JNI())
		})
	}
}

func TestParseTypeSignatureErrors(t *testing.T) {
	for _, bad := range []string{
		"", "X", "[", "[V", "Lfoo", "L;", "II", "Ljava/lang/String;I",
		"Lfoo bar;", "L/a//b;", "La//b;", "La/;", "Lcom.foo.Bar;", "Lfoo\nLbar;",
	} {
		_, err := ParseTypeSignature(bad)
		assert.ErrorIs(t, err, ErrLexical, "%q", bad)
	}
}

func TestDecodeTypeStopsAtClassName(t *testing.T) {
	src := ".implements LFoo\n.implements LBar;\n"
	_, _, err := DecodeType(src[len(".implements "):])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLexical)
	assert.NotContains(t, err.Error(), "LBar", "message should quote only the offending line")

	ts, n, err := DecodeType("Lcom/foo/-$$Lambda$Bar;->run()V")
	require.NoError(t, err)
	assert.Equal(t, len("Lcom/foo/-$$Lambda$Bar;"), n)
	assert.Equal(t, "com.foo.-$$Lambda$Bar", ts.JavaType())

	ts, _, err = DecodeType("Lcom/\u00e9t\u00e9/Caf\u00e9;")
	require.NoError(t, err)
	assert.Equal(t, KindObject, ts.Kind)
}

func TestArrayDimensionLimit(t *testing.T) {
	ok := strings.Repeat("[", MaxArrayDimensions) + "I"
	ts, err := ParseTypeSignature(ok)
	require.NoError(t, err)
	assert.Equal(t, MaxArrayDimensions, ts.Dims)

	_, err = ParseTypeSignature("[" + ok)
	assert.ErrorIs(t, err, ErrLexical)
}

func TestArrayOfNonPositiveDims(t *testing.T) {
	assert.Equal(t, Int, ArrayOf(Int, 0))
	assert.Equal(t, Int, ArrayOf(Int, -3))
	arr := ArrayOf(Long, 2)
	assert.Equal(t, arr, ArrayOf(arr, 0))
	assert.Equal(t, "[[J", ArrayOf(arr, -1).JNI())
}

func TestArrayOfFlattens(t *testing.T) {
	inner := ArrayOf(Int, 1)
	outer := ArrayOf(inner, 2)
	assert.Equal(t, 3, outer.Dims)
	assert.Equal(t, KindInt, outer.Elem.Kind)
	assert.Equal(t, "[[[I", outer.JNI())

	parsed, err := ParseTypeSignature("[[[I")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(outer))
	assert.False(t, parsed.Equal(ArrayOf(Int, 2)))
}

func TestRegisterWidth(t *testing.T) {
	assert.Equal(t, 0, Void.RegisterWidth())
	assert.Equal(t, 2, Long.RegisterWidth())
	assert.Equal(t, 2, Double.RegisterWidth())
	assert.Equal(t, 1, ArrayOf(Long, 1).RegisterWidth())
	assert.Equal(t, 1, ObjectType(FromJavaType("a.B")).RegisterWidth())
	assert.True(t, Int.IsPrimitive())
	assert.False(t, Void.IsPrimitive())
}

func TestParseMethodSignature(t *testing.T) {
	m, err := ParseMethodSignature("(IJLjava/lang/String;[B)V")
	require.NoError(t, err)
	require.Len(t, m.Params, 4)
	assert.Equal(t, KindVoid, m.Return.Kind)
	assert.Equal(t, "(IJLjava/lang/String;[B)V", m.JNI())
	assert.Equal(t, 5, m.ParameterRegisters(true))
	assert.Equal(t, 6, m.ParameterRegisters(false))

	empty, err := ParseMethodSignature("()Ljava/lang/Object;")
	require.NoError(t, err)
	assert.Empty(t, empty.Params)
	assert.Equal(t, 1, empty.ParameterRegisters(false))

	other, err := ParseMethodSignature("(IJLjava/lang/String;[B)V")
	require.NoError(t, err)
	assert.True(t, m.Equal(other))
	assert.False(t, m.Equal(empty))
}

func TestParseMethodSignatureErrors(t *testing.T) {
	for _, bad := range []string{"", "I)V", "(I", "(I)", "(V)V", "(Q)V", "(I)VV", "(La b;)V", "(La;Lb)V"} {
		_, err := ParseMethodSignature(bad)
		assert.ErrorIs(t, err, ErrLexical, "%q", bad)
	}
}
