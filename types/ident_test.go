package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectIdentifierForms(t *testing.T) {
	java := FromJavaType("com.basic.Test")
	jni := FromJNIType("Lcom/basic/Test;")
	assert.Equal(t, java, jni)
	assert.Equal(t, "com.basic.Test", jni.JavaType())
	assert.Equal(t, "Lcom/basic/Test;", java.JNIType())
	assert.Equal(t, "com/basic/Test", java.InternalName())
	assert.Equal(t, "Test", java.SimpleName())
	assert.Equal(t, "com.basic", java.Package())

	top := FromJavaType("Main")
	assert.Equal(t, "Main", top.SimpleName())
	assert.Equal(t, "", top.Package())
	assert.True(t, ObjectIdentifier{}.IsZero())
}

func TestFromJNITypeIsLenient(t *testing.T) {
	assert.Equal(t, "com.basic.Test", FromJNIType("com/basic/Test").JavaType())
	assert.Equal(t, "Inner$1", FromJNIType("LInner$1;").JavaType())
}

func TestParseJNIType(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Lcom/basic/Test;", "com.basic.Test", true},
		{"LA;", "A", true},
		{"Lcom/a$b;", "com.a$b", true},
		{"com/basic/Test", "", false},
		{"L;", "", false},
		{"Lcom//Test;", "", false},
		{"Lcom.basic.Test;", "", false},
		{"Lcom/basic/Test", "", false},
		{"Lcom/foo/-$$Lambda$Bar;", "com.foo.-$$Lambda$Bar", true},
		{"Lcom/\u00e9/\u4e2d;", "com.\u00e9.\u4e2d", true},
		{"La b;", "", false},
		{"La\u2028b;", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			id, err := ParseJNIType(tc.in)
			if !tc.ok {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrLexical))
				var pe *ParseError
				require.True(t, errors.As(err, &pe))
				assert.Zero(t, pe.Line)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id.JavaType())
		})
	}
}

func TestParseJavaType(t *testing.T) {
	id, err := ParseJavaType("java.lang.String")
	require.NoError(t, err)
	assert.Equal(t, "Ljava/lang/String;", id.JNIType())

	for _, bad := range []string{"", "java..lang", "java/lang/String", "a.b c"} {
		_, err := ParseJavaType(bad)
		assert.ErrorIs(t, err, ErrLexical, bad)
	}
}
