package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAccessFlag(t *testing.T) {
	f, ok := ParseAccessFlag("public")
	assert.True(t, ok)
	assert.Equal(t, AccPublic, f)

	f, ok = ParseAccessFlag("declared-synchronized")
	assert.True(t, ok)
	assert.Equal(t, AccDeclaredSynchronized, f)

	_, ok = ParseAccessFlag("publik")
	assert.False(t, ok)
}

func TestKeywordsByContext(t *testing.T) {
	f := AccPublic | AccStatic | AccFinal
	assert.Equal(t, "public static final", f.Format(FieldFlags))

	// 0x40 and 0x80 are spelled differently on fields and methods.
	assert.Equal(t, []string{"volatile", "transient"}, (AccVolatile | AccTransient).Keywords(FieldFlags))
	assert.Equal(t, []string{"bridge", "varargs"}, (AccBridge | AccVarargs).Keywords(MethodFlags))

	m := AccPublic | AccConstructor
	assert.Equal(t, "public constructor", m.Format(MethodFlags))
	assert.True(t, m.Has(AccConstructor))
	assert.False(t, m.Has(AccStatic))
}

func TestKeywordsNeverDropBits(t *testing.T) {
	// native has no class keyword; it still shows up.
	assert.Equal(t, []string{"public", "native"}, (AccPublic | AccNative).Keywords(ClassFlags))
	assert.Empty(t, AccessFlags(0).Keywords(MethodFlags))
}
