package smalikit

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smalikit/internal/ziputil"
	"smalikit/types"
)

func TestReadClassFromFile(t *testing.T) {
	c, err := ReadClassFromFile("testdata/tree/com/basic/Test.smali")
	require.NoError(t, err)
	assert.Equal(t, "com.basic.Test", c.Name.JavaType())
	assert.Equal(t, "com/basic/Test.smali", ClassPath(c))
}

func TestReadClassFromFileErrors(t *testing.T) {
	_, err := ReadClassFromFile("testdata/nope.smali")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var pe *ParseError
	assert.False(t, errors.As(err, &pe), "read failures are not parse errors")

	_, err = ReadClassFromFile("testdata/broken.smali")
	require.Error(t, err)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.Structural, pe.Kind)
	assert.ErrorIs(t, err, ErrStructural)
	assert.NotErrorIs(t, err, ErrLexical)
	assert.Contains(t, err.Error(), "testdata/broken.smali: line ")
}

func TestDiscoverClasses(t *testing.T) {
	classes, err := DiscoverClasses("testdata/tree")
	require.NoError(t, err)
	var names []string
	for _, c := range classes {
		names = append(names, c.Name.JavaType())
	}
	assert.Equal(t, []string{"com.basic.Kind", "com.basic.Test", "sub.Helper"}, names)

	_, err = DiscoverClasses("testdata")
	require.Error(t, err, "broken.smali aborts discovery")
	assert.ErrorIs(t, err, ErrStructural)

	_, err = DiscoverClasses("testdata/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWriteClassToFileRoundTrip(t *testing.T) {
	orig, err := ReadClassFromFile("testdata/tree/com/basic/Test.smali")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out", ClassPath(orig))
	require.NoError(t, WriteClassToFile(orig, out))
	back, err := ReadClassFromFile(out)
	require.NoError(t, err)
	assert.Equal(t, orig, back)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, RenderClass(orig), string(data))
}

func TestDiscoverClassesInZip(t *testing.T) {
	classes, err := DiscoverClasses("testdata/tree")
	require.NoError(t, err)
	entries := make([]ziputil.Entry, 0, len(classes)+1)
	for _, c := range classes {
		entries = append(entries, ziputil.Entry{Name: ClassPath(c), Data: []byte(RenderClass(c))})
	}
	entries = append(entries, ziputil.Entry{Name: "README.txt", Data: []byte("not smali")})

	path := filepath.Join(t.TempDir(), "classes.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, ziputil.WriteFiles(f, entries, nil))
	require.NoError(t, f.Close())

	got, err := DiscoverClassesInZip(path)
	require.NoError(t, err)
	assert.Equal(t, classes, got)

	broken, err := os.ReadFile("testdata/broken.smali")
	require.NoError(t, err)
	bad := filepath.Join(t.TempDir(), "bad.zip")
	f, err = os.Create(bad)
	require.NoError(t, err)
	require.NoError(t, ziputil.WriteFiles(f, []ziputil.Entry{{Name: "Broken.smali", Data: broken}}, nil))
	require.NoError(t, f.Close())
	_, err = DiscoverClassesInZip(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.zip!Broken.smali")
	assert.ErrorIs(t, err, ErrStructural)
}

func TestFragmentRoundTrip(t *testing.T) {
	text := "const/4 v0, 0x1\n:l\nif-eqz v0, :l\n.line 3\nreturn v0\n"
	body, err := ParseFragment(text)
	require.NoError(t, err)
	require.Len(t, body, 5)

	back, err := ParseFragment(RenderFragment(body))
	require.NoError(t, err)
	assert.Equal(t, body, back)

	empty, err := ParseFragment("  \n# nothing\n")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = ParseFragment("return-void\n.end method\n")
	assert.ErrorIs(t, err, ErrIncomplete)
}
