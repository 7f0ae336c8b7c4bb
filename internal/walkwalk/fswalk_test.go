package walkwalk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func rels(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestCollectFilesFilters(t *testing.T) {
	root := writeTree(t, map[string]string{
		"com/a/A.smali":     ".class LA;\n",
		"com/a/B.SMALI":     ".class LB;\n",
		"com/a/notes.txt":   "x",
		".git/HEAD.smali":   "x",
		"build-out/C.smali": "x",
		"big/Big.smali":     string(make([]byte, 100)),
	})
	opt := SmaliOptions()
	opt.Exclude = map[string]struct{}{".git": {}, "build": {}}
	opt.MaxFileBytes = 50
	opt.Hash = true

	files, err := CollectFiles(root, opt)
	require.NoError(t, err)
	assert.Equal(t, []string{"com/a/A.smali", "com/a/B.SMALI"}, rels(files))
	assert.Equal(t, ".smali", files[1].Ext)
	assert.Equal(t, HashBytes([]byte(".class LA;\n")), files[0].SHA256Hex)
	assert.Equal(t, int64(11), files[0].Size)
	assert.True(t, filepath.IsAbs(files[0].AbsPath))
}

func TestCollectFilesNoHash(t *testing.T) {
	root := writeTree(t, map[string]string{"A.smali": "x"})
	files, err := CollectFiles(root, SmaliOptions())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Empty(t, files[0].SHA256Hex)
}

func TestCollectFilesGitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":         "# generated\ngen/\n*.tmp.smali\n/Top.smali\n!keep.tmp.smali\n",
		"gen/G.smali":        "x",
		"a/X.tmp.smali":      "x",
		"a/keep.tmp.smali":   "x",
		"Top.smali":          "x",
		"a/Top.smali":        "x",
		"a/gen":              "x",
		"a/deep/gen/Z.smali": "x",
	})
	opt := SmaliOptions()
	opt.Exts = nil
	opt.UseGitignore = true
	files, err := CollectFiles(root, opt)
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore", "a/Top.smali", "a/gen", "a/keep.tmp.smali"}, rels(files))

	opt.UseGitignore = false
	files, err = CollectFiles(root, opt)
	require.NoError(t, err)
	assert.Len(t, files, 8)
}

func TestCollectFilesErrors(t *testing.T) {
	root := writeTree(t, map[string]string{"A.smali": "x"})
	_, err := CollectFiles(filepath.Join(root, "A.smali"), SmaliOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")

	_, err = CollectFiles(filepath.Join(root, "missing"), SmaliOptions())
	assert.True(t, os.IsNotExist(err))
}
