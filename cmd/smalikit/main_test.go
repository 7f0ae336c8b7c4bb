package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smalikit/internal/cache"
	"smalikit/internal/graph"
)

func TestParseFlagsBasic(t *testing.T) {
	args := []string{"-zip", "out.zip", "-jobs", "3", "-diff-context", "7", "-v", "."}
	cfg, err := parseFlags(args)
	if err != nil {
		t.Fatalf("parseFlags error: %v", err)
	}
	if cfg.zipOut != "out.zip" {
		t.Fatalf("zipOut got %q", cfg.zipOut)
	}
	if cfg.jobs != 3 {
		t.Fatalf("jobs got %d", cfg.jobs)
	}
	if cfg.diffContext != 7 {
		t.Fatalf("diffContext got %d", cfg.diffContext)
	}
	if cfg.logLevel != "debug" {
		t.Fatalf("-v should force debug, got %q", cfg.logLevel)
	}
	if cfg.srcDir != "." {
		t.Fatalf("srcDir got %q", cfg.srcDir)
	}
}

func TestParseFlagsMissingSrcDir(t *testing.T) {
	args := []string{"-zip", "out.zip"}
	if _, err := parseFlags(args); err == nil {
		t.Fatalf("expected error for missing <src_dir>")
	}
}

func TestParseFlagsExtWithSpaces(t *testing.T) {
	args := []string{"-check", "-ext", ".smali, .SMALI , ", "."}
	cfg, err := parseFlags(args)
	if err != nil {
		t.Fatalf("parseFlags with spaced -ext error: %v", err)
	}
	if !reflect.DeepEqual(cfg.exts, []string{".smali", ".SMALI"}) {
		t.Fatalf("exts got %v", cfg.exts)
	}
	if _, ok := walkOptions(cfg).Exts[".smali"]; !ok {
		t.Fatalf("walk options should lowercase extensions")
	}
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	if _, err := parseFlags([]string{"-nope", "."}); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestParseFlagsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smalikit.yaml")
	yaml := "ext: [.smali, .txt]\njobs: 2\ncacheDir: cache\nuseGitignore: false\nlogLevel: warn\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := parseFlags([]string{"-config", path, "-jobs", "5", "-check", "."})
	require.NoError(t, err)
	assert.Equal(t, []string{".smali", ".txt"}, cfg.exts)
	assert.Equal(t, 5, cfg.jobs, "explicit flag wins over the file")
	assert.Equal(t, "cache", cfg.cacheDir)
	assert.False(t, cfg.useGitignore)
	assert.Equal(t, "warn", cfg.logLevel)
}

func TestSelectMode(t *testing.T) {
	if m, _ := selectMode(Config{check: true}); m != "check" {
		t.Fatalf("mode=%s", m)
	}
	if m, _ := selectMode(Config{roundtrip: true}); m != "roundtrip" {
		t.Fatalf("mode=%s", m)
	}
	if m, _ := selectMode(Config{graphOut: "g.json"}); m != "graph" {
		t.Fatalf("mode=%s", m)
	}
	if m, _ := selectMode(Config{indexOut: "-"}); m != "index" {
		t.Fatalf("mode=%s", m)
	}
	if m, _ := selectMode(Config{zipOut: "a"}); m != "zip" {
		t.Fatalf("mode=%s", m)
	}
	if _, err := selectMode(Config{zipOut: "a", check: true}); err == nil {
		t.Fatalf("expected error on conflicting modes")
	}
}

func TestSelectModeNoMode(t *testing.T) {
	if _, err := selectMode(Config{}); err == nil {
		t.Fatalf("expected error when no mode is selected")
	}
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV(""))
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a,,b ,"))
}

const baseSmali = `.class public Lcom/basic/Base;
.super Ljava/lang/Object;

.method public constructor <init>()V
    .registers 1
    invoke-direct {p0}, Ljava/lang/Object;-><init>()V
    return-void
.end method
`

const childSmali = `.class public Lcom/basic/Child;
.super Lcom/basic/Base;

.field private count:I

.method public constructor <init>()V
    .registers 2
    invoke-direct {p0}, Lcom/basic/Base;-><init>()V
    const/4 v0, 0x1
    iput v0, p0, Lcom/basic/Child;->count:I
    return-void
.end method
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUsageError(t *testing.T) {
	code, _, stderr := runCLI(t, "-check")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "ERROR:")
	assert.Contains(t, stderr, "Usage:")
}

func TestRunCheckIncremental(t *testing.T) {
	src := writeTree(t, map[string]string{
		"com/basic/Base.smali":  baseSmali,
		"com/basic/Child.smali": childSmali,
		"notes.txt":             "ignored",
	})
	cacheDir := t.TempDir()

	code, out, _ := runCLI(t, "-check", "-cache-dir", cacheDir, src)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Checked 2 files (parsed=2, cached=0, failed=0)")

	code, out, _ = runCLI(t, "-check", "-cache-dir", cacheDir, src)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Checked 2 files (parsed=0, cached=2, failed=0)")

	broken := filepath.Join(src, "com", "basic", "Child.smali")
	require.NoError(t, os.WriteFile(broken, []byte(strings.Replace(childSmali, ".end method\n", "", 1)), 0o644))
	code, out, _ = runCLI(t, "-check", "-cache-dir", cacheDir, src)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "FAIL com/basic/Child.smali")
	assert.Contains(t, out, "Checked 2 files (parsed=1, cached=1, failed=1)")

	abs, err := filepath.Abs(src)
	require.NoError(t, err)
	snap, err := cache.Load(cache.CacheDir(cacheDir, abs))
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Files, 2)
	assert.True(t, snap.Files[0].OK())
	assert.Equal(t, "com.basic.Base", snap.Files[0].Class)
	assert.False(t, snap.Files[1].OK())

	// Failed files are parsed again even when unchanged.
	code, out, _ = runCLI(t, "-check", "-cache-dir", cacheDir, src)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "parsed=1, cached=1")

	code, out, _ = runCLI(t, "-check", "-new", "-cache-dir", cacheDir, src)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "parsed=2, cached=0")
}

func TestRunRoundtrip(t *testing.T) {
	src := writeTree(t, map[string]string{
		"Base.smali":  baseSmali,
		"Child.smali": childSmali,
	})
	code, out, _ := runCLI(t, "-roundtrip", "-diff", src)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Round-tripped 2 files")
	assert.Contains(t, out, "failed=0")
	assert.Contains(t, out, "+++ Base.smali (canonical)")
}

func TestRunGraph(t *testing.T) {
	src := writeTree(t, map[string]string{
		"Base.smali":  baseSmali,
		"Child.smali": childSmali,
	})
	code, out, _ := runCLI(t, "-graph", "-", src)
	require.Equal(t, 0, code, out)

	var g graph.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, []string{"com.basic.Base", "com.basic.Child"}, g.Defined)
	assert.Contains(t, g.Edges, graph.Edge{From: "com.basic.Child", To: "com.basic.Base", Kind: graph.Extends})
	assert.Equal(t, []string{"com.basic.Child"}, g.Dependents("com.basic.Base"))
}

func TestRunIndex(t *testing.T) {
	src := writeTree(t, map[string]string{"a/Base.smali": baseSmali})
	out := filepath.Join(t.TempDir(), "index.json")
	code, stdout, _ := runCLI(t, "-index", out, src)
	require.Equal(t, 0, code, stdout)
	assert.Contains(t, stdout, "Wrote index")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var snap cache.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "a/Base.smali", snap.Files[0].Path)
	assert.Equal(t, 1, snap.Files[0].Methods)
	assert.Len(t, snap.Files[0].Hash, 64)
}

func TestRunZip(t *testing.T) {
	// File locations do not matter; entries follow the class names.
	src := writeTree(t, map[string]string{
		"x/Base.smali":  baseSmali,
		"y/Child.smali": childSmali,
	})
	out := filepath.Join(t.TempDir(), "out.zip")
	code, stdout, _ := runCLI(t, "-zip", out, src)
	require.Equal(t, 0, code, stdout)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"manifest.json", "com/basic/Base.smali", "com/basic/Child.smali"}, names)

	first, err := os.ReadFile(out)
	require.NoError(t, err)
	code, _, _ = runCLI(t, "-zip", out, src)
	require.Equal(t, 0, code)
	second, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, first, second, "zip output is reproducible")
}

func TestRunZipApktoolProject(t *testing.T) {
	root := writeTree(t, map[string]string{
		"apktool.yml":                "!!brut.androlib.meta.MetaInfo\napkFileName: app.apk\nsdkInfo:\n  minSdkVersion: '21'\n",
		"smali/com/basic/Base.smali": baseSmali,
	})
	out := filepath.Join(t.TempDir(), "out.zip")
	code, stdout, _ := runCLI(t, "-zip", out, filepath.Join(root, "smali"))
	require.Equal(t, 0, code, stdout)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	var man zipManifest
	require.NoError(t, json.NewDecoder(rc).Decode(&man))
	require.NotNil(t, man.Project)
	assert.Equal(t, "apktool", man.Project.Tool)
	assert.Equal(t, "app.apk", man.Project.ApkFile)
	assert.Equal(t, []string{"smali"}, man.Project.SmaliDirs)
	assert.Equal(t, []string{"com.basic.Base"}, man.Classes)
}
