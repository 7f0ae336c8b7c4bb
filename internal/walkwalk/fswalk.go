// Package walkwalk provides a deterministic, filterable filesystem walker
// used to discover smali sources under a directory tree.
//
// The walk stops at the first I/O error (unreadable directory, vanished
// file) and returns it wrapped with the offending path. Results are sorted
// by relative path.
package walkwalk

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// FileInfo is a minimal, deterministic descriptor of a collected file.
type FileInfo struct {
	RelPath   string // root-relative path with forward slashes
	AbsPath   string // absolute filesystem path
	Size      int64  // size in bytes
	SHA256Hex string // lowercase hex sha256 of the file contents
	Ext       string // lowercase extension including dot (e.g., ".smali")
}

// Options filters a walk. The zero value collects every regular file.
type Options struct {
	Exts           map[string]struct{} // lowercase extensions with dot; empty means all
	Exclude        map[string]struct{} // base names (or base-name prefixes) to skip
	MaxFileBytes   int64               // skip files larger than this; 0 disables
	UseGitignore   bool                // honor <root>/.gitignore
	FollowSymlinks bool
	Hash           bool // fill SHA256Hex
}

// SmaliOptions is the default filter for smali discovery.
func SmaliOptions() Options {
	return Options{Exts: map[string]struct{}{".smali": {}}}
}

type walkState struct {
	opt      Options
	root     string
	patterns []gitPattern
	files    []FileInfo
}

// CollectFiles walks root and returns the files matching opt, sorted by
// RelPath. The first error encountered aborts the walk.
func CollectFiles(root string, opt Options) ([]FileInfo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}
	ws := &walkState{opt: opt, root: abs}
	if opt.UseGitignore {
		pats, err := parseGitignore(filepath.Join(abs, ".gitignore"))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read .gitignore: %w", err)
		}
		ws.patterns = pats
	}
	if err := filepath.WalkDir(abs, ws.visit); err != nil {
		return nil, err
	}
	sort.Slice(ws.files, func(i, j int) bool { return ws.files[i].RelPath < ws.files[j].RelPath })
	return ws.files, nil
}

func (ws *walkState) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return fmt.Errorf("walk %s: %w", path, err)
	}
	rel, ok := ws.relative(path)
	if !ok || rel == "." {
		return nil
	}
	if ws.shouldSkip(rel, d) {
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}
	if d.IsDir() {
		if !ws.opt.FollowSymlinks && isSymlink(d) {
			return filepath.SkipDir
		}
		return nil
	}
	return ws.handleFile(path, rel, d)
}

func (ws *walkState) relative(path string) (string, bool) {
	rel, err := filepath.Rel(ws.root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", false
	}
	return rel, true
}

func (ws *walkState) shouldSkip(rel string, d fs.DirEntry) bool {
	base := filepath.Base(rel)
	if _, bad := ws.opt.Exclude[base]; bad || hasExcludedPrefix(base, ws.opt.Exclude) {
		return true
	}
	return ws.opt.UseGitignore && matchGitignore(ws.patterns, rel, d.IsDir())
}

func (ws *walkState) handleFile(path, rel string, d fs.DirEntry) error {
	if isSymlink(d) {
		if !ws.opt.FollowSymlinks {
			return nil
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if len(ws.opt.Exts) > 0 {
		if _, ok := ws.opt.Exts[ext]; !ok {
			return nil
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	if ws.opt.MaxFileBytes > 0 && info.Size() > ws.opt.MaxFileBytes {
		return nil
	}
	fi := FileInfo{RelPath: rel, AbsPath: path, Size: info.Size(), Ext: ext}
	if ws.opt.Hash {
		if fi.SHA256Hex, err = sha256File(path); err != nil {
			return fmt.Errorf("hash %s: %w", path, err)
		}
	}
	ws.files = append(ws.files, fi)
	return nil
}

// isSymlink reports whether the DirEntry is a symlink (file or directory).
func isSymlink(d fs.DirEntry) bool {
	return d.Type()&fs.ModeSymlink != 0
}

// hasExcludedPrefix reports whether base begins with any of the exclude keys.
// This allows skipping "build*", "out*", etc., while still permitting exact-match
// excludes via the map membership check.
func hasExcludedPrefix(base string, exclude map[string]struct{}) bool {
	for k := range exclude {
		if k != "" && strings.HasPrefix(base, k) {
			return true
		}
	}
	return false
}

// sha256File computes a hex-encoded sha256 for the file at path.
func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes is the content hash used in FileInfo.SHA256Hex.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ---------------- .gitignore support ----------------

type gitPattern struct {
	neg     bool           // pattern starts with '!'
	dirOnly bool           // pattern ends with '/'
	rx      *regexp.Regexp // compiled matcher
}

// parseGitignore reads a .gitignore file and compiles patterns. Minimal support:
//   - '#' comments, blank lines ignored
//   - '!' negation
//   - leading '/' anchors to the walk root
//   - trailing '/' restricts to directories
//   - '**' matches across directories
//   - '*' and '?' behave like shell globs (not crossing '/')
func parseGitignore(path string) ([]gitPattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var res []gitPattern
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		neg := false
		if strings.HasPrefix(line, "!") {
			neg = true
			line = strings.TrimSpace(line[1:])
			if line == "" {
				continue
			}
		}
		dirOnly := strings.HasSuffix(line, "/")
		line = strings.TrimSuffix(line, "/")
		anchored := strings.HasPrefix(line, "/")
		line = strings.TrimPrefix(line, "/")
		res = append(res, gitPattern{neg: neg, dirOnly: dirOnly, rx: compileGitGlob(line, anchored)})
	}
	return res, s.Err()
}

func compileGitGlob(glob string, anchored bool) *regexp.Regexp {
	esc := regexp.QuoteMeta(glob)
	esc = strings.ReplaceAll(esc, `\*\*`, "__DOUBLESTAR__")
	esc = strings.ReplaceAll(esc, `\*`, "[^/]*")
	esc = strings.ReplaceAll(esc, `\?`, "[^/]")
	esc = strings.ReplaceAll(esc, "__DOUBLESTAR__", ".*")
	if anchored {
		return regexp.MustCompile("^" + esc + "$")
	}
	return regexp.MustCompile("(^|.*/)" + esc + "$")
}

func matchGitignore(pats []gitPattern, rel string, isDir bool) bool {
	ignored := false
	for _, p := range pats {
		if p.rx.MatchString(rel) {
			if p.dirOnly && !isDir {
				continue
			}
			ignored = !p.neg
		}
	}
	return ignored
}
