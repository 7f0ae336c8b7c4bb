// Package ziputil writes and reads the archives of rendered smali trees.
// Written archives are byte-for-byte reproducible: entries are sorted, names
// sanitized and timestamps fixed.
package ziputil

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FixedZipTime ensures byte-for-byte reproducible archives (1980-01-01 UTC).
var FixedZipTime = time.Unix(315532800, 0).UTC()

// Entry is one file of an archive.
type Entry struct {
	Name string
	Data []byte
}

// SanitizePath normalizes ZIP entry paths (forward slashes, no drive, no leading '/'),
// and removes '.' and '..' segments without escaping the root.
func SanitizePath(p string) string {
	s := filepath.ToSlash(p)
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	s = strings.TrimLeft(s, "/")
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		if part == ".." {
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
			continue
		}
		stack = append(stack, part)
	}
	s = strings.Join(stack, "/")
	if s == "" {
		return "entry"
	}
	return s
}

// EnsureUniqueName returns a unique name by appending -1, -2, ... when needed.
func EnsureUniqueName(name string, used map[string]struct{}) string {
	if _, ok := used[name]; !ok {
		used[name] = struct{}{}
		return name
	}
	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}
	for n := 1; ; n++ {
		alt := fmt.Sprintf("%s-%d%s", base, n, ext)
		if _, ok := used[alt]; !ok {
			used[alt] = struct{}{}
			return alt
		}
	}
}

// WriteFiles writes entries sorted by sanitized name. Names that collide
// after sanitizing get a numeric suffix. manifest, when non-nil, is stored
// first as manifest.json.
func WriteFiles(w io.Writer, entries []Entry, manifest any) error {
	zw := zip.NewWriter(w)
	used := map[string]struct{}{}
	if manifest != nil {
		used["manifest.json"] = struct{}{}
		if err := WriteJSON(zw, "manifest.json", manifest); err != nil {
			zw.Close()
			return err
		}
	}
	sorted := make([]Entry, len(entries))
	for i, e := range entries {
		sorted[i] = Entry{Name: SanitizePath(e.Name), Data: e.Data}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, e := range sorted {
		if err := WriteFile(zw, EnsureUniqueName(e.Name, used), e.Data); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

// WriteJSON writes a JSON-encoded value with fixed timestamp and mode.
func WriteJSON(zw *zip.Writer, name string, v any) error {
	w, err := create(zw, name)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteFile writes a file entry with fixed timestamp.
func WriteFile(zw *zip.Writer, name string, data []byte) error {
	w, err := create(zw, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func create(zw *zip.Writer, name string) (io.Writer, error) {
	h := &zip.FileHeader{Name: SanitizePath(name), Method: zip.Deflate}
	h.SetMode(0o644)
	h.Modified = FixedZipTime
	w, err := zw.CreateHeader(h)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return w, nil
}

// ReadFiles returns the regular entries of the archive at path whose
// lowercase extension is ext (all entries when ext is empty), sorted by name.
func ReadFiles(path, ext string) ([]Entry, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()
	var out []Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if ext != "" && strings.ToLower(filepath.Ext(f.Name)) != ext {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, Entry{Name: f.Name, Data: data})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	return data, nil
}
