// Package cache provides the snapshot and delta logic behind incremental
// checking of smali trees.
//
// It offers:
//   - Stable per-tree cache directory derivation (PathKey, CacheDir)
//   - Snapshot load/save with atomic writes (Load, Save)
//   - Delta computation between snapshots (BuildDelta, Stale)
//
// Conventions:
//   - The cache root defaults to "tmp/.smalikit" unless overridden by the caller.
//   - A per-tree cache lives at: <baseTmp>/<pathKey>/
//   - The snapshot is stored at: <baseTmp>/<pathKey>/index.json
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultCacheRoot = "tmp/.smalikit"
	indexFileName    = "index.json"

	// FormatVersion is written into every saved snapshot.
	FormatVersion = "1"
)

// PathKey returns a short, stable identifier for an absolute tree path.
// We use sha256(absPath) and keep the first 12 hex chars to avoid collisions.
func PathKey(abs string) string {
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])[:12]
}

// CacheDir resolves the cache directory for the given absolute source path.
// If baseTmp is empty, it falls back to the default "tmp/.smalikit".
func CacheDir(baseTmp, srcAbs string) string {
	root := baseTmp
	if root == "" {
		root = defaultCacheRoot
	}
	return filepath.Join(root, PathKey(srcAbs))
}

// Load reads the snapshot from <dir>/index.json.
// If the file does not exist, it returns (nil, nil) so callers can treat it
// as "no previous snapshot" without branching on errors. A snapshot written
// with another FormatVersion is ignored the same way.
func Load(dir string) (*Snapshot, error) {
	path := filepath.Join(dir, indexFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if s.FormatVersion != FormatVersion {
		return nil, nil
	}
	return &s, nil
}

// Save writes the snapshot atomically to <dir>/index.json.
// The write is performed into a temporary file within the same directory,
// then renamed to ensure readers never observe a partially-written file.
func Save(dir string, s *Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if s.FormatVersion == "" {
		s.FormatVersion = FormatVersion
	}
	tmp, f, err := createTempFile(dir, indexFileName)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp) // best-effort cleanup
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, indexFileName))
}

// Clear removes the entire cache directory for the tree.
// Safe to call even if the directory does not exist.
func Clear(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.RemoveAll(dir)
}

// createTempFile creates a temporary file in the target directory with a
// name derived from base (".tmp-<base>-<rand>"), returning its path and an
// *os.File ready for writing. Caller is responsible for closing it.
func createTempFile(dir, base string) (string, *os.File, error) {
	f, err := os.CreateTemp(dir, ".tmp-"+base+"-")
	if err != nil {
		return "", nil, err
	}
	return f.Name(), f, nil
}
