package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"smalikit"
	"smalikit/internal/cache"
	"smalikit/internal/diff"
	"smalikit/internal/textutil"
	"smalikit/internal/validate"
	"smalikit/internal/walkwalk"
)

func workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// forEach runs fn for every index in [0, n) on a bounded pool. fn writes its
// result into a slot owned by that index; the first error cancels the rest.
func forEach(ctx context.Context, n, jobs int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(jobs))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}

// checkFile parses and validates one file into a snapshot entry. Only read
// failures are returned as errors; parse and validation problems land in
// SnapFile.Error.
func checkFile(f walkwalk.FileInfo) (cache.SnapFile, error) {
	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return cache.SnapFile{}, fmt.Errorf("read %s: %w", f.AbsPath, err)
	}
	sf := cache.SnapFile{
		Path:  f.RelPath,
		Hash:  f.SHA256Hex,
		Lines: bytes.Count(data, []byte("\n")),
	}
	c, err := smalikit.ParseClass(string(textutil.NormalizeUTF8LF(data)))
	if err != nil {
		sf.Error = err.Error()
		return sf, nil
	}
	sf.Class = c.Name.JavaType()
	sf.Fields = len(c.Fields)
	sf.Methods = len(c.Methods)
	if err := validate.Class(c); err != nil {
		sf.Error = err.Error()
	}
	return sf, nil
}

// scan checks every file in files and returns the snapshot of the tree.
func scan(cfg Config, files []walkwalk.FileInfo) (*cache.Snapshot, error) {
	snap := newSnapshot(cfg, len(files))
	snap.Files = snap.Files[:len(files)]
	err := forEach(context.Background(), len(files), cfg.jobs, func(_ context.Context, i int) error {
		sf, err := checkFile(files[i])
		snap.Files[i] = sf
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func newSnapshot(cfg Config, n int) *cache.Snapshot {
	root, _ := filepath.Abs(cfg.srcDir)
	return &cache.Snapshot{
		Root:          root,
		Created:       time.Now().UTC().Format(time.RFC3339),
		FormatVersion: cache.FormatVersion,
		Files:         make([]cache.SnapFile, 0, n),
	}
}

func runCheck(cfg Config, logger log.Interface, stdout io.Writer) (int, error) {
	files, err := walkwalk.CollectFiles(cfg.srcDir, walkOptions(cfg))
	if err != nil {
		return 0, err
	}
	srcAbs, _ := filepath.Abs(cfg.srcDir)
	dir := cache.CacheDir(cfg.cacheDir, srcAbs)
	if cfg.newCache {
		if err := cache.Clear(dir); err != nil {
			return 0, fmt.Errorf("clear cache %s: %w", dir, err)
		}
	}
	prev, err := cache.Load(dir)
	if err != nil {
		logger.WithError(err).Warn("ignoring unreadable snapshot")
		prev = nil
	}

	// Hash-only view of the tree to decide what needs parsing.
	curr := newSnapshot(cfg, len(files))
	for _, f := range files {
		curr.Files = append(curr.Files, cache.SnapFile{Path: f.RelPath, Hash: f.SHA256Hex})
	}
	d := cache.BuildDelta(prev, curr)
	stale := toSet(cache.Stale(prev, curr, d))
	reuse := map[string]cache.SnapFile{}
	if prev != nil {
		for _, pf := range prev.Files {
			reuse[pf.Path] = pf
		}
	}
	for _, r := range d.Renamed {
		delete(reuse, r.From)
	}

	var todo []int
	for i, f := range files {
		if _, ok := stale[f.RelPath]; ok {
			todo = append(todo, i)
			continue
		}
		pf, ok := reuse[f.RelPath]
		if !ok || pf.Hash != f.SHA256Hex {
			todo = append(todo, i)
			continue
		}
		curr.Files[i] = pf
	}
	logger.WithFields(log.Fields{
		"files":   len(files),
		"stale":   len(todo),
		"added":   len(d.Added),
		"changed": len(d.Changed),
		"renamed": len(d.Renamed),
		"removed": len(d.Removed),
	}).Debug("delta")

	err = forEach(context.Background(), len(todo), cfg.jobs, func(_ context.Context, k int) error {
		i := todo[k]
		sf, err := checkFile(files[i])
		curr.Files[i] = sf
		return err
	})
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, f := range curr.Files {
		if f.Error != "" {
			failed++
			fmt.Fprintf(stdout, "FAIL %s\n%s\n", f.Path, f.Error)
		}
	}
	if err := cache.Save(dir, curr); err != nil {
		return failed, fmt.Errorf("saving snapshot: %w", err)
	}
	fmt.Fprintf(stdout, "Checked %d files (parsed=%d, cached=%d, failed=%d)\n",
		len(files), len(todo), len(files)-len(todo), failed)
	return failed, nil
}

// roundtrip outcomes
const (
	rtStable = iota // text already canonical
	rtDrift         // model stable, text not canonical
	rtFailed        // parse error or model changed
)

type rtResult struct {
	status int
	msg    string
	patch  string
}

func roundtripFile(cfg Config, f walkwalk.FileInfo) (rtResult, error) {
	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return rtResult{}, fmt.Errorf("read %s: %w", f.AbsPath, err)
	}
	in := textutil.NormalizeUTF8LF(data)
	c, err := smalikit.ParseClass(string(in))
	if err != nil {
		return rtResult{status: rtFailed, msg: err.Error()}, nil
	}
	out := smalikit.RenderClass(c)
	again, err := smalikit.ParseClass(out)
	if err != nil {
		return rtResult{status: rtFailed, msg: "rendering does not parse: " + err.Error()}, nil
	}
	if !reflect.DeepEqual(c, again) {
		return rtResult{status: rtFailed, msg: "model changed after render"}, nil
	}
	if string(in) == out {
		return rtResult{status: rtStable}, nil
	}
	res := rtResult{status: rtDrift}
	if cfg.showDiff {
		res.patch, _ = diff.Unified(f.RelPath, f.RelPath+" (canonical)", in, []byte(out),
			diff.Options{MaxBytes: cfg.maxDiff, Context: cfg.diffContext})
	}
	return res, nil
}

func runRoundtrip(cfg Config, logger log.Interface, stdout io.Writer) (int, error) {
	files, err := walkwalk.CollectFiles(cfg.srcDir, walkOptions(cfg))
	if err != nil {
		return 0, err
	}
	results := make([]rtResult, len(files))
	err = forEach(context.Background(), len(files), cfg.jobs, func(_ context.Context, i int) error {
		r, err := roundtripFile(cfg, files[i])
		results[i] = r
		return err
	})
	if err != nil {
		return 0, err
	}
	var counts [3]int
	for i, r := range results {
		counts[r.status]++
		switch r.status {
		case rtFailed:
			fmt.Fprintf(stdout, "FAIL %s: %s\n", files[i].RelPath, r.msg)
		case rtDrift:
			logger.WithField("file", files[i].RelPath).Debug("not canonical")
			if r.patch != "" {
				fmt.Fprint(stdout, r.patch)
			}
		}
	}
	fmt.Fprintf(stdout, "Round-tripped %d files (stable=%d, drift=%d, failed=%d)\n",
		len(files), counts[rtStable], counts[rtDrift], counts[rtFailed])
	return counts[rtFailed], nil
}
