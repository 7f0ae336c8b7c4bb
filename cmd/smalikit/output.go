package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"smalikit"
	"smalikit/internal/graph"
	"smalikit/internal/meta"
	"smalikit/internal/sortutil"
	"smalikit/internal/walkwalk"
	"smalikit/internal/ziputil"
	"smalikit/types"
)

// createOutput opens path for writing; "-" selects stdout.
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "-" {
		return stdout, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func discover(cfg Config, logger log.Interface) ([]*types.SmaliClass, error) {
	classes, err := smalikit.DiscoverClassesWith(cfg.srcDir, smalikit.DiscoverOptions{
		Walk:   walkOptions(cfg),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	sortutil.ClassesByName(classes)
	return classes, nil
}

func runGraph(cfg Config, logger log.Interface, stdout io.Writer) error {
	classes, err := discover(cfg, logger)
	if err != nil {
		return err
	}
	g := graph.Build(classes)
	w, closeFn, err := createOutput(cfg.graphOut, stdout)
	if err != nil {
		return err
	}
	if err := g.WriteJSON(w); err != nil {
		_ = closeFn()
		return fmt.Errorf("write %s: %w", cfg.graphOut, err)
	}
	if err := closeFn(); err != nil {
		return err
	}
	if cfg.graphOut != "-" {
		fmt.Fprintf(stdout, "Wrote graph %s (classes=%d, nodes=%d, edges=%d)\n",
			cfg.graphOut, len(g.Defined), len(g.Nodes), len(g.Edges))
	}
	return nil
}

func runIndex(cfg Config, logger log.Interface, stdout io.Writer) error {
	files, err := walkwalk.CollectFiles(cfg.srcDir, walkOptions(cfg))
	if err != nil {
		return err
	}
	snap, err := scan(cfg, files)
	if err != nil {
		return err
	}
	failed := 0
	for _, f := range snap.Files {
		if f.Error != "" {
			failed++
			logger.WithField("file", f.Path).Warn("does not check")
		}
	}
	w, closeFn, err := createOutput(cfg.indexOut, stdout)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		_ = closeFn()
		return fmt.Errorf("write %s: %w", cfg.indexOut, err)
	}
	if err := closeFn(); err != nil {
		return err
	}
	if cfg.indexOut != "-" {
		fmt.Fprintf(stdout, "Wrote index %s (files=%d, failed=%d)\n", cfg.indexOut, len(snap.Files), failed)
	}
	return nil
}

// zipManifest is stored first in archives written by -zip. Project is set
// when the source tree belongs to a decoded apktool project.
type zipManifest struct {
	Format  string     `json:"format"`
	Project *meta.Info `json:"project,omitempty"`
	Classes []string   `json:"classes"`
}

func runZip(cfg Config, logger log.Interface, stdout io.Writer) error {
	classes, err := discover(cfg, logger)
	if err != nil {
		return err
	}
	man := zipManifest{Format: "smali", Classes: make([]string, 0, len(classes))}
	if proj := meta.Detect(cfg.srcDir); proj.Known() {
		logger.WithFields(log.Fields{
			"tool":    proj.Tool,
			"package": proj.Package,
			"dirs":    strings.Join(proj.SmaliDirs, ","),
		}).Debug("detected project")
		man.Project = &proj
	}
	entries := make([]ziputil.Entry, 0, len(classes))
	for _, c := range classes {
		man.Classes = append(man.Classes, c.Name.JavaType())
		entries = append(entries, ziputil.Entry{
			Name: smalikit.ClassPath(c),
			Data: []byte(smalikit.RenderClass(c)),
		})
	}
	w, closeFn, err := createOutput(cfg.zipOut, stdout)
	if err != nil {
		return err
	}
	if err := ziputil.WriteFiles(w, entries, man); err != nil {
		_ = closeFn()
		return fmt.Errorf("write %s: %w", cfg.zipOut, err)
	}
	if err := closeFn(); err != nil {
		return err
	}
	if cfg.zipOut != "-" {
		fmt.Fprintf(stdout, "Wrote zip %s (classes=%d)\n", cfg.zipOut, len(classes))
	}
	return nil
}
