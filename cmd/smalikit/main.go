// Package main provides the smalikit CLI that scans a tree of .smali files
// and checks, round-trips, indexes or repackages it.
//
// Modes:
//   - CHECK     : smalikit -check [flags] <src_dir>
//   - ROUNDTRIP : smalikit -roundtrip [-diff] [flags] <src_dir>
//   - GRAPH     : smalikit -graph graph.json [flags] <src_dir>
//   - INDEX     : smalikit -index index.json [flags] <src_dir>
//   - ZIP       : smalikit -zip out.zip [flags] <src_dir>
//
// -check is incremental: a snapshot of the previous run is kept under
// -cache-dir and only added, changed or previously failing files are parsed
// again. -graph and -index accept "-" for stdout.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"smalikit/internal/config"
	"smalikit/internal/logging"
	"smalikit/internal/walkwalk"
)

// Config holds the resolved command line.
type Config struct {
	srcDir     string
	configPath string
	verbose    bool
	logLevel   string

	exts           []string
	exclude        []string
	jobs           int
	maxFileBytes   int64
	useGitignore   bool
	followSymlinks bool

	cacheDir string
	newCache bool

	check       bool
	roundtrip   bool
	showDiff    bool
	diffContext int
	maxDiff     int
	graphOut    string
	indexOut    string
	zipOut      string
}

var errUsage = errors.New("usage")

// splitCSV converts a comma-separated list into a slice, trimming spaces
// around items and dropping empty ones.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 8)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// toSet builds a string->struct{} set from a slice, skipping empty strings.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, v := range list {
		if v != "" {
			m[v] = struct{}{}
		}
	}
	return m
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("smalikit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	def := config.Default()

	fs.String("config", "", "YAML file with defaults for the flags below")
	fs.Bool("v", false, "verbose (debug) logging")
	fs.String("log-level", def.LogLevel, "log level: debug, info, warn, error")

	fs.String("ext", strings.Join(def.Ext, ","), "comma-separated extensions to include")
	fs.String("exclude", strings.Join(def.Exclude, ","), "comma-separated dir/file prefixes to exclude")
	fs.Int("jobs", def.Jobs, "parallel parse workers (0 = one per CPU)")
	fs.Int64("max-file-bytes", def.MaxFileBytes, "skip files larger than this (0 = no limit)")
	fs.Bool("use-gitignore", def.UseGitignore, "honor .gitignore patterns during file walk")
	fs.Bool("follow-symlinks", def.FollowSymlinks, "follow symlinks during walk")

	fs.String("cache-dir", def.CacheDir, "base cache directory for -check snapshots")
	fs.Bool("new", false, "reset the cache for <src_dir> before -check")

	fs.Bool("check", false, "parse and validate every file")
	fs.Bool("roundtrip", false, "parse, render and parse again; report unstable files")
	fs.Bool("diff", false, "with -roundtrip: print a unified diff for files whose text is not canonical")
	fs.Int("diff-context", 3, "context lines for -diff")
	fs.Int("max-diff-bytes", 2_000_000, "max input bytes per -diff (0 = no limit)")
	fs.String("graph", "", "write the class reference graph as JSON")
	fs.String("index", "", "write the tree snapshot as JSON")
	fs.String("zip", "", "write a deterministic zip of canonical renderings")
	return fs
}

// parseFlags parses args (without the program name). Values from -config
// apply to every flag not set on the command line.
func parseFlags(args []string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return Config{}, fmt.Errorf("%w: expected exactly one <src_dir>, got %d", errUsage, fs.NArg())
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	get := func(name string) flag.Getter { return fs.Lookup(name).Value.(flag.Getter) }
	cfg := Config{
		srcDir:         filepath.Clean(fs.Arg(0)),
		configPath:     get("config").Get().(string),
		verbose:        get("v").Get().(bool),
		logLevel:       get("log-level").Get().(string),
		exts:           splitCSV(get("ext").Get().(string)),
		exclude:        splitCSV(get("exclude").Get().(string)),
		jobs:           get("jobs").Get().(int),
		maxFileBytes:   get("max-file-bytes").Get().(int64),
		useGitignore:   get("use-gitignore").Get().(bool),
		followSymlinks: get("follow-symlinks").Get().(bool),
		cacheDir:       get("cache-dir").Get().(string),
		newCache:       get("new").Get().(bool),
		check:          get("check").Get().(bool),
		roundtrip:      get("roundtrip").Get().(bool),
		showDiff:       get("diff").Get().(bool),
		diffContext:    get("diff-context").Get().(int),
		maxDiff:        get("max-diff-bytes").Get().(int),
		graphOut:       get("graph").Get().(string),
		indexOut:       get("index").Get().(string),
		zipOut:         get("zip").Get().(string),
	}
	if cfg.configPath != "" {
		file, err := config.Load(cfg.configPath)
		if err != nil {
			return Config{}, err
		}
		applyFile(&cfg, file, set)
	}
	if cfg.jobs < 0 {
		return Config{}, fmt.Errorf("%w: -jobs must be >= 0", errUsage)
	}
	if cfg.verbose {
		cfg.logLevel = "debug"
	}
	return cfg, nil
}

func applyFile(cfg *Config, file config.Config, set map[string]bool) {
	if !set["ext"] && len(file.Ext) > 0 {
		cfg.exts = file.Ext
	}
	if !set["exclude"] && file.Exclude != nil {
		cfg.exclude = file.Exclude
	}
	if !set["jobs"] {
		cfg.jobs = file.Jobs
	}
	if !set["max-file-bytes"] {
		cfg.maxFileBytes = file.MaxFileBytes
	}
	if !set["use-gitignore"] {
		cfg.useGitignore = file.UseGitignore
	}
	if !set["follow-symlinks"] {
		cfg.followSymlinks = file.FollowSymlinks
	}
	if !set["cache-dir"] && file.CacheDir != "" {
		cfg.cacheDir = file.CacheDir
	}
	if !set["log-level"] && file.LogLevel != "" {
		cfg.logLevel = file.LogLevel
	}
}

// selectMode returns the single requested mode.
func selectMode(cfg Config) (string, error) {
	var modes []string
	if cfg.check {
		modes = append(modes, "check")
	}
	if cfg.roundtrip {
		modes = append(modes, "roundtrip")
	}
	if cfg.graphOut != "" {
		modes = append(modes, "graph")
	}
	if cfg.indexOut != "" {
		modes = append(modes, "index")
	}
	if cfg.zipOut != "" {
		modes = append(modes, "zip")
	}
	switch len(modes) {
	case 0:
		return "", fmt.Errorf("%w: one of -check, -roundtrip, -graph, -index or -zip is required", errUsage)
	case 1:
		return modes[0], nil
	default:
		return "", fmt.Errorf("%w: -%s are mutually exclusive", errUsage, strings.Join(modes, ", -"))
	}
}

func walkOptions(cfg Config) walkwalk.Options {
	exts := make([]string, 0, len(cfg.exts))
	for _, e := range cfg.exts {
		exts = append(exts, strings.ToLower(e))
	}
	return walkwalk.Options{
		Exts:           toSet(exts),
		Exclude:        toSet(cfg.exclude),
		MaxFileBytes:   cfg.maxFileBytes,
		UseGitignore:   cfg.useGitignore,
		FollowSymlinks: cfg.followSymlinks,
		Hash:           true,
	}
}

func usage(w io.Writer) {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  CHECK     : %s -check [flags] <src_dir>\n", name)
	fmt.Fprintf(w, "  ROUNDTRIP : %s -roundtrip [-diff] [flags] <src_dir>\n", name)
	fmt.Fprintf(w, "  GRAPH     : %s -graph graph.json [flags] <src_dir>\n", name)
	fmt.Fprintf(w, "  INDEX     : %s -index index.json [flags] <src_dir>\n", name)
	fmt.Fprintf(w, "  ZIP       : %s -zip out.zip [flags] <src_dir>\n", name)
	fmt.Fprintln(w, "\nFlags:")
	fs := newFlagSet()
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one CLI invocation and returns the process exit code:
// 0 on success, 1 on failures found or runtime errors, 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		usage(stderr)
		return 0
	}
	if err == nil {
		var mode string
		if mode, err = selectMode(cfg); err == nil {
			return execute(cfg, mode, stdout, stderr)
		}
	}
	fmt.Fprintln(stderr, "ERROR:", err)
	if errors.Is(err, errUsage) {
		usage(stderr)
	}
	return 2
}

func execute(cfg Config, mode string, stdout, stderr io.Writer) int {
	logger, err := logging.Setup(cfg.logLevel, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		return 2
	}
	logger = logger.WithFields(log.Fields{"mode": mode, "src": cfg.srcDir})

	var failed int
	switch mode {
	case "check":
		failed, err = runCheck(cfg, logger, stdout)
	case "roundtrip":
		failed, err = runRoundtrip(cfg, logger, stdout)
	case "graph":
		err = runGraph(cfg, logger, stdout)
	case "index":
		err = runIndex(cfg, logger, stdout)
	case "zip":
		err = runZip(cfg, logger, stdout)
	}
	if err != nil {
		fmt.Fprintln(stderr, "ERROR:", err)
		return 1
	}
	if failed > 0 {
		return 1
	}
	return 0
}
