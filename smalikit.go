// Package smalikit reads and writes smali, the textual assembly format of
// Dalvik bytecode.
//
// ParseClass turns the text of one .smali file into a *types.SmaliClass and
// RenderClass turns it back into canonical text; parsing a rendering yields
// an equal model. ParseFragment and RenderFragment do the same for bare
// method-body snippets. DiscoverClasses and DiscoverClassesInZip load every
// class of a tree or archive.
//
// Parse failures are *types.ParseError values. Their Kind tells structural
// problems (missing .end method), lexical problems (bad descriptor, unknown
// opcode) and, for fragments, trailing input that is not a body element
// apart; errors.Is works with ErrStructural, ErrLexical and ErrIncomplete.
package smalikit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"

	"smalikit/internal/parse"
	"smalikit/internal/textutil"
	"smalikit/internal/walkwalk"
	"smalikit/internal/write"
	"smalikit/internal/ziputil"
	"smalikit/types"
)

// ParseError is the error type returned for malformed smali text.
type ParseError = types.ParseError

var (
	ErrStructural = types.ErrStructural
	ErrLexical    = types.ErrLexical
	ErrIncomplete = types.ErrIncomplete
)

// SmaliExt is the extension discovery looks for.
const SmaliExt = ".smali"

// ParseClass parses the full text of one class.
func ParseClass(text string) (*types.SmaliClass, error) {
	return parse.Class(text)
}

// RenderClass renders c as canonical smali text ending in a newline.
func RenderClass(c *types.SmaliClass) string {
	return write.Class(c)
}

// ParseFragment parses a sequence of method-body elements (labels,
// directives, payloads and instructions) with no class or method around
// them. Blank input yields an empty slice.
func ParseFragment(text string) ([]types.Instruction, error) {
	return parse.Fragment(text)
}

// RenderFragment is the inverse of ParseFragment.
func RenderFragment(body []types.Instruction) string {
	return write.Instructions(body)
}

// ReadClassFromFile reads and parses one .smali file. Read failures keep
// their fs error (errors.Is(err, fs.ErrNotExist) holds); parse failures are
// wrapped with the path and stay matchable with errors.As.
func ReadClassFromFile(path string) (*types.SmaliClass, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c, err := ParseClass(string(textutil.NormalizeUTF8LF(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteClassToFile renders c to path, creating parent directories.
func WriteClassToFile(c *types.SmaliClass, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(RenderClass(c)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ClassPath is the conventional relative path of a class's smali file
// (com/basic/Test.smali).
func ClassPath(c *types.SmaliClass) string {
	return c.Name.InternalName() + SmaliExt
}

// DiscoverOptions tunes DiscoverClassesWith.
type DiscoverOptions struct {
	// Walk filters the directory walk. The zero value selects .smali files.
	Walk walkwalk.Options
	// Logger receives one debug entry per parsed file; nil disables logging.
	Logger log.Interface
}

// DiscoverClasses parses every .smali file under dir, recursively, in
// path order. The first unreadable file or parse failure aborts discovery
// and is returned.
func DiscoverClasses(dir string) ([]*types.SmaliClass, error) {
	return DiscoverClassesWith(dir, DiscoverOptions{})
}

// DiscoverClassesWith is DiscoverClasses with walk filters and logging.
func DiscoverClassesWith(dir string, opt DiscoverOptions) ([]*types.SmaliClass, error) {
	walk := opt.Walk
	if len(walk.Exts) == 0 {
		walk.Exts = walkwalk.SmaliOptions().Exts
	}
	files, err := walkwalk.CollectFiles(dir, walk)
	if err != nil {
		return nil, err
	}
	out := make([]*types.SmaliClass, 0, len(files))
	for _, f := range files {
		c, err := ReadClassFromFile(f.AbsPath)
		if err != nil {
			return nil, err
		}
		if opt.Logger != nil {
			opt.Logger.WithFields(log.Fields{
				"file":    f.RelPath,
				"class":   c.Name.JavaType(),
				"methods": len(c.Methods),
			}).Debug("parsed")
		}
		out = append(out, c)
	}
	return out, nil
}

// DiscoverClassesInZip parses every .smali entry of a zip archive in entry
// name order, aborting on the first failure.
func DiscoverClassesInZip(path string) ([]*types.SmaliClass, error) {
	entries, err := ziputil.ReadFiles(path, SmaliExt)
	if err != nil {
		return nil, err
	}
	out := make([]*types.SmaliClass, 0, len(entries))
	for _, e := range entries {
		c, err := ParseClass(string(textutil.NormalizeUTF8LF(e.Data)))
		if err != nil {
			return nil, fmt.Errorf("%s!%s: %w", path, e.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}
