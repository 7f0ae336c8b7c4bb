package cache

// SnapFile represents a single smali file in a snapshot.
// Path is root-relative with forward slashes, Hash is the lowercase hex
// sha256 of the file contents, and Lines counts '\n'-terminated lines.
// Class, Fields and Methods describe the parsed class; Error holds the parse
// or validation failure when the file did not check cleanly.
type SnapFile struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`
	Lines   int    `json:"lines"`
	Class   string `json:"class,omitempty"`
	Fields  int    `json:"fields"`
	Methods int    `json:"methods"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the file parsed and validated at snapshot time.
func (f SnapFile) OK() bool { return f.Error == "" && f.Class != "" }

// Snapshot captures the state of a smali tree at a specific moment.
// Root is the scanned directory. Created is an RFC 3339 timestamp (UTC).
// FormatVersion versions the snapshot schema.
type Snapshot struct {
	Root          string     `json:"root"`
	Created       string     `json:"created"`
	FormatVersion string     `json:"formatVersion,omitempty"`
	Files         []SnapFile `json:"files"`
}

// Change is a file whose path stayed the same while its content changed.
type Change struct {
	Path       string `json:"path"`
	HashBefore string `json:"hashBefore"`
	HashAfter  string `json:"hashAfter"`
}

// Rename is a file moved from one path to another without content change.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
	Hash string `json:"hash"`
}

// Delta describes the minimal set of changes from a previous snapshot to the
// current snapshot. The sets are mutually consistent after rename de-duplication:
//
//   - Added: files present now that were not in the previous snapshot
//   - Removed: files present previously that are no longer in the current snapshot
//   - Changed: files whose path is the same but content hash differs
//   - Renamed: files moved from one path to another without content change
//
// Renamed entries are one-to-one pairings (From → To) for the same content hash.
type Delta struct {
	Added   []SnapFile `json:"added"`
	Removed []SnapFile `json:"removed"`
	Renamed []Rename   `json:"renamed"`
	Changed []Change   `json:"changed"`
}

// Empty reports whether nothing changed.
func (d Delta) Empty() bool {
	return len(d.Added)+len(d.Removed)+len(d.Renamed)+len(d.Changed) == 0
}
