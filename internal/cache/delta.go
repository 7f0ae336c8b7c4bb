package cache

import (
	"sort"
)

// BuildDelta computes the change set between two snapshots.
func BuildDelta(prev *Snapshot, curr *Snapshot) Delta {
	if delta, ok := handleTrivialDelta(prev, curr); ok {
		return delta
	}

	prevMap := indexByPath(prev.Files)
	currMap := indexByPath(curr.Files)

	removed, changed := classifyRemovedAndChanged(prevMap, currMap)
	added := classifyAdded(prevMap, currMap)

	delta := Delta{
		Removed: removed,
		Added:   added,
		Changed: changed,
	}

	renamed, keepRemoved, keepAdded := matchExactRenames(delta.Removed, delta.Added)
	delta.Renamed = append(delta.Renamed, renamed...)
	delta.Removed = keepRemoved
	delta.Added = keepAdded

	sortDelta(&delta)
	return delta
}

// Stale returns the paths of curr that need checking again: added, changed
// and renamed files, plus files that failed in prev. Sorted.
func Stale(prev, curr *Snapshot, d Delta) []string {
	set := make(map[string]struct{})
	for _, f := range d.Added {
		set[f.Path] = struct{}{}
	}
	for _, c := range d.Changed {
		set[c.Path] = struct{}{}
	}
	for _, r := range d.Renamed {
		set[r.To] = struct{}{}
	}
	if prev != nil {
		prevMap := indexByPath(prev.Files)
		for _, f := range curr.Files {
			if pf, ok := prevMap[f.Path]; ok && !pf.OK() {
				set[f.Path] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func handleTrivialDelta(prev, curr *Snapshot) (Delta, bool) {
	var d Delta
	switch {
	case curr == nil || len(curr.Files) == 0:
		if prev != nil {
			d.Removed = append(d.Removed, prev.Files...)
			sort.Slice(d.Removed, func(i, j int) bool { return d.Removed[i].Path < d.Removed[j].Path })
		}
		return d, true
	case prev == nil || len(prev.Files) == 0:
		d.Added = append(d.Added, curr.Files...)
		sort.Slice(d.Added, func(i, j int) bool { return d.Added[i].Path < d.Added[j].Path })
		return d, true
	default:
		return Delta{}, false
	}
}

func indexByPath(files []SnapFile) map[string]SnapFile {
	m := make(map[string]SnapFile, len(files))
	for _, f := range files {
		m[f.Path] = f
	}
	return m
}

func classifyRemovedAndChanged(prev, curr map[string]SnapFile) ([]SnapFile, []Change) {
	removed := make([]SnapFile, 0)
	changed := make([]Change, 0)
	for path, pf := range prev {
		if cf, ok := curr[path]; ok {
			if pf.Hash != cf.Hash {
				changed = append(changed, Change{
					Path:       path,
					HashBefore: pf.Hash,
					HashAfter:  cf.Hash,
				})
			}
			continue
		}
		removed = append(removed, pf)
	}
	return removed, changed
}

func classifyAdded(prev, curr map[string]SnapFile) []SnapFile {
	added := make([]SnapFile, 0)
	for path, cf := range curr {
		if _, ok := prev[path]; !ok {
			added = append(added, cf)
		}
	}
	return added
}

// matchExactRenames pairs removed and added files with the same hash. Added
// files are visited in path order and take the first removed candidate by
// path, so the pairing is deterministic.
func matchExactRenames(removed, added []SnapFile) ([]Rename, []SnapFile, []SnapFile) {
	if len(removed) == 0 || len(added) == 0 {
		return nil, removed, added
	}
	type info struct {
		idx  int
		path string
	}
	byHash := make(map[string][]info, len(removed))
	for idx, rf := range removed {
		byHash[rf.Hash] = append(byHash[rf.Hash], info{idx: idx, path: rf.Path})
	}
	for h, list := range byHash {
		sort.Slice(list, func(i, j int) bool { return list[i].path < list[j].path })
		byHash[h] = list
	}
	addInfos := make([]info, len(added))
	for i, af := range added {
		addInfos[i] = info{idx: i, path: af.Path}
	}
	sort.Slice(addInfos, func(i, j int) bool { return addInfos[i].path < addInfos[j].path })

	usedRemoved := make(map[int]bool)
	usedAdded := make(map[int]bool)
	renamed := make([]Rename, 0)
	for _, ai := range addInfos {
		af := added[ai.idx]
		cands := byHash[af.Hash]
		if len(cands) == 0 {
			continue
		}
		cand := cands[0]
		byHash[af.Hash] = cands[1:]
		usedRemoved[cand.idx] = true
		usedAdded[ai.idx] = true
		renamed = append(renamed, Rename{
			From: removed[cand.idx].Path,
			To:   af.Path,
			Hash: af.Hash,
		})
	}
	return renamed, filterSnapFiles(removed, usedRemoved), filterSnapFiles(added, usedAdded)
}

func filterSnapFiles(files []SnapFile, used map[int]bool) []SnapFile {
	if len(used) == 0 {
		return files
	}
	out := make([]SnapFile, 0, len(files)-len(used))
	for idx, f := range files {
		if !used[idx] {
			out = append(out, f)
		}
	}
	return out
}

func sortDelta(d *Delta) {
	sort.Slice(d.Removed, func(i, j int) bool { return d.Removed[i].Path < d.Removed[j].Path })
	sort.Slice(d.Added, func(i, j int) bool { return d.Added[i].Path < d.Added[j].Path })
	sort.Slice(d.Changed, func(i, j int) bool { return d.Changed[i].Path < d.Changed[j].Path })
	sort.Slice(d.Renamed, func(i, j int) bool {
		if d.Renamed[i].From == d.Renamed[j].From {
			return d.Renamed[i].To < d.Renamed[j].To
		}
		return d.Renamed[i].From < d.Renamed[j].From
	})
}
