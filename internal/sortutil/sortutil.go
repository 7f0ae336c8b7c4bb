// Package sortutil provides the stable orderings used for output.
package sortutil

import (
	"sort"

	"smalikit/types"
)

// StablePathSort returns a new slice containing the input paths sorted
// lexicographically. The original slice is not modified.
func StablePathSort(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	sort.Strings(out)
	return out
}

// SortedKeys returns the keys of m in lexicographic order.
func SortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ClassesByName sorts classes in place by internal name, keeping the input
// order of equal names.
func ClassesByName(classes []*types.SmaliClass) {
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].Name.InternalName() < classes[j].Name.InternalName()
	})
}
