package models

import "slices"

// ContainsID reports whether id is a member of ids.
func ContainsID(ids []uint, id uint) bool {
	return slices.Contains(ids, id)
}

// AddID returns ids with id appended unless it is already present.
func AddID(ids []uint, id uint) []uint {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// RemoveID returns ids without any occurrence of id. The result never aliases ids.
func RemoveID(ids []uint, id uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ToggleID flips membership of id and reports whether id is a member afterwards.
func ToggleID(ids []uint, id uint) ([]uint, bool) {
	if slices.Contains(ids, id) {
		return RemoveID(ids, id), false
	}
	return append(ids, id), true
}

// DedupeIDs returns ids with duplicates and the zero id removed, keeping first-seen order.
func DedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, v := range ids {
		if v == 0 {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
