package subtitles

import (
	"cmp"
	"slices"
	"sort"
	"time"
)

// Stats describes the outcome of a merge.
type Stats struct {
	Primary      int `json:"primary"`
	Fallback     int `json:"fallback"`
	FallbackKept int `json:"fallback_kept"`
	Overlapping  int `json:"overlapping"`
	Duplicates   int `json:"duplicates"`
	Merged       int `json:"merged"`
}

// Merge combines primary and fallback into one list sorted by start time.
// Every primary cue is kept. A fallback cue is kept only when it overlaps no
// primary cue. Exact (start, end, trimmed text) duplicates are dropped, the
// first occurrence wins.
func Merge(primary, fallback []Cue) []Cue {
	merged, _ := MergeWithStats(primary, fallback)
	return merged
}

// MergeWithStats is Merge, also reporting what was kept and dropped.
func MergeWithStats(primary, fallback []Cue) ([]Cue, Stats) {
	stats := Stats{Primary: len(primary), Fallback: len(fallback)}

	idx := newOverlapIndex(primary)
	combined := make([]Cue, 0, len(primary)+len(fallback))
	combined = append(combined, primary...)
	for _, f := range fallback {
		if idx.overlapsAny(f) {
			stats.Overlapping++
			continue
		}
		combined = append(combined, f)
		stats.FallbackKept++
	}

	seen := make(map[cueKey]struct{}, len(combined))
	unique := make([]Cue, 0, len(combined))
	for _, c := range combined {
		k := c.key()
		if _, ok := seen[k]; ok {
			stats.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, c)
	}

	slices.SortStableFunc(unique, func(a, b Cue) int {
		return cmp.Compare(a.Start, b.Start)
	})
	stats.Merged = len(unique)
	return unique, stats
}

// overlapIndex answers "does f overlap any primary cue" without scanning the
// whole primary list. f overlaps p iff p.Start < f.End and p.End > f.Start,
// so with primary sorted by start it is enough to compare f.Start against the
// largest end among the cues starting before f.End.
type overlapIndex struct {
	starts []time.Duration
	maxEnd []time.Duration
}

func newOverlapIndex(primary []Cue) overlapIndex {
	sorted := slices.Clone(primary)
	slices.SortFunc(sorted, func(a, b Cue) int {
		return cmp.Compare(a.Start, b.Start)
	})

	idx := overlapIndex{
		starts: make([]time.Duration, len(sorted)),
		maxEnd: make([]time.Duration, len(sorted)),
	}
	for i, c := range sorted {
		idx.starts[i] = c.Start
		idx.maxEnd[i] = c.End
		if i > 0 && idx.maxEnd[i-1] > c.End {
			idx.maxEnd[i] = idx.maxEnd[i-1]
		}
	}
	return idx
}

func (idx overlapIndex) overlapsAny(f Cue) bool {
	// n is the number of primary cues with Start < f.End.
	n := sort.Search(len(idx.starts), func(i int) bool {
		return idx.starts[i] >= f.End
	})
	if n == 0 {
		return false
	}
	return idx.maxEnd[n-1] > f.Start
}
