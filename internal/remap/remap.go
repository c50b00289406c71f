// Package remap translates line ranges across an edit described by diff hunks.
package remap

import (
	"sort"

	"codetour/internal/tour"
)

// Hunk is one contiguous old-range to new-range mapping from a zero-context diff.
// Counts may be zero: a pure insertion has OldCount 0, a pure deletion NewCount 0.
type Hunk struct {
	OldStart int `json:"oldStart"`
	OldCount int `json:"oldCount"`
	NewStart int `json:"newStart"`
	NewCount int `json:"newCount"`
}

// Delta is the net change in line count introduced by the hunk.
func (h Hunk) Delta() int {
	return h.NewCount - h.OldCount
}

// Remap returns where r lands after applying hunks. Hunks ending at or before r.Start
// shift the range by their delta; hunks starting after r.End are ignored. A hunk that
// overlaps r contributes its full delta as well, so the result is only exact when no
// hunk overlaps r. The caller is expected to Clamp the result.
func Remap(r tour.LineRange, hunks []Hunk) tour.LineRange {
	ordered := make([]Hunk, len(hunks))
	copy(ordered, hunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OldStart < ordered[j].OldStart
	})

	offset := 0
	for _, h := range ordered {
		if h.OldStart+h.OldCount <= r.Start {
			offset += h.Delta()
			continue
		}
		if h.OldStart > r.End {
			break
		}
		offset += h.Delta()
	}

	return r.Shift(offset)
}

// Clamp forces both bounds into [1, lineCount] and keeps Start <= End. An empty file
// is treated as having a single line.
func Clamp(r tour.LineRange, lineCount int) tour.LineRange {
	upper := lineCount
	if upper < 1 {
		upper = 1
	}
	start := clampInt(r.Start, 1, upper)
	end := clampInt(r.End, 1, upper)
	if end < start {
		end = start
	}
	return tour.LineRange{Start: start, End: end}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
