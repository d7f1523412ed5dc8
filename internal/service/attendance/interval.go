package attendance

import (
	"slices"
	"time"
)

// Interval is a half-open span [Start, End) carrying a leave-type tag.
type Interval struct {
	Start time.Time
	End   time.Time
	Tag   string
}

// Coverage is the merged extent of a set of intervals.
type Coverage struct {
	Duration time.Duration
	// Primary is the tag of the earliest-starting contributing interval
	Primary string
}

// Minutes returns the covered time in whole minutes.
func (c Coverage) Minutes() int {
	return minutes(c.Duration)
}

// Merge sorts the intervals by start and sweeps them into non-overlapping
// runs. Zero-length and inverted intervals contribute nothing.
func Merge(intervals []Interval) Coverage {
	spans := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			spans = append(spans, iv)
		}
	}
	if len(spans) == 0 {
		return Coverage{}
	}

	slices.SortStableFunc(spans, func(a, b Interval) int {
		return a.Start.Compare(b.Start)
	})

	cov := Coverage{Primary: spans[0].Tag}
	cur := spans[0]
	for _, next := range spans[1:] {
		if !next.Start.After(cur.End) {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		cov.Duration += cur.End.Sub(cur.Start)
		cur = next
	}
	cov.Duration += cur.End.Sub(cur.Start)

	return cov
}

// Clip intersects every interval with [from, to) and drops empty results.
func Clip(intervals []Interval, from, to time.Time) []Interval {
	out := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		start, end := iv.Start, iv.End
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if end.After(start) {
			out = append(out, Interval{Start: start, End: end, Tag: iv.Tag})
		}
	}
	return out
}

// CoverageWithin merges the part of intervals that falls inside [from, to).
func CoverageWithin(intervals []Interval, from, to time.Time) Coverage {
	if !to.After(from) {
		return Coverage{}
	}
	return Merge(Clip(intervals, from, to))
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
