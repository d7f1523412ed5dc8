package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		intervals []Interval
		minutes   int
		primary   string
	}{
		{
			name:      "empty",
			intervals: nil,
			minutes:   0,
			primary:   "",
		},
		{
			name:      "zero length ignored",
			intervals: []Interval{{Start: at(9, 0), End: at(9, 0), Tag: "annual"}},
			minutes:   0,
			primary:   "",
		},
		{
			name: "disjoint",
			intervals: []Interval{
				{Start: at(13, 0), End: at(14, 0), Tag: "sick"},
				{Start: at(9, 0), End: at(10, 0), Tag: "annual"},
			},
			minutes: 120,
			primary: "annual",
		},
		{
			name: "overlapping counted once",
			intervals: []Interval{
				{Start: at(9, 0), End: at(12, 0), Tag: "annual"},
				{Start: at(11, 0), End: at(13, 0), Tag: "sick"},
			},
			minutes: 240,
			primary: "annual",
		},
		{
			name: "adjacent joined",
			intervals: []Interval{
				{Start: at(10, 0), End: at(11, 0), Tag: "sick"},
				{Start: at(9, 0), End: at(10, 0), Tag: "business_trip"},
			},
			minutes: 120,
			primary: "business_trip",
		},
		{
			name: "duplicates and containment",
			intervals: []Interval{
				{Start: at(9, 0), End: at(17, 0), Tag: "annual"},
				{Start: at(9, 0), End: at(17, 0), Tag: "annual"},
				{Start: at(10, 0), End: at(11, 0), Tag: "sick"},
			},
			minutes: 480,
			primary: "annual",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cov := Merge(tt.intervals)
			assert.Equal(t, tt.minutes, cov.Minutes())
			assert.Equal(t, tt.primary, cov.Primary)
		})
	}
}

func TestCoverageWithin_NeverExceedsWindow(t *testing.T) {
	leaves := []Interval{
		{Start: at(6, 0), End: at(12, 0), Tag: "annual"},
		{Start: at(11, 0), End: at(23, 0), Tag: "sick"},
	}

	cov := CoverageWithin(leaves, at(9, 0), at(18, 0))
	assert.Equal(t, 540, cov.Minutes())
	assert.Equal(t, "annual", cov.Primary)

	assert.Equal(t, 0, CoverageWithin(leaves, at(18, 0), at(9, 0)).Minutes())
}

func TestClip(t *testing.T) {
	out := Clip([]Interval{
		{Start: at(8, 0), End: at(13, 0), Tag: "annual"},
		{Start: at(19, 0), End: at(20, 0), Tag: "sick"},
	}, at(9, 0), at(18, 0))

	assert.Equal(t, []Interval{{Start: at(9, 0), End: at(13, 0), Tag: "annual"}}, out)
}
