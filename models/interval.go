package models

import "time"

// Interval is a half-open [Start, End) span of absolute time.
// All engine math (free-space subtraction, overlap checks, candidate
// expansion) is expressed in terms of intervals.
type Interval struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

func NewInterval(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// IsZero reports whether the interval is unset.
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// Valid reports whether End is strictly after Start.
func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether the two half-open intervals intersect.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Intersect returns the overlapping portion of the two intervals.
// The zero Interval is returned when they do not intersect.
func (iv Interval) Intersect(other Interval) Interval {
	start := iv.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := iv.End
	if other.End.Before(end) {
		end = other.End
	}
	if !end.After(start) {
		return Interval{}
	}
	return Interval{Start: start, End: end}
}

// Expand widens the interval by pad on both sides.
func (iv Interval) Expand(pad time.Duration) Interval {
	return Interval{Start: iv.Start.Add(-pad), End: iv.End.Add(pad)}
}

// Equal reports whether both bounds coincide.
func (iv Interval) Equal(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}

// Abuts reports whether the two intervals share an edge within slack.
// Used by the optimizer's adjacency bonus: a candidate that starts where
// an existing appointment's buffered window ends (or vice versa) packs
// the day instead of fragmenting it.
func (iv Interval) Abuts(other Interval, slack time.Duration) bool {
	gapAfter := other.Start.Sub(iv.End)
	if gapAfter >= 0 && gapAfter <= slack {
		return true
	}
	gapBefore := iv.Start.Sub(other.End)
	return gapBefore >= 0 && gapBefore <= slack
}

// SubtractAll removes every busy interval from iv and returns the
// remaining free intervals in ascending order. Busy intervals may
// overlap each other and need not be sorted.
func (iv Interval) SubtractAll(busy []Interval) []Interval {
	free := []Interval{iv}
	for _, b := range busy {
		var next []Interval
		for _, f := range free {
			if !f.Overlaps(b) {
				next = append(next, f)
				continue
			}
			if b.Start.After(f.Start) {
				next = append(next, Interval{Start: f.Start, End: b.Start})
			}
			if b.End.Before(f.End) {
				next = append(next, Interval{Start: b.End, End: f.End})
			}
		}
		free = next
	}
	return free
}
