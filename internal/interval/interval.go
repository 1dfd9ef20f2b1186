package interval

import "fmt"

// Interval is a single range [Start, End) over T, with generalized
// open/closed/unbounded endpoints. Constructing an interval with
// start >= end is a programmer error and is rejected.
type Interval[T Ordered[T]] struct {
	Start StartBound[T]
	End   EndBound[T]
}

// New constructs an interval, returning an error if start does not
// precede end.
func New[T Ordered[T]](start StartBound[T], end EndBound[T]) (Interval[T], error) {
	if !validRange(start, end) {
		return Interval[T]{}, fmt.Errorf("interval: invalid range, start must precede end")
	}
	return Interval[T]{Start: start, End: end}, nil
}

// MustNew is like New but panics on an invalid range; used for
// programmer-controlled literal intervals where the range is known good.
func MustNew[T Ordered[T]](start StartBound[T], end EndBound[T]) Interval[T] {
	iv, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

func validRange[T Ordered[T]](start StartBound[T], end EndBound[T]) bool {
	sv, sok := start.Value()
	ev, eok := end.Value()
	if !sok || !eok {
		return true
	}
	return sv.Compare(ev) < 0
}

// Contains reports whether v falls within the interval under its bound
// rules.
func (iv Interval[T]) Contains(v T) bool {
	if sv, ok := iv.Start.Value(); ok {
		c := sv.Compare(v)
		if iv.Start.IsClosed() {
			if c > 0 {
				return false
			}
		} else if c >= 0 {
			return false
		}
	}
	if ev, ok := iv.End.Value(); ok {
		c := v.Compare(ev)
		if iv.End.IsClosed() {
			if c > 0 {
				return false
			}
		} else if c >= 0 {
			return false
		}
	}
	return true
}

// IsDisjoint reports whether iv and other share no point at all (including
// a shared touching boundary point).
func (iv Interval[T]) IsDisjoint(other Interval[T]) bool {
	return iv.End.CompareStart(other.Start) <= 0 || other.End.CompareStart(iv.Start) <= 0
}

// touches reports whether one interval ends at the value where the other
// starts and the two bounds together cover that value (e.g. [1,5) and
// [5,9)), so the two meet without a gap.
func (iv Interval[T]) touches(other Interval[T]) bool {
	meet := func(e EndBound[T], s StartBound[T]) bool {
		ev, eok := e.Value()
		sv, sok := s.Value()
		return eok && sok && ev.Compare(sv) == 0 && (e.IsClosed() || s.IsClosed())
	}
	return meet(iv.End, other.Start) || meet(other.End, iv.Start)
}

// IsSeparate reports whether iv and other are disjoint and do not even
// touch at a shared boundary point.
func (iv Interval[T]) IsSeparate(other Interval[T]) bool {
	return iv.IsDisjoint(other) && !iv.touches(other)
}

// Intersection returns iv ∩ other, and false if the result is empty.
func (iv Interval[T]) Intersection(other Interval[T]) (Interval[T], bool) {
	start := maxStart(iv.Start, other.Start)
	end := minEnd(iv.End, other.End)
	if !validRange(start, end) {
		return Interval[T]{}, false
	}
	return Interval[T]{Start: start, End: end}, true
}

// Union returns iv ∪ other as a single interval, and false if the two
// intervals are separate (the union would not be contiguous).
func (iv Interval[T]) Union(other Interval[T]) (Interval[T], bool) {
	if iv.IsSeparate(other) {
		return Interval[T]{}, false
	}
	return Interval[T]{
		Start: minStart(iv.Start, other.Start),
		End:   maxEnd(iv.End, other.End),
	}, true
}

// Difference returns iv \ other as zero, one, or two intervals.
func (iv Interval[T]) Difference(other Interval[T]) []Interval[T] {
	inter, ok := iv.Intersection(other)
	if !ok {
		return []Interval[T]{iv}
	}
	var out []Interval[T]
	if iv.Start.Compare(inter.Start) < 0 {
		leftEnd := inter.Start.touchingEnd()
		if validRange(iv.Start, leftEnd) {
			out = append(out, Interval[T]{Start: iv.Start, End: leftEnd})
		}
	}
	if inter.End.Compare(iv.End) < 0 {
		rightStart := inter.End.touchingStart()
		if validRange(rightStart, iv.End) {
			out = append(out, Interval[T]{Start: rightStart, End: iv.End})
		}
	}
	return out
}
