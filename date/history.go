package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of values, each associated with a specific date.
// It ensures that dates are unique and the series is always sorted.
type History[T float32 | float64 | string] struct {
	days   []Date
	values []T
}

// Tie selects which neighbour wins when two dates are equally distant.
type Tie int

const (
	// TieEarlier resolves equidistant neighbours to the earlier date.
	TieEarlier Tie = iota
	// TieLater resolves equidistant neighbours to the later date.
	TieLater
)

func (t Tie) String() string {
	if t == TieLater {
		return "later"
	}
	return "earlier"
}

// Len returns the number of items in the history.
func (h *History[T]) Len() int { return len(h.days) }

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, *new(T)
	}
	return h.days[last], h.values[last]
}

// First returns the earliest date and value in the history.
func (h *History[T]) First() (day Date, value T) {
	if len(h.days) == 0 {
		return Date{}, *new(T)
	}
	return h.days[0], h.values[0]
}

// search returns the insertion index of day and whether it is present.
func (h *History[T]) search(day Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, day, Date.Compare)
}

// Append adds a point to the history.
//
// Existing value at that date are overwritten.
func (h *History[T]) Append(on Date, q T) *History[T] {
	i, found := h.search(on)
	if found {
		// last write wins
		h.values[i] = q
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, q)
	return h
}

// Values returns an iterator over all date/value pairs in the history, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Get returns the value at 'day' and true or zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	if i, found := h.search(day); found {
		return h.values[i], true
	}
	var zero T
	return zero, false
}

// ValueAsOf returns the value on a given day, or the most recent value before it.
// It returns the value and true if found, otherwise it returns the zero value and false.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	i, found := h.search(day)
	if found {
		return h.values[i], true
	}
	// i is the insertion point, the last entry before day is at i-1.
	if i == 0 {
		var zero T
		return zero, false
	}
	return h.values[i-1], true
}

// Nearest returns the value whose date has the minimal absolute day distance to day.
//
// Equidistant neighbours are resolved with tie. It returns false only if the
// history is empty.
func (h *History[T]) Nearest(day Date, tie Tie) (on Date, value T, ok bool) {
	if len(h.days) == 0 {
		return Date{}, value, false
	}
	i, found := h.search(day)
	switch {
	case found:
		return h.days[i], h.values[i], true
	case i == 0:
		return h.days[0], h.values[0], true
	case i == len(h.days):
		return h.days[i-1], h.values[i-1], true
	}
	before, after := day.Sub(h.days[i-1]), h.days[i].Sub(day)
	if before < after || (before == after && tie == TieEarlier) {
		return h.days[i-1], h.values[i-1], true
	}
	return h.days[i], h.values[i], true
}
