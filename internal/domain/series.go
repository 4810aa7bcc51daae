package domain

import (
	"fmt"
	"iter"
	"time"
)

// Entry is a single timestamped item of a series.
type Entry[T any] struct {
	Time time.Time
	Item T
}

// TimeSeries is an ordered list of timestamped items.
// Most operations expect strictly ascending time order; Merge enforces it.
type TimeSeries[T any] struct {
	entries []Entry[T]
}

// NewTimeSeries copies entries into a new series.
func NewTimeSeries[T any](entries ...Entry[T]) *TimeSeries[T] {
	cp := make([]Entry[T], len(entries))
	copy(cp, entries)
	return &TimeSeries[T]{entries: cp}
}

func (s *TimeSeries[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

func (s *TimeSeries[T]) IsEmpty() bool { return s.Len() == 0 }

// Add appends item at time t.
func (s *TimeSeries[T]) Add(item T, t time.Time) {
	s.entries = append(s.entries, Entry[T]{Time: t, Item: item})
}

func (s *TimeSeries[T]) Append(e Entry[T]) {
	s.entries = append(s.entries, e)
}

// At returns the i-th entry. It panics when i is out of range, like a slice index.
func (s *TimeSeries[T]) At(i int) Entry[T] {
	return s.entries[i]
}

// Entries returns a copy of the underlying entries.
func (s *TimeSeries[T]) Entries() []Entry[T] {
	out := make([]Entry[T], s.Len())
	if s != nil {
		copy(out, s.entries)
	}
	return out
}

// All iterates entries in stored order.
func (s *TimeSeries[T]) All() iter.Seq2[int, Entry[T]] {
	return func(yield func(int, Entry[T]) bool) {
		for i := 0; i < s.Len(); i++ {
			if !yield(i, s.entries[i]) {
				return
			}
		}
	}
}

// Backward iterates entries from the newest to the oldest.
func (s *TimeSeries[T]) Backward() iter.Seq[Entry[T]] {
	return func(yield func(Entry[T]) bool) {
		for i := s.Len() - 1; i >= 0; i-- {
			if !yield(s.entries[i]) {
				return
			}
		}
	}
}

// IsAscending reports whether timestamps are strictly increasing.
func (s *TimeSeries[T]) IsAscending() bool {
	for i := 1; i < s.Len(); i++ {
		if !s.entries[i-1].Time.Before(s.entries[i].Time) {
			return false
		}
	}
	return true
}

// ToAscending returns s when already ascending, otherwise a reversed copy.
func (s *TimeSeries[T]) ToAscending() *TimeSeries[T] {
	if s.IsAscending() {
		return s
	}
	return s.Reverse()
}

// ToDescending returns a reversed copy when s is ascending, otherwise s.
func (s *TimeSeries[T]) ToDescending() *TimeSeries[T] {
	if s.Len() > 1 && s.IsAscending() {
		return s.Reverse()
	}
	return s
}

func (s *TimeSeries[T]) Reverse() *TimeSeries[T] {
	n := s.Len()
	out := make([]Entry[T], n)
	for i := 0; i < n; i++ {
		out[i] = s.entries[n-1-i]
	}
	return &TimeSeries[T]{entries: out}
}

// Lag shifts items k steps forward in time: entry i carries the item of entry i-k.
// The first k entries are dropped.
func (s *TimeSeries[T]) Lag(k int) (*TimeSeries[T], error) {
	if k <= 0 || k > s.Len() {
		return nil, fmt.Errorf("lag %d on series of %d: %w", k, s.Len(), ErrInvalidLag)
	}
	out := make([]Entry[T], 0, s.Len()-k)
	for i := k; i < s.Len(); i++ {
		out = append(out, Entry[T]{Time: s.entries[i].Time, Item: s.entries[i-k].Item})
	}
	return &TimeSeries[T]{entries: out}, nil
}

// LagFill is Lag that keeps the series length, filling the first k items with fill.
func (s *TimeSeries[T]) LagFill(k int, fill T) (*TimeSeries[T], error) {
	if k <= 0 || k > s.Len() {
		return nil, fmt.Errorf("lag %d on series of %d: %w", k, s.Len(), ErrInvalidLag)
	}
	out := make([]Entry[T], 0, s.Len())
	for i := 0; i < k; i++ {
		out = append(out, Entry[T]{Time: s.entries[i].Time, Item: fill})
	}
	for i := k; i < s.Len(); i++ {
		out = append(out, Entry[T]{Time: s.entries[i].Time, Item: s.entries[i-k].Item})
	}
	return &TimeSeries[T]{entries: out}, nil
}

// Between keeps entries with from <= t <= to. A zero bound is open.
func (s *TimeSeries[T]) Between(from, to time.Time) *TimeSeries[T] {
	out := make([]Entry[T], 0, s.Len())
	for _, e := range s.Entries() {
		if !from.IsZero() && e.Time.Before(from) {
			continue
		}
		if !to.IsZero() && e.Time.After(to) {
			continue
		}
		out = append(out, e)
	}
	return &TimeSeries[T]{entries: out}
}

// First and LastEntry return the boundary entries; ok is false for an empty series.
func (s *TimeSeries[T]) First() (Entry[T], bool) {
	if s.Len() == 0 {
		return Entry[T]{}, false
	}
	return s.entries[0], true
}

func (s *TimeSeries[T]) LastEntry() (Entry[T], bool) {
	if s.Len() == 0 {
		return Entry[T]{}, false
	}
	return s.entries[len(s.entries)-1], true
}

func (s *TimeSeries[T]) String() string {
	first, ok := s.First()
	if !ok {
		return "TimeSeries{empty}"
	}
	last, _ := s.LastEntry()
	return fmt.Sprintf("TimeSeries{from=%s, to=%s, size=%d}", fmtTime(first.Time), fmtTime(last.Time), s.Len())
}

// Map applies f to every item, keeping timestamps.
func Map[T, F any](s *TimeSeries[T], f func(T) F) *TimeSeries[F] {
	out := make([]Entry[F], 0, s.Len())
	for _, e := range s.Entries() {
		out = append(out, Entry[F]{Time: e.Time, Item: f(e.Item)})
	}
	return &TimeSeries[F]{entries: out}
}

// Merge joins a and b on equal timestamps and combines matching items with f.
// Timestamps present in only one series are skipped. Descending inputs are
// reversed first; inputs that are not sorted either way fail with ErrNotAscending.
func Merge[A, B, F any](a *TimeSeries[A], b *TimeSeries[B], f func(A, B) F) (*TimeSeries[F], error) {
	a = a.ToAscending()
	b = b.ToAscending()
	if !a.IsAscending() || !b.IsAscending() {
		return nil, ErrNotAscending
	}

	out := make([]Entry[F], 0, min(a.Len(), b.Len()))
	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		ea, eb := a.entries[i], b.entries[j]
		switch {
		case ea.Time.Equal(eb.Time):
			out = append(out, Entry[F]{Time: ea.Time, Item: f(ea.Item, eb.Item)})
			i++
			j++
		case ea.Time.Before(eb.Time):
			i++
		default:
			j++
		}
	}
	return &TimeSeries[F]{entries: out}, nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
