package domain

import (
	"fmt"
	"time"
)

// DoubleSeries is a named series of float64 values (prices, P/L, model outputs).
type DoubleSeries struct {
	TimeSeries[float64]
	Name string
}

func NewDoubleSeries(name string, entries ...Entry[float64]) *DoubleSeries {
	return &DoubleSeries{TimeSeries: *NewTimeSeries(entries...), Name: name}
}

func wrapDouble(name string, ts *TimeSeries[float64]) *DoubleSeries {
	return &DoubleSeries{TimeSeries: *ts, Name: name}
}

// Merge combines two series on common timestamps. The result keeps the receiver's name.
func (s *DoubleSeries) Merge(other *DoubleSeries, f func(a, b float64) float64) (*DoubleSeries, error) {
	m, err := Merge(&s.TimeSeries, &other.TimeSeries, f)
	if err != nil {
		return nil, fmt.Errorf("merge %s with %s: %w", s.Name, other.Name, err)
	}
	return wrapDouble(s.Name, m), nil
}

func (s *DoubleSeries) MapValues(f func(float64) float64) *DoubleSeries {
	return wrapDouble(s.Name, Map(&s.TimeSeries, f))
}

func (s *DoubleSeries) Plus(other *DoubleSeries) (*DoubleSeries, error) {
	return s.Merge(other, func(a, b float64) float64 { return a + b })
}

func (s *DoubleSeries) Mul(other *DoubleSeries) (*DoubleSeries, error) {
	return s.Merge(other, func(a, b float64) float64 { return a * b })
}

func (s *DoubleSeries) Div(other *DoubleSeries) (*DoubleSeries, error) {
	return s.Merge(other, func(a, b float64) float64 { return a / b })
}

func (s *DoubleSeries) AddScalar(v float64) *DoubleSeries {
	return s.MapValues(func(x float64) float64 { return x + v })
}

func (s *DoubleSeries) Scale(factor float64) *DoubleSeries {
	return s.MapValues(func(x float64) float64 { return x * factor })
}

// Returns computes simple returns over k steps: s[i]/s[i-k] - 1.
func (s *DoubleSeries) Returns(k int) (*DoubleSeries, error) {
	lagged, err := s.Lag(k)
	if err != nil {
		return nil, err
	}
	ratio, err := s.Div(lagged)
	if err != nil {
		return nil, err
	}
	return ratio.AddScalar(-1), nil
}

func (s *DoubleSeries) Lag(k int) (*DoubleSeries, error) {
	ts, err := s.TimeSeries.Lag(k)
	if err != nil {
		return nil, err
	}
	return wrapDouble(s.Name, ts), nil
}

func (s *DoubleSeries) ToAscending() *DoubleSeries {
	return wrapDouble(s.Name, s.TimeSeries.ToAscending())
}

func (s *DoubleSeries) ToDescending() *DoubleSeries {
	return wrapDouble(s.Name, s.TimeSeries.ToDescending())
}

func (s *DoubleSeries) Between(from, to time.Time) *DoubleSeries {
	return wrapDouble(s.Name, s.TimeSeries.Between(from, to))
}

// Last returns the newest value, or 0 for an empty series.
func (s *DoubleSeries) Last() float64 {
	e, ok := s.LastEntry()
	if !ok {
		return 0
	}
	return e.Item
}

// Tail keeps the newest n entries.
func (s *DoubleSeries) Tail(n int) *DoubleSeries {
	entries := s.Entries()
	start := max(0, len(entries)-n)
	return NewDoubleSeries(s.Name, entries[start:]...)
}

func (s *DoubleSeries) Values() []float64 {
	out := make([]float64, 0, s.Len())
	for _, e := range s.All() {
		out = append(out, e.Item)
	}
	return out
}

func (s *DoubleSeries) String() string {
	first, ok := s.First()
	if !ok {
		return "DoubleSeries{empty}"
	}
	last, _ := s.LastEntry()
	return fmt.Sprintf("DoubleSeries{name=%s, from=%s, to=%s, size=%d}",
		s.Name, fmtTime(first.Time), fmtTime(last.Time), s.Len())
}
