package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MultiSeries holds several named columns aligned on common timestamps.
// Each row item has one value per column, in Names() order.
type MultiSeries struct {
	TimeSeries[[]float64]
	names []string
}

// NewMultiSeries returns an empty series with the given columns.
func NewMultiSeries(names ...string) *MultiSeries {
	return &MultiSeries{names: slices.Clone(names)}
}

// MultiSeriesOf aligns the given series on the timestamps they all share.
func MultiSeriesOf(series ...*DoubleSeries) (*MultiSeries, error) {
	m := &MultiSeries{}
	for _, s := range series {
		if err := m.AddSeries(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddSeries adds s as a new column, keeping only timestamps present in both.
func (m *MultiSeries) AddSeries(s *DoubleSeries) error {
	if len(m.names) == 0 {
		asc := s.ToAscending()
		if !asc.IsAscending() {
			return fmt.Errorf("add series %s: %w", s.Name, ErrNotAscending)
		}
		rows := make([]Entry[[]float64], 0, asc.Len())
		for _, e := range asc.All() {
			rows = append(rows, Entry[[]float64]{Time: e.Time, Item: []float64{e.Item}})
		}
		m.entries = rows
		m.names = []string{s.Name}
		return nil
	}

	merged, err := Merge(&m.TimeSeries, &s.TimeSeries, func(row []float64, v float64) []float64 {
		out := make([]float64, 0, len(row)+1)
		out = append(out, row...)
		return append(out, v)
	})
	if err != nil {
		return fmt.Errorf("add series %s: %w", s.Name, err)
	}
	m.entries = merged.entries
	m.names = append(m.names, s.Name)
	return nil
}

// AppendRow appends one row; its width must match the column count.
func (m *MultiSeries) AppendRow(t time.Time, row []float64) error {
	if len(row) != len(m.names) {
		return fmt.Errorf("append row of %d to %d columns: %w", len(row), len(m.names), ErrRowWidth)
	}
	m.Add(slices.Clone(row), t)
	return nil
}

func (m *MultiSeries) Names() []string { return slices.Clone(m.names) }

// IndexOf returns the column index of name, or -1.
func (m *MultiSeries) IndexOf(name string) int {
	return slices.Index(m.names, name)
}

// Column extracts one column as a DoubleSeries.
func (m *MultiSeries) Column(name string) (*DoubleSeries, error) {
	idx := m.IndexOf(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
	}
	col := wrapDouble(name, Map(&m.TimeSeries, func(row []float64) float64 { return row[idx] }))
	return col, nil
}

func (m *MultiSeries) Between(from, to time.Time) *MultiSeries {
	return &MultiSeries{TimeSeries: *m.TimeSeries.Between(from, to), names: slices.Clone(m.names)}
}

func (m *MultiSeries) String() string {
	first, ok := m.First()
	if !ok {
		return "MultiSeries{empty}"
	}
	last, _ := m.LastEntry()
	return fmt.Sprintf("MultiSeries{names={%s}, from=%s, to=%s, size=%d}",
		strings.Join(m.names, ", "), fmtTime(first.Time), fmtTime(last.Time), m.Len())
}
