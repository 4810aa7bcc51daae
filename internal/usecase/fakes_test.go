package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func flat(name string, start time.Time, n int, price float64) *domain.DoubleSeries {
	entries := make([]domain.Entry[float64], 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, domain.Entry[float64]{Time: start.AddDate(0, 0, i), Item: price})
	}
	return domain.NewDoubleSeries(name, entries...)
}

type fakeSource struct {
	mu     sync.Mutex
	series map[string]*domain.DoubleSeries
	errs   map[string]error
	calls  map[string]int
}

func newFakeSource(series ...*domain.DoubleSeries) *fakeSource {
	f := &fakeSource{
		series: map[string]*domain.DoubleSeries{},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
	for _, s := range series {
		f.series[s.Name] = s
	}
	return f
}

func (f *fakeSource) HistoricalPrices(ctx context.Context, symbol string) (*domain.DoubleSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	s, ok := f.series[symbol]
	if !ok {
		return nil, &domain.OpError{Op: "fake.fetch", Kind: domain.KindNotFound, Err: domain.ErrNotFound}
	}
	return s, nil
}

func (f *fakeSource) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeCache struct {
	mu      sync.Mutex
	series  map[string]*domain.DoubleSeries
	loadErr error
	saveErr error
	saves   int
}

func newFakeCache(series ...*domain.DoubleSeries) *fakeCache {
	c := &fakeCache{series: map[string]*domain.DoubleSeries{}}
	for _, s := range series {
		c.series[s.Name] = s
	}
	return c
}

func (c *fakeCache) Load(_ context.Context, symbol string) (*domain.DoubleSeries, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	s, ok := c.series[symbol]
	if !ok {
		return nil, &domain.OpError{Op: "fake.load", Kind: domain.KindNotFound, Err: domain.ErrNotFound}
	}
	return s, nil
}

func (c *fakeCache) Save(_ context.Context, s *domain.DoubleSeries) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	if c.saveErr != nil {
		return c.saveErr
	}
	c.series[s.Name] = s
	return nil
}

func (c *fakeCache) List(_ context.Context) ([]domain.CachedSymbol, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CachedSymbol, 0, len(c.series))
	for name, s := range c.series {
		out = append(out, domain.CachedSymbol{Symbol: name, Points: s.Len()})
	}
	return out, nil
}

type fakeStore struct {
	runs []domain.RunArtifact
	err  error
}

func (s *fakeStore) SaveRun(run domain.RunArtifact) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.runs = append(s.runs, run)
	return "saved-run", nil
}

type fakePublisher struct {
	runID  string
	orders []domain.ClosedOrder
	err    error
	calls  int
}

func (p *fakePublisher) Publish(_ context.Context, runID string, orders []domain.ClosedOrder) error {
	p.calls++
	p.runID = runID
	p.orders = orders
	return p.err
}

type fakeFile struct {
	series *domain.DoubleSeries
	err    error
	path   string
}

func (f *fakeFile) ReadPrices(path, symbol string) (*domain.DoubleSeries, error) {
	f.path = path
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewDoubleSeries(symbol, f.series.Entries()...), nil
}
