package backtest

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// account is the TradingContext of a single run.
type account struct {
	deposit    float64
	leverage   float64
	commission CommissionFunc

	instruments []string
	index       map[string]int
	history     []*domain.DoubleSeries

	now    time.Time
	prices []float64

	nextID      int
	open        []domain.Order
	closed      []domain.ClosedOrder
	closedPL    float64
	commissions float64
}

func newAccount(deposit, leverage float64, commission CommissionFunc, instruments []string) *account {
	a := &account{
		deposit:     deposit,
		leverage:    leverage,
		commission:  commission,
		instruments: slices.Clone(instruments),
		index:       make(map[string]int, len(instruments)),
		history:     make([]*domain.DoubleSeries, len(instruments)),
		nextID:      1,
	}
	for i, name := range instruments {
		a.index[name] = i
		a.history[i] = domain.NewDoubleSeries(name)
	}
	return a
}

func (a *account) tick(t time.Time, prices []float64) {
	a.now = t
	a.prices = prices
}

// record appends the current tick to the per-instrument history.
func (a *account) record() {
	for i, p := range a.prices {
		a.history[i].Add(p, a.now)
	}
}

func (a *account) Time() time.Time       { return a.now }
func (a *account) Instruments() []string { return slices.Clone(a.instruments) }
func (a *account) InitialFunds() float64 { return a.deposit }
func (a *account) Leverage() float64     { return a.leverage }

func (a *account) LastPrice(instrument string) (float64, error) {
	i, ok := a.index[instrument]
	if !ok {
		return 0, fmt.Errorf("last price %q: %w", instrument, domain.ErrUnknownInstrument)
	}
	if a.prices == nil {
		return 0, fmt.Errorf("last price %q: no tick yet: %w", instrument, domain.ErrInsufficientData)
	}
	return a.prices[i], nil
}

func (a *account) History(instrument string) (*domain.DoubleSeries, error) {
	i, ok := a.index[instrument]
	if !ok {
		return nil, fmt.Errorf("history %q: %w", instrument, domain.ErrUnknownInstrument)
	}
	return domain.NewDoubleSeries(instrument, a.history[i].Entries()...), nil
}

func (a *account) PL() float64 {
	pl := a.closedPL - a.commissions
	for _, o := range a.open {
		pl += o.PL(a.prices[a.index[o.Instrument]])
	}
	return pl
}

func (a *account) NetValue() float64 { return a.deposit + a.PL() }

func (a *account) AvailableFunds() float64 {
	margin := 0.0
	for _, o := range a.open {
		margin += math.Abs(float64(o.Amount)) * o.OpenPrice / a.leverage
	}
	return a.NetValue() - margin
}

func (a *account) Order(instrument string, buy bool, amount int) (domain.Order, error) {
	if amount <= 0 {
		return domain.Order{}, fmt.Errorf("order %s amount %d: %w", instrument, amount, domain.ErrInvalidOrder)
	}
	price, err := a.LastPrice(instrument)
	if err != nil {
		return domain.Order{}, err
	}
	if !buy {
		amount = -amount
	}

	o := domain.Order{
		ID:         a.nextID,
		Instrument: instrument,
		OpenedAt:   a.now,
		OpenPrice:  price,
		Amount:     amount,
	}
	a.nextID++
	a.commissions += a.commission(amount, price)
	a.open = append(a.open, o)
	return o, nil
}

func (a *account) Close(order domain.Order) (domain.ClosedOrder, error) {
	i := slices.IndexFunc(a.open, func(o domain.Order) bool { return o.ID == order.ID })
	if i < 0 {
		return domain.ClosedOrder{}, fmt.Errorf("close order %d: %w", order.ID, domain.ErrOrderNotOpen)
	}
	o := a.open[i]
	price := a.prices[a.index[o.Instrument]]

	c := domain.Close(o, price, a.now)
	a.closedPL += c.PL
	a.commissions += a.commission(o.Amount, price)
	a.closed = append(a.closed, c)
	a.open = slices.Delete(a.open, i, i+1)
	return c, nil
}

func (a *account) OpenOrders() []domain.Order { return slices.Clone(a.open) }

func (a *account) closeAll() error {
	for len(a.open) > 0 {
		if _, err := a.Close(a.open[0]); err != nil {
			return err
		}
	}
	return nil
}

// CommissionFunc returns the commission charged for one fill.
type CommissionFunc func(amount int, price float64) float64

// PerShare charges a fixed fee plus a per-share fee on every fill.
func PerShare(c domain.CommissionConfig) CommissionFunc {
	return func(amount int, _ float64) float64 {
		return c.Fixed + c.PerShare*math.Abs(float64(amount))
	}
}
