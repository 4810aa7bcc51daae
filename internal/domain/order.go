package domain

import "time"

// Order is an open position in one instrument. Amount is signed: positive is long, negative is short.
type Order struct {
	ID         int
	Instrument string
	OpenedAt   time.Time
	OpenPrice  float64
	Amount     int
}

func (o Order) IsLong() bool { return o.Amount > 0 }

// Side returns "buy" for long orders and "sell" for short ones.
func (o Order) Side() string {
	if o.IsLong() {
		return "buy"
	}
	return "sell"
}

// PL is the unrealised profit or loss at price.
func (o Order) PL(price float64) float64 {
	return float64(o.Amount) * (price - o.OpenPrice)
}

// ClosedOrder is an order after it was closed at ClosePrice.
type ClosedOrder struct {
	Order
	ClosePrice float64
	ClosedAt   time.Time
	PL         float64
}

// Close realises o at price and time t.
func Close(o Order, price float64, t time.Time) ClosedOrder {
	return ClosedOrder{
		Order:      o,
		ClosePrice: price,
		ClosedAt:   t,
		PL:         o.PL(price),
	}
}
