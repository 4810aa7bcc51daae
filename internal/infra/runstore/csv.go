package runstore

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// OrdersHeader is the header row of an orders export.
var OrdersHeader = []string{"id", "amount", "side", "instrument", "from", "to", "open", "close", "pl"}

// WriteOrdersCSV writes closed orders, one per row.
func WriteOrdersCSV(w io.Writer, orders []domain.ClosedOrder) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OrdersHeader); err != nil {
		return err
	}
	for _, o := range orders {
		amount := o.Amount
		if amount < 0 {
			amount = -amount
		}
		if err := cw.Write([]string{
			strconv.Itoa(o.ID),
			strconv.Itoa(amount),
			o.Side(),
			o.Instrument,
			fmtDate(o.OpenedAt),
			fmtDate(o.ClosedAt),
			fmtFloat(o.OpenPrice),
			fmtFloat(o.ClosePrice),
			fmtFloat(o.PL),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHistoryCSV writes the per-tick P/L and available funds.
func WriteHistoryCSV(w io.Writer, history []domain.HistoryPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "pl", "available_funds"}); err != nil {
		return err
	}
	for _, h := range history {
		if err := cw.Write([]string{fmtDate(h.Time), fmtFloat(h.PL), fmtFloat(h.AvailableFunds)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSV writes a multi-column series with a leading time column.
func WriteSeriesCSV(w io.Writer, m *domain.MultiSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"time"}, m.Names()...)); err != nil {
		return err
	}
	for _, e := range m.All() {
		rec := make([]string, 0, len(e.Item)+1)
		rec = append(rec, fmtDate(e.Time))
		for _, v := range e.Item {
			rec = append(rec, fmtFloat(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
