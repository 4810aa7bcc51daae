package runstore

import (
	"time"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// runFile is the on-disk JSON shape of a run artifact.
type runFile struct {
	ID          string            `json:"id"`
	Strategy    string            `json:"strategy"`
	Params      map[string]string `json:"params,omitempty"`
	Instruments []string          `json:"instruments"`
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Deposit     float64           `json:"deposit"`
	Leverage    float64           `json:"leverage"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Metrics     metricsFile       `json:"metrics"`
	Orders      []orderFile       `json:"orders"`
	History     []historyFile     `json:"history"`
	Diagnostics *diagnosticsFile  `json:"diagnostics,omitempty"`
}

type metricsFile struct {
	InitialFunds     float64 `json:"initial_funds"`
	FinalValue       float64 `json:"final_value"`
	PL               float64 `json:"pl"`
	Commissions      float64 `json:"commissions"`
	Return           float64 `json:"return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Sharpe           float64 `json:"sharpe"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	Ticks            int     `json:"ticks"`
	Orders           int     `json:"orders"`
	WinRate          float64 `json:"win_rate"`
	MarginCall       bool    `json:"margin_call"`
}

type orderFile struct {
	ID         int       `json:"id"`
	Instrument string    `json:"instrument"`
	Amount     int       `json:"amount"`
	OpenedAt   time.Time `json:"opened_at"`
	OpenPrice  float64   `json:"open_price"`
	ClosedAt   time.Time `json:"closed_at"`
	ClosePrice float64   `json:"close_price"`
	PL         float64   `json:"pl"`
}

type historyFile struct {
	Time           time.Time `json:"time"`
	PL             float64   `json:"pl"`
	AvailableFunds float64   `json:"available_funds"`
}

type diagnosticsFile struct {
	Columns []string  `json:"columns"`
	Rows    []rowFile `json:"rows"`
}

type rowFile struct {
	Time   time.Time `json:"time"`
	Values []float64 `json:"values"`
}

func toFile(run domain.RunArtifact) runFile {
	m := run.Metrics
	out := runFile{
		ID:          run.ID,
		Strategy:    run.Strategy,
		Params:      run.Params,
		Instruments: run.Instruments,
		From:        run.From,
		To:          run.To,
		Deposit:     run.Deposit,
		Leverage:    run.Leverage,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Metrics: metricsFile{
			InitialFunds:     m.InitialFunds,
			FinalValue:       m.FinalValue,
			PL:               m.PL,
			Commissions:      m.Commissions,
			Return:           m.Return,
			AnnualizedReturn: m.AnnualizedReturn,
			Sharpe:           m.Sharpe,
			MaxDrawdown:      m.MaxDrawdown,
			MaxDrawdownPct:   m.MaxDrawdownPct,
			Ticks:            m.Ticks,
			Orders:           m.Orders,
			WinRate:          m.WinRate,
			MarginCall:       m.MarginCall,
		},
		Orders:  make([]orderFile, 0, len(run.Orders)),
		History: make([]historyFile, 0, len(run.History)),
	}
	for _, o := range run.Orders {
		out.Orders = append(out.Orders, orderFile{
			ID:         o.ID,
			Instrument: o.Instrument,
			Amount:     o.Amount,
			OpenedAt:   o.OpenedAt,
			OpenPrice:  o.OpenPrice,
			ClosedAt:   o.ClosedAt,
			ClosePrice: o.ClosePrice,
			PL:         o.PL,
		})
	}
	for _, h := range run.History {
		out.History = append(out.History, historyFile(h))
	}
	if d := run.Diagnostics; d != nil && d.Len() > 0 {
		df := &diagnosticsFile{Columns: d.Names(), Rows: make([]rowFile, 0, d.Len())}
		for _, e := range d.All() {
			df.Rows = append(df.Rows, rowFile{Time: e.Time, Values: e.Item})
		}
		out.Diagnostics = df
	}
	return out
}

func fromFile(f runFile) domain.RunArtifact {
	m := f.Metrics
	out := domain.RunArtifact{
		ID:          f.ID,
		Strategy:    f.Strategy,
		Params:      f.Params,
		Instruments: f.Instruments,
		From:        f.From,
		To:          f.To,
		Deposit:     f.Deposit,
		Leverage:    f.Leverage,
		StartedAt:   f.StartedAt,
		FinishedAt:  f.FinishedAt,
		Metrics: domain.Metrics{
			InitialFunds:     m.InitialFunds,
			FinalValue:       m.FinalValue,
			PL:               m.PL,
			Commissions:      m.Commissions,
			Return:           m.Return,
			AnnualizedReturn: m.AnnualizedReturn,
			Sharpe:           m.Sharpe,
			MaxDrawdown:      m.MaxDrawdown,
			MaxDrawdownPct:   m.MaxDrawdownPct,
			Ticks:            m.Ticks,
			Orders:           m.Orders,
			WinRate:          m.WinRate,
			MarginCall:       m.MarginCall,
		},
		Orders:  make([]domain.ClosedOrder, 0, len(f.Orders)),
		History: make([]domain.HistoryPoint, 0, len(f.History)),
	}
	for _, o := range f.Orders {
		out.Orders = append(out.Orders, domain.ClosedOrder{
			Order: domain.Order{
				ID:         o.ID,
				Instrument: o.Instrument,
				OpenedAt:   o.OpenedAt,
				OpenPrice:  o.OpenPrice,
				Amount:     o.Amount,
			},
			ClosePrice: o.ClosePrice,
			ClosedAt:   o.ClosedAt,
			PL:         o.PL,
		})
	}
	for _, h := range f.History {
		out.History = append(out.History, domain.HistoryPoint(h))
	}
	if f.Diagnostics != nil {
		d := domain.NewMultiSeries(f.Diagnostics.Columns...)
		for _, r := range f.Diagnostics.Rows {
			// rows were written from a consistent series; a width mismatch means a hand-edited file
			if err := d.AppendRow(r.Time, r.Values); err != nil {
				break
			}
		}
		out.Diagnostics = d
	}
	return out
}
