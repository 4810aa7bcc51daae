package domain

import "time"

// Metrics summarises a finished backtest.
type Metrics struct {
	InitialFunds     float64
	FinalValue       float64
	PL               float64
	Commissions      float64
	Return           float64
	AnnualizedReturn float64
	Sharpe           float64
	MaxDrawdown      float64
	MaxDrawdownPct   float64
	Ticks            int
	Orders           int
	WinRate          float64
	MarginCall       bool
}

// HistoryPoint is the account state recorded at one tick.
type HistoryPoint struct {
	Time           time.Time
	PL             float64
	AvailableFunds float64
}

// RunArtifact is the persisted form of a backtest run.
type RunArtifact struct {
	ID          string
	Strategy    string
	Params      map[string]string
	Instruments []string
	From        time.Time
	To          time.Time
	Deposit     float64
	Leverage    float64
	StartedAt   time.Time
	FinishedAt  time.Time
	Metrics     Metrics
	Orders      []ClosedOrder
	History     []HistoryPoint
	Diagnostics *MultiSeries
}

// RunRef is one line of the run index.
type RunRef struct {
	ID          string
	RunID       string
	Strategy    string
	Instruments []string
	StartedAt   time.Time
	PL          float64
	Return      float64
	MarginCall  bool
}

// BacktestRequest describes a backtest to run. Zero values fall back to workspace defaults.
type BacktestRequest struct {
	Strategy   string
	Symbols    []string
	Params     map[string]string
	Deposit    float64
	Leverage   float64
	Commission CommissionConfig
	From       time.Time
	To         time.Time
	Refresh    bool
}

// CachedSymbol describes a symbol stored in the price cache.
type CachedSymbol struct {
	Symbol    string
	Points    int
	First     time.Time
	Last      time.Time
	FetchedAt time.Time
}
