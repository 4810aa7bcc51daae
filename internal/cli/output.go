package cli

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/runstore"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

type runView struct {
	ID          string            `json:"id"`
	SavedAs     string            `json:"saved_as,omitempty"`
	Strategy    string            `json:"strategy"`
	Params      map[string]string `json:"params,omitempty"`
	Instruments []string          `json:"instruments"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Deposit     float64           `json:"deposit"`
	Leverage    float64           `json:"leverage"`
	Metrics     metricsView       `json:"metrics"`
	Orders      []orderView       `json:"orders"`
}

type metricsView struct {
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

type orderView struct {
	ID         int     `json:"id"`
	Instrument string  `json:"instrument"`
	Side       string  `json:"side"`
	Amount     int     `json:"amount"`
	OpenedAt   string  `json:"opened_at"`
	ClosedAt   string  `json:"closed_at"`
	OpenPrice  float64 `json:"open_price"`
	ClosePrice float64 `json:"close_price"`
	PL         float64 `json:"pl"`
}

func toView(run domain.RunArtifact, savedAs string) runView {
	m := run.Metrics
	v := runView{
		ID:          run.ID,
		SavedAs:     savedAs,
		Strategy:    run.Strategy,
		Params:      run.Params,
		Instruments: run.Instruments,
		From:        day(run.From),
		To:          day(run.To),
		Deposit:     run.Deposit,
		Leverage:    run.Leverage,
		Metrics: metricsView{
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
		Orders: make([]orderView, 0, len(run.Orders)),
	}
	for _, o := range run.Orders {
		amount := o.Amount
		if amount < 0 {
			amount = -amount
		}
		v.Orders = append(v.Orders, orderView{
			ID:         o.ID,
			Instrument: o.Instrument,
			Side:       o.Side(),
			Amount:     amount,
			OpenedAt:   day(o.OpenedAt),
			ClosedAt:   day(o.ClosedAt),
			OpenPrice:  o.OpenPrice,
			ClosePrice: o.ClosePrice,
			PL:         o.PL,
		})
	}
	return v
}

// checkFormat rejects output formats printRun cannot render.
func checkFormat(format string) error {
	switch format {
	case "json", "csv", "pretty", "":
		return nil
	}
	return &domain.OpError{Op: "cli.format", Kind: domain.KindInvalidConfig,
		Err: fmt.Errorf("unsupported format %q (expected pretty|json|csv)", format)}
}

func printRun(w io.Writer, run domain.RunArtifact, savedAs string, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toView(run, savedAs))
	case "csv":
		return runstore.WriteOrdersCSV(w, run.Orders)
	default:
		printPrettyRun(w, run, savedAs)
		return nil
	}
}

func printPrettyRun(w io.Writer, run domain.RunArtifact, savedAs string) {
	m := run.Metrics

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  %s", run.Strategy, strings.Join(run.Instruments, "/"))))
	fmt.Fprintf(w, "Range:      %s .. %s (%d ticks)\n", day(run.From), day(run.To), m.Ticks)
	if len(run.Params) > 0 {
		fmt.Fprintf(w, "Params:     %s\n", formatParams(run.Params))
	}
	if run.ID != "" {
		fmt.Fprintf(w, "Run ID:     %s\n", run.ID)
	}
	if savedAs != "" {
		fmt.Fprintf(w, "Saved as:   %s\n", savedAs)
	}
	if m.MarginCall {
		fmt.Fprintln(w, warnStyle.Render("MARGIN CALL: run stopped early"))
	}
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Initial funds", money(m.InitialFunds)},
		{"Final value", money(m.FinalValue)},
		{"P/L", signed(m.PL)},
		{"Commissions", money(m.Commissions)},
		{"Return", percent(m.Return)},
		{"Annualized return", percent(m.AnnualizedReturn)},
		{"Sharpe", fixed(m.Sharpe)},
		{"Max drawdown", fmt.Sprintf("%s (%s)", money(m.MaxDrawdown), percent(m.MaxDrawdownPct))},
		{"Orders", m.Orders},
		{"Win rate", percent(m.WinRate)},
	})
	t.Render()

	if len(run.Orders) == 0 {
		fmt.Fprintln(w, "(no orders)")
		return
	}
	fmt.Fprintln(w)
	printOrders(w, run.Orders)
}

func printOrders(w io.Writer, orders []domain.ClosedOrder) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Instrument", "Side", "Amount", "Opened", "Closed", "Open", "Close", "P/L"})
	for _, o := range orders {
		amount := o.Amount
		if amount < 0 {
			amount = -amount
		}
		t.AppendRow(table.Row{
			o.ID, o.Instrument, o.Side(), amount,
			day(o.OpenedAt), day(o.ClosedAt),
			money(o.OpenPrice), money(o.ClosePrice), signed(o.PL),
		})
	}
	t.Render()
}

func printCachedSymbols(w io.Writer, syms []domain.CachedSymbol) {
	if len(syms) == 0 {
		fmt.Fprintln(w, "(no cached prices)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Symbol", "Points", "First", "Last", "Fetched"})
	for _, s := range syms {
		fetched := ""
		if !s.FetchedAt.IsZero() {
			fetched = s.FetchedAt.Local().Format(time.DateTime)
		}
		t.AppendRow(table.Row{s.Symbol, s.Points, day(s.First), day(s.Last), fetched})
	}
	t.Render()
}

func printRunRefs(w io.Writer, refs []domain.RunRef) {
	if len(refs) == 0 {
		fmt.Fprintln(w, "(no saved runs)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Strategy", "Instruments", "Started", "P/L", "Return", ""})
	for _, r := range refs {
		flag := ""
		if r.MarginCall {
			flag = "margin call"
		}
		t.AppendRow(table.Row{
			r.ID, r.Strategy, strings.Join(r.Instruments, "/"),
			r.StartedAt.Local().Format(time.DateTime), signed(r.PL), percent(r.Return), flag,
		})
	}
	t.Render()
}

// fixed rounds to cents; decimal panics on NaN and Inf.
func fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func money(v float64) string { return fixed(v) }

func signed(v float64) string {
	s := fixed(v)
	switch {
	case v > 0:
		return gainStyle.Render("+" + s)
	case v < 0:
		return lossStyle.Render(s)
	default:
		return s
	}
}

func percent(v float64) string {
	return fixed(v*100) + "%"
}

func formatParams(p map[string]string) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+p[k])
	}
	return strings.Join(parts, " ")
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}
