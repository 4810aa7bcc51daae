package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// maxOrderLines bounds the order list shown in the summary card.
const maxOrderLines = 200

func clampString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))

	n := 0
	for _, r := range s {
		if n >= maxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String() + "…"
}

func money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return money(v*100) + "%"
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func renderRunSummary(run domain.RunArtifact) string {
	var b strings.Builder
	m := run.Metrics

	b.WriteString(fmt.Sprintf("%s  %s\n", run.Strategy, strings.Join(run.Instruments, "/")))
	b.WriteString(fmt.Sprintf("Run:    %s\n", run.ID))
	b.WriteString(fmt.Sprintf("Range:  %s .. %s (%d ticks)\n", day(run.From), day(run.To), m.Ticks))
	if len(run.Params) > 0 {
		keys := make([]string, 0, len(run.Params))
		for k := range run.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Params:")
		for _, k := range keys {
			b.WriteString(" ")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(run.Params[k])
		}
		b.WriteString("\n")
	}
	if m.MarginCall {
		b.WriteString("\nMARGIN CALL: run stopped early\n")
	}

	b.WriteString("\nMetrics:\n")
	b.WriteString(fmt.Sprintf("  Initial funds      %s\n", money(m.InitialFunds)))
	b.WriteString(fmt.Sprintf("  Final value        %s\n", money(m.FinalValue)))
	b.WriteString(fmt.Sprintf("  P/L                %s\n", money(m.PL)))
	b.WriteString(fmt.Sprintf("  Commissions        %s\n", money(m.Commissions)))
	b.WriteString(fmt.Sprintf("  Return             %s\n", percent(m.Return)))
	b.WriteString(fmt.Sprintf("  Annualized return  %s\n", percent(m.AnnualizedReturn)))
	b.WriteString(fmt.Sprintf("  Sharpe             %s\n", money(m.Sharpe)))
	b.WriteString(fmt.Sprintf("  Max drawdown       %s (%s)\n", money(m.MaxDrawdown), percent(m.MaxDrawdownPct)))
	b.WriteString(fmt.Sprintf("  Win rate           %s\n", percent(m.WinRate)))

	b.WriteString(fmt.Sprintf("\nOrders (%d):\n", len(run.Orders)))
	if len(run.Orders) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, o := range run.Orders {
		if i == maxOrderLines {
			b.WriteString(fmt.Sprintf("  … %d more\n", len(run.Orders)-maxOrderLines))
			break
		}
		amount := o.Amount
		if amount < 0 {
			amount = -amount
		}
		b.WriteString(fmt.Sprintf("  %4d %-4s %6d %-8s %s → %s  %s → %s  %s\n",
			o.ID, o.Side(), amount, clampString(o.Instrument, 8),
			day(o.OpenedAt), day(o.ClosedAt),
			money(o.OpenPrice), money(o.ClosePrice), money(o.PL)))
	}

	return b.String()
}
