// Package csvprices reads offline price files with a date and a price column.
package csvprices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006/01/02", "01/02/2006"}

// ReadFile reads path into an ascending series named symbol.
func ReadFile(path, symbol string) (*domain.DoubleSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return nil, &domain.OpError{Op: "csvprices.open", Kind: kind, Path: path, Err: err}
	}
	defer f.Close()

	s, err := Read(f, symbol)
	if err != nil {
		var oe *domain.OpError
		if errors.As(err, &oe) {
			oe.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Read parses rows of date,price. A header row is skipped when its price
// column is not numeric. Extra columns are ignored.
func Read(r io.Reader, symbol string) (*domain.DoubleSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var entries []domain.Entry[float64]
	seen := map[time.Time]bool{}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.OpError{Op: "csvprices.read", Kind: domain.KindInvalidConfig, Err: err}
		}
		if len(rec) < 2 {
			return nil, &domain.OpError{Op: "csvprices.read", Kind: domain.KindInvalidConfig,
				Err: fmt.Errorf("line %d: expected date,price", line)}
		}

		price, perr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if perr != nil && line == 1 {
			continue
		}
		if perr != nil {
			return nil, &domain.OpError{Op: "csvprices.read", Kind: domain.KindInvalidConfig,
				Err: fmt.Errorf("line %d: price %q: %w", line, rec[1], perr)}
		}
		if !validPrice(price) {
			return nil, &domain.OpError{Op: "csvprices.read", Kind: domain.KindInvalidConfig,
				Err: fmt.Errorf("line %d: price %q must be finite and positive", line, rec[1])}
		}
		t, err := parseDate(rec[0])
		if err != nil {
			return nil, &domain.OpError{Op: "csvprices.read", Kind: domain.KindInvalidConfig,
				Err: fmt.Errorf("line %d: %w", line, err)}
		}
		if seen[t] {
			return nil, &domain.OpError{Op: "csvprices.read", Kind: domain.KindInvalidConfig,
				Err: fmt.Errorf("line %d: duplicate date %s", line, rec[0])}
		}
		seen[t] = true
		entries = append(entries, domain.Entry[float64]{Time: t, Item: price})
	}

	if len(entries) == 0 {
		return nil, &domain.OpError{Op: "csvprices.read", Kind: domain.KindInsufficientData,
			Err: domain.ErrInsufficientData}
	}
	slices.SortFunc(entries, func(a, b domain.Entry[float64]) int { return a.Time.Compare(b.Time) })
	return domain.NewDoubleSeries(symbol, entries...), nil
}

func validPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FileReader reads price files from disk.
type FileReader struct{}

func (FileReader) ReadPrices(path, symbol string) (*domain.DoubleSeries, error) {
	return ReadFile(path, symbol)
}
