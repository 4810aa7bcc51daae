package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// Params is a typed view over string key/value strategy parameters.
// Lookups record the first parse failure; check Err after reading all values.
type Params struct {
	raw  map[string]string
	used map[string]bool
	err  error
}

func NewParams(raw map[string]string) *Params {
	return &Params{raw: raw, used: map[string]bool{}}
}

func (p *Params) Float(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *Params) Int(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *Params) Bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

// Err returns the first parse failure, or an error naming keys that were never read.
func (p *Params) Err() error {
	if p.err != nil {
		return p.err
	}
	var unknown []string
	for k := range p.raw {
		if !p.used[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown parameter(s): %s: %w", strings.Join(unknown, ", "), domain.ErrInvalidConfig)
	}
	return nil
}

func (p *Params) lookup(key string) (string, bool) {
	p.used[key] = true
	v, ok := p.raw[key]
	return strings.TrimSpace(v), ok
}

func (p *Params) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parameter %s=%q: %v: %w", key, value, err, domain.ErrInvalidConfig)
	}
}

// ParseKV parses "key=value" pairs as given on the command line.
func ParseKV(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("parameter %q: expected key=value: %w", kv, domain.ErrInvalidConfig)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
