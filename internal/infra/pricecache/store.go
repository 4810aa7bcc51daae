// Package pricecache stores downloaded price series in a local SQLite database.
package pricecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

const memoryPath = ":memory:"

// Store implements ports.PriceCache on SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (and migrates) the cache at path. Use ":memory:" for a throwaway cache.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &domain.OpError{Op: "pricecache.open", Kind: domain.KindInvalidConfig,
			Err: errors.New("cache path is required")}
	}

	dsn := memoryPath
	if path != memoryPath {
		path = filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &domain.OpError{Op: "pricecache.open", Kind: domain.KindExecution, Path: path, Err: err}
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &domain.OpError{Op: "pricecache.open", Kind: domain.KindExecution, Path: path, Err: err}
	}
	// one connection: keeps ":memory:" a single database and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, &domain.OpError{Op: "pricecache.open", Kind: domain.KindExecution, Path: path, Err: err}
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, &domain.OpError{Op: "pricecache.migrate", Kind: domain.KindExecution, Path: path, Err: err}
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string { return s.path }

// Load returns the cached series of symbol in ascending order.
func (s *Store) Load(ctx context.Context, symbol string) (*domain.DoubleSeries, error) {
	var fetched int64
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM symbols WHERE symbol = ?`, symbol).Scan(&fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.OpError{Op: "pricecache.load", Kind: domain.KindNotFound, Path: s.path,
			Err: fmt.Errorf("%s: %w", symbol, domain.ErrNotFound)}
	}
	if err != nil {
		return nil, &domain.OpError{Op: "pricecache.load", Kind: domain.KindExecution, Path: s.path, Err: err}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT ts, price FROM prices WHERE symbol = ? ORDER BY ts`, symbol)
	if err != nil {
		return nil, &domain.OpError{Op: "pricecache.load", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	defer rows.Close()

	out := domain.NewDoubleSeries(symbol)
	for rows.Next() {
		var (
			ts    int64
			price float64
		)
		if err := rows.Scan(&ts, &price); err != nil {
			return nil, &domain.OpError{Op: "pricecache.load", Kind: domain.KindExecution, Path: s.path, Err: err}
		}
		out.Add(price, time.Unix(ts, 0).UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.OpError{Op: "pricecache.load", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	return out, nil
}

// Save replaces the cached series of series.Name.
func (s *Store) Save(ctx context.Context, series *domain.DoubleSeries) error {
	if series == nil || strings.TrimSpace(series.Name) == "" {
		return &domain.OpError{Op: "pricecache.save", Kind: domain.KindInvalidConfig,
			Err: errors.New("series needs a symbol name")}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.OpError{Op: "pricecache.save", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO symbols (symbol, fetched_at) VALUES (?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET fetched_at = excluded.fetched_at`,
		series.Name, s.now().UTC().UnixMilli(),
	); err != nil {
		return &domain.OpError{Op: "pricecache.save", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM prices WHERE symbol = ?`, series.Name); err != nil {
		return &domain.OpError{Op: "pricecache.save", Kind: domain.KindExecution, Path: s.path, Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO prices (symbol, ts, price) VALUES (?, ?, ?)`)
	if err != nil {
		return &domain.OpError{Op: "pricecache.save", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	defer stmt.Close()

	for _, e := range series.All() {
		if _, err := stmt.ExecContext(ctx, series.Name, e.Time.UTC().Unix(), e.Item); err != nil {
			return &domain.OpError{Op: "pricecache.save", Kind: domain.KindExecution, Path: s.path, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.OpError{Op: "pricecache.save", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	return nil
}

// List describes every cached symbol, ordered by symbol.
func (s *Store) List(ctx context.Context) ([]domain.CachedSymbol, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.symbol, s.fetched_at, COUNT(p.ts), MIN(p.ts), MAX(p.ts)
		FROM symbols s
		LEFT JOIN prices p ON p.symbol = s.symbol
		GROUP BY s.symbol, s.fetched_at
		ORDER BY s.symbol`)
	if err != nil {
		return nil, &domain.OpError{Op: "pricecache.list", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	defer rows.Close()

	var out []domain.CachedSymbol
	for rows.Next() {
		var (
			cs          domain.CachedSymbol
			fetched     int64
			first, last sql.NullInt64
		)
		if err := rows.Scan(&cs.Symbol, &fetched, &cs.Points, &first, &last); err != nil {
			return nil, &domain.OpError{Op: "pricecache.list", Kind: domain.KindExecution, Path: s.path, Err: err}
		}
		cs.FetchedAt = time.UnixMilli(fetched).UTC()
		if first.Valid {
			cs.First = time.Unix(first.Int64, 0).UTC()
		}
		if last.Valid {
			cs.Last = time.Unix(last.Int64, 0).UTC()
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.OpError{Op: "pricecache.list", Kind: domain.KindExecution, Path: s.path, Err: err}
	}
	return out, nil
}
