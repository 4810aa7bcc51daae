package runstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
)

const (
	defaultRunsDir = "runs"
	indexFile      = "index.jsonl"
)

type JSONStore struct {
	rootDir     string
	runsDirName string
	writeIndex  bool
	writeCSV    bool
	now         func() time.Time
}

type Option func(*JSONStore)

// WithIndex toggles the JSONL index at runs/index.jsonl (default on).
func WithIndex(enabled bool) Option {
	return func(s *JSONStore) { s.writeIndex = enabled }
}

// WithCSV toggles the CSV exports written next to each run (default on).
func WithCSV(enabled bool) Option {
	return func(s *JSONStore) { s.writeCSV = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

func NewJSONStore(root string, cfg domain.Config, opts ...Option) *JSONStore {
	runsDir := cfg.Paths.RunsDir
	if strings.TrimSpace(runsDir) == "" {
		runsDir = defaultRunsDir
	}

	s := &JSONStore{
		rootDir:     root,
		runsDirName: runsDir,
		writeIndex:  true,
		writeCSV:    true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ ports.ArtifactStore = (*JSONStore)(nil)
	_ ports.RunCatalog    = (*JSONStore)(nil)
)

func (s *JSONStore) dir() string {
	if filepath.IsAbs(s.runsDirName) {
		return s.runsDirName
	}
	return filepath.Join(s.rootDir, s.runsDirName)
}

// SaveRun writes <ts>_<slug>.json plus CSV exports and returns the file id.
func (s *JSONStore) SaveRun(run domain.RunArtifact) (string, error) {
	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "runstore.mkdir",
			Kind: domain.KindExecution,
			Path: dir,
			Err:  err,
		}
	}

	ts := run.StartedAt
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	toSave := run
	if toSave.StartedAt.IsZero() {
		toSave.StartedAt = ts
	}

	slug := slugify(strings.Join(append([]string{run.Strategy}, run.Instruments...), " "))
	if slug == "" {
		slug = "run"
	}
	id := uniqueID(dir, fmt.Sprintf("%s_%s", ts.Format("20060102T150405Z"), slug))
	path := filepath.Join(dir, id+".json")

	b, err := json.MarshalIndent(toFile(toSave), "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "runstore.marshal",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}
	if err := writeAtomic(path, b); err != nil {
		return "", err
	}

	if s.writeCSV {
		if err := s.writeExports(dir, id, toSave); err != nil {
			return id, err
		}
	}

	if s.writeIndex {
		if err := s.appendIndex(dir, id, toSave); err != nil {
			return id, err
		}
	}

	return id, nil
}

func (s *JSONStore) writeExports(dir, id string, run domain.RunArtifact) error {
	exports := []struct {
		suffix string
		write  func(io.Writer) error
	}{
		{".orders.csv", func(w io.Writer) error { return WriteOrdersCSV(w, run.Orders) }},
		{".stats.csv", func(w io.Writer) error { return WriteHistoryCSV(w, run.History) }},
	}
	if run.Diagnostics != nil && run.Diagnostics.Len() > 0 {
		exports = append(exports, struct {
			suffix string
			write  func(io.Writer) error
		}{".diagnostics.csv", func(w io.Writer) error { return WriteSeriesCSV(w, run.Diagnostics) }})
	}

	for _, e := range exports {
		path := filepath.Join(dir, id+e.suffix)
		var buf bytes.Buffer
		if err := e.write(&buf); err != nil {
			return &domain.OpError{
				Op:   "runstore.csv",
				Kind: domain.KindExecution,
				Path: path,
				Err:  err,
			}
		}
		if err := writeAtomic(path, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

type indexLine struct {
	ID          string    `json:"id"`
	File        string    `json:"file"`
	RunID       string    `json:"run_id"`
	Strategy    string    `json:"strategy"`
	Instruments []string  `json:"instruments"`
	StartedAt   time.Time `json:"started_at"`
	PL          float64   `json:"pl"`
	Return      float64   `json:"return"`
	MarginCall  bool      `json:"margin_call"`
}

func (s *JSONStore) appendIndex(dir, id string, run domain.RunArtifact) error {
	indexPath := filepath.Join(dir, indexFile)
	fail := func(err error) error {
		return &domain.OpError{Op: "runstore.index", Kind: domain.KindExecution, Path: indexPath, Err: err}
	}

	line, err := json.Marshal(indexLine{
		ID:          id,
		File:        id + ".json",
		RunID:       run.ID,
		Strategy:    run.Strategy,
		Instruments: run.Instruments,
		StartedAt:   run.StartedAt,
		PL:          run.Metrics.PL,
		Return:      run.Metrics.Return,
		MarginCall:  run.Metrics.MarginCall,
	})
	if err != nil {
		return fail(err)
	}

	f, err := os.OpenFile(indexPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fail(err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	return nil
}

// writeAtomic writes to a temp file and renames it over path.
func writeAtomic(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return &domain.OpError{
			Op:   "runstore.write",
			Kind: domain.KindExecution,
			Path: tmp,
			Err:  err,
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &domain.OpError{
			Op:   "runstore.rename",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}
	return nil
}

// uniqueID appends _2, _3, ... to base until no run file uses it.
func uniqueID(dir, base string) string {
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, id+".json")); os.IsNotExist(err) {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

// slugify produces a safe filename component.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
