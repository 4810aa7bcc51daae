package runstore

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

// ListRuns reads the index, newest first. Malformed lines are skipped.
func (s *JSONStore) ListRuns() ([]domain.RunRef, error) {
	path := filepath.Join(s.dir(), indexFile)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.OpError{Op: "runstore.index", Kind: domain.KindExecution, Path: path, Err: err}
	}
	defer f.Close()

	var refs []domain.RunRef
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var il indexLine
		if err := json.Unmarshal([]byte(line), &il); err != nil {
			continue
		}
		refs = append(refs, domain.RunRef{
			ID:          il.ID,
			RunID:       il.RunID,
			Strategy:    il.Strategy,
			Instruments: il.Instruments,
			StartedAt:   il.StartedAt,
			PL:          il.PL,
			Return:      il.Return,
			MarginCall:  il.MarginCall,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.OpError{Op: "runstore.index", Kind: domain.KindExecution, Path: path, Err: err}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].StartedAt.Equal(refs[j].StartedAt) {
			return refs[i].ID > refs[j].ID
		}
		return refs[i].StartedAt.After(refs[j].StartedAt)
	})
	return refs, nil
}

// LoadRun reads the artifact saved under id.
func (s *JSONStore) LoadRun(id string) (domain.RunArtifact, error) {
	id = strings.TrimSuffix(strings.TrimSpace(id), ".json")
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return domain.RunArtifact{}, &domain.OpError{Op: "runstore.load", Kind: domain.KindInvalidConfig,
			Err: errors.New("invalid run id")}
	}

	path := filepath.Join(s.dir(), id+".json")
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.RunArtifact{}, &domain.OpError{Op: "runstore.load", Kind: domain.KindNotFound, Path: path,
			Err: domain.ErrNotFound}
	}
	if err != nil {
		return domain.RunArtifact{}, &domain.OpError{Op: "runstore.load", Kind: domain.KindExecution, Path: path, Err: err}
	}

	var rf runFile
	if err := json.Unmarshal(b, &rf); err != nil {
		return domain.RunArtifact{}, &domain.OpError{Op: "runstore.decode", Kind: domain.KindExecution, Path: path, Err: err}
	}
	return fromFile(rf), nil
}
