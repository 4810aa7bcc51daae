package runstore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

func sampleRun(start time.Time) domain.RunArtifact {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	diag := domain.NewMultiSeries("alpha", "beta")
	_ = diag.AppendRow(day(2), []float64{0.1, 1.9})
	_ = diag.AppendRow(day(3), []float64{0.2, 2.0})

	return domain.RunArtifact{
		ID:          "0b7e2a56-0000-4000-8000-000000000001",
		Strategy:    "cointegration",
		Params:      map[string]string{"window": "15"},
		Instruments: []string{"AAPL", "AMZN"},
		From:        day(2),
		To:          day(3),
		Deposit:     15000,
		Leverage:    4,
		StartedAt:   start,
		FinishedAt:  start.Add(2 * time.Second),
		Metrics:     domain.Metrics{InitialFunds: 15000, FinalValue: 15010.5, PL: 10.5, Orders: 2, Ticks: 2},
		Orders: []domain.ClosedOrder{
			domain.Close(domain.Order{ID: 1, Instrument: "AMZN", OpenedAt: day(2), OpenPrice: 100, Amount: 10}, 102, day(3)),
			domain.Close(domain.Order{ID: 2, Instrument: "AAPL", OpenedAt: day(2), OpenPrice: 50, Amount: -19}, 50.5, day(3)),
		},
		History: []domain.HistoryPoint{
			{Time: day(2), PL: 0, AvailableFunds: 15000},
			{Time: day(3), PL: 10.5, AvailableFunds: 14500},
		},
		Diagnostics: diag,
	}
}

func TestSaveRun_CreatesJSONAndExports(t *testing.T) {
	tmp := t.TempDir()
	store := NewJSONStore(tmp, domain.DefaultConfig())

	start := time.Date(2026, 2, 3, 10, 11, 12, 0, time.UTC)
	id, err := store.SaveRun(sampleRun(start))
	if err != nil {
		t.Fatalf("SaveRun error: %v", err)
	}
	if id != "20260203T101112Z_cointegration-aapl-amzn" {
		t.Fatalf("unexpected id %q", id)
	}

	dir := filepath.Join(tmp, "runs")
	for _, suffix := range []string{".json", ".orders.csv", ".stats.csv", ".diagnostics.csv"} {
		if _, err := os.Stat(filepath.Join(dir, id+suffix)); err != nil {
			t.Fatalf("expected %s: %v", suffix, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, id+".json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("expected tmp file to be renamed away")
	}

	b, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["strategy"] != "cointegration" {
		t.Fatalf("expected strategy, got %v", decoded["strategy"])
	}

	orders, err := os.ReadFile(filepath.Join(dir, id+".orders.csv"))
	if err != nil {
		t.Fatalf("read orders: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(orders)), "\n")
	if lines[0] != "id,amount,side,instrument,from,to,open,close,pl" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[2] != "2,19,sell,AAPL,2024-01-02,2024-01-03,50,50.5,-9.5" {
		t.Fatalf("unexpected order row %q", lines[2])
	}
}

func TestSaveRun_CollisionGetsSuffix(t *testing.T) {
	tmp := t.TempDir()
	store := NewJSONStore(tmp, domain.DefaultConfig(), WithCSV(false))
	start := time.Date(2026, 2, 3, 10, 11, 12, 0, time.UTC)

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := store.SaveRun(sampleRun(start))
		if err != nil {
			t.Fatalf("SaveRun error: %v", err)
		}
		ids = append(ids, id)
	}

	base := "20260203T101112Z_cointegration-aapl-amzn"
	want := []string{base, base + "_2", base + "_3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("id %d = %q want %q", i, ids[i], want[i])
		}
	}
}

func TestSaveRun_ReportsIndexFailure(t *testing.T) {
	tmp := t.TempDir()
	// a directory where the index file should be makes the append fail
	if err := os.MkdirAll(filepath.Join(tmp, "runs", "index.jsonl"), 0o755); err != nil {
		t.Fatal(err)
	}
	store := NewJSONStore(tmp, domain.DefaultConfig(), WithCSV(false))

	id, err := store.SaveRun(sampleRun(time.Date(2026, 2, 3, 10, 11, 12, 0, time.UTC)))
	if !domain.IsKind(err, domain.KindExecution) || !strings.Contains(err.Error(), "runstore.index") {
		t.Fatalf("expected runstore.index execution error, got %v", err)
	}
	if id == "" {
		t.Fatal("expected the id of the written run")
	}
	if _, statErr := os.Stat(filepath.Join(tmp, "runs", id+".json")); statErr != nil {
		t.Fatalf("expected run file kept: %v", statErr)
	}
}

func TestSaveRun_UsesNowWhenStartIsZero(t *testing.T) {
	tmp := t.TempDir()
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	store := NewJSONStore(tmp, domain.DefaultConfig(), WithNow(func() time.Time { return now }))

	run := sampleRun(time.Time{})
	run.Strategy = ""
	run.Instruments = nil

	id, err := store.SaveRun(run)
	if err != nil {
		t.Fatalf("SaveRun error: %v", err)
	}
	if id != "20260506T070809Z_run" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestListAndLoadRuns(t *testing.T) {
	tmp := t.TempDir()
	store := NewJSONStore(tmp, domain.DefaultConfig())

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	oldID, err := store.SaveRun(sampleRun(older))
	if err != nil {
		t.Fatalf("SaveRun error: %v", err)
	}
	newID, err := store.SaveRun(sampleRun(newer))
	if err != nil {
		t.Fatalf("SaveRun error: %v", err)
	}

	// a broken line must not hide the others
	f, err := os.OpenFile(filepath.Join(tmp, "runs", "index.jsonl"), os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	_, _ = f.WriteString("{not json\n")
	_ = f.Close()

	refs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns error: %v", err)
	}
	if len(refs) != 2 || refs[0].ID != newID || refs[1].ID != oldID {
		t.Fatalf("expected newest first, got %+v", refs)
	}
	if refs[0].PL != 10.5 || refs[0].Strategy != "cointegration" {
		t.Fatalf("unexpected ref %+v", refs[0])
	}

	got, err := store.LoadRun(newID)
	if err != nil {
		t.Fatalf("LoadRun error: %v", err)
	}
	if len(got.Orders) != 2 || got.Orders[1].Amount != -19 || got.Orders[1].PL != -9.5 {
		t.Fatalf("unexpected orders %+v", got.Orders)
	}
	if got.Diagnostics == nil || got.Diagnostics.Len() != 2 {
		t.Fatalf("expected diagnostics to round trip")
	}
	if beta, _ := got.Diagnostics.Column("beta"); beta.Last() != 2.0 {
		t.Fatalf("unexpected beta column %v", beta.Values())
	}
	if !got.StartedAt.Equal(newer) {
		t.Fatalf("unexpected start %s", got.StartedAt)
	}
}

func TestLoadRunErrors(t *testing.T) {
	store := NewJSONStore(t.TempDir(), domain.DefaultConfig())

	if _, err := store.LoadRun("missing"); !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if _, err := store.LoadRun("../etc/passwd"); !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid_config, got %v", err)
	}

	refs, err := store.ListRuns()
	if err != nil || len(refs) != 0 {
		t.Fatalf("expected empty list without index, got %v %v", refs, err)
	}
}

func TestWriteSeriesCSV(t *testing.T) {
	m := domain.NewMultiSeries("a", "b")
	_ = m.AppendRow(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), []float64{1, 2.5})

	var buf bytes.Buffer
	if err := WriteSeriesCSV(&buf, m); err != nil {
		t.Fatalf("WriteSeriesCSV error: %v", err)
	}
	want := "time,a,b\n2024-01-02,1,2.5\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"cointegration AAPL AMZN": "cointegration-aapl-amzn",
		"  Buy & Hold!  ":         "buy-hold",
		"BRK.B":                   "brk-b",
		"":                        "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q)=%q want %q", in, got, want)
		}
	}
}
