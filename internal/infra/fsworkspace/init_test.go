package fsworkspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/infra/workspacefinder"
)

func TestInitializer_Init_CreatesWorkspaceFiles(t *testing.T) {
	tmp := t.TempDir()

	i := NewInitializer()
	if err := i.Init(domain.WorkspaceSpec{Root: tmp}, false); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	assertFileExists(t, filepath.Join(tmp, "backtest.yaml"))
	assertFileExists(t, filepath.Join(tmp, "runs"))
	assertFileExists(t, filepath.Join(tmp, "data"))
	assertFileExists(t, filepath.Join(tmp, ".backtest", "logs"))

	secretPath := filepath.Join(tmp, "secrets.local.yaml")
	assertFileExists(t, secretPath)
	info, err := os.Stat(secretPath)
	if err != nil {
		t.Fatalf("stat secrets file: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Fatalf("expected secrets file mode 600, got %o", got)
	}
}

func TestInitializer_Init_TemplateLoads(t *testing.T) {
	tmp := t.TempDir()
	for _, k := range []string{"ALPHAVANTAGE_API_KEY", "BACKTEST_CACHE_PATH", "BACKTEST_KAFKA_BROKERS", "BACKTEST_KAFKA_TOPIC"} {
		t.Setenv(k, "")
	}

	if err := NewInitializer().Init(domain.WorkspaceSpec{Root: tmp}, false); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	cfg, err := workspacefinder.LoadConfig(tmp)
	if err != nil {
		t.Fatalf("LoadConfig on template: %v", err)
	}
	if cfg.Backtest.Deposit != 15000 {
		t.Fatalf("unexpected deposit %v", cfg.Backtest.Deposit)
	}
	if cfg.Events.Kafka.Enabled() {
		t.Fatalf("expected kafka disabled in template")
	}
}

func TestInitializer_Init_SkipsExistingFilesUnlessForce(t *testing.T) {
	tmp := t.TempDir()

	cfgYAML := filepath.Join(tmp, "backtest.yaml")
	if err := os.WriteFile(cfgYAML, []byte("custom\n"), 0o644); err != nil {
		t.Fatalf("write existing backtest.yaml: %v", err)
	}

	i := NewInitializer()

	if err := i.Init(domain.WorkspaceSpec{Root: tmp}, false); err != nil {
		t.Fatalf("Init (force=false) error: %v", err)
	}

	b, err := os.ReadFile(cfgYAML)
	if err != nil {
		t.Fatalf("read backtest.yaml: %v", err)
	}
	if string(b) != "custom\n" {
		t.Fatalf("expected backtest.yaml preserved, got %q", string(b))
	}

	if err := i.Init(domain.WorkspaceSpec{Root: tmp}, true); err != nil {
		t.Fatalf("Init (force=true) error: %v", err)
	}

	b, err = os.ReadFile(cfgYAML)
	if err != nil {
		t.Fatalf("read backtest.yaml after force: %v", err)
	}
	if !strings.Contains(string(b), "provider:") {
		t.Fatalf("expected backtest.yaml overwritten with template, got %q", string(b))
	}
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file %s, stat err=%v", path, err)
	}
}
