package workspacefinder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ALPHAVANTAGE_API_KEY", "BACKTEST_CACHE_PATH", "BACKTEST_KAFKA_BROKERS", "BACKTEST_KAFKA_TOPIC"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	// Partial config (no paths/provider)
	writeFile(t, filepath.Join(root, "backtest.yaml"), "backtest:\n  deposit: 1000\n")

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Backtest.Deposit != 1000 {
		t.Fatalf("expected deposit=1000, got=%v", cfg.Backtest.Deposit)
	}
	if cfg.Backtest.Leverage != 4 {
		t.Fatalf("expected default leverage=4, got=%v", cfg.Backtest.Leverage)
	}
	if cfg.Backtest.Commission.PerShare != 0.005 {
		t.Fatalf("expected default per-share commission, got=%v", cfg.Backtest.Commission.PerShare)
	}
	if cfg.Paths.RunsDir != "runs" {
		t.Fatalf("expected runs dir=runs, got=%s", cfg.Paths.RunsDir)
	}
	if cfg.Provider.Function != "TIME_SERIES_DAILY_ADJUSTED" {
		t.Fatalf("expected default function, got=%s", cfg.Provider.Function)
	}
	if cfg.Events.Kafka.Enabled() {
		t.Fatalf("expected kafka disabled by default")
	}
}

func TestLoadConfig_FullFileAndSecretsOverlay(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "backtest.yaml"), `provider:
  base_url: http://localhost:9999
  api_key: from-config
  timeout: 5s
backtest:
  strategy: buyhold
  leverage: 2
  commission:
    fixed: 0
    per_share: 0.01
paths:
  runs_dir: out
  cache_path: cache/p.db
events:
  kafka:
    brokers: [a:9092, b:9092]
    topic: orders
`)
	writeFile(t, filepath.Join(root, "secrets.local.yaml"), "provider:\n  api_key: from-secrets\n")

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Provider.APIKey != "from-secrets" {
		t.Fatalf("expected secrets overlay, got=%s", cfg.Provider.APIKey)
	}
	if cfg.Provider.Timeout != 5*time.Second || cfg.Provider.BaseURL != "http://localhost:9999" {
		t.Fatalf("unexpected provider %+v", cfg.Provider)
	}
	if cfg.Backtest.Strategy != "buyhold" || cfg.Backtest.Leverage != 2 {
		t.Fatalf("unexpected backtest %+v", cfg.Backtest)
	}
	if cfg.Backtest.Commission.Fixed != 0 || cfg.Backtest.Commission.PerShare != 0.01 {
		t.Fatalf("expected explicit zero commission to apply, got %+v", cfg.Backtest.Commission)
	}
	if cfg.Paths.RunsDir != "out" || cfg.Paths.CachePath != "cache/p.db" {
		t.Fatalf("unexpected paths %+v", cfg.Paths)
	}
	if !cfg.Events.Kafka.Enabled() || len(cfg.Events.Kafka.Brokers) != 2 {
		t.Fatalf("expected kafka enabled, got %+v", cfg.Events.Kafka)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "backtest.yaml"), "provider:\n  api_key: from-config\n")

	t.Setenv("ALPHAVANTAGE_API_KEY", "from-env")
	t.Setenv("BACKTEST_CACHE_PATH", "/tmp/prices.db")
	t.Setenv("BACKTEST_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Provider.APIKey != "from-env" {
		t.Fatalf("expected env api key, got=%s", cfg.Provider.APIKey)
	}
	if cfg.Paths.CachePath != "/tmp/prices.db" {
		t.Fatalf("expected env cache path, got=%s", cfg.Paths.CachePath)
	}
	if len(cfg.Events.Kafka.Brokers) != 2 || cfg.Events.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Events.Kafka.Brokers)
	}
	if cfg.Events.Kafka.Topic != "backtest.orders" {
		t.Fatalf("expected default topic, got=%s", cfg.Events.Kafka.Topic)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig(t.TempDir())
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not_found for missing file, got %v", err)
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "backtest.yaml"), "provider: [broken")
	if _, err := LoadConfig(root); !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid_config for bad yaml, got %v", err)
	}

	root = t.TempDir()
	writeFile(t, filepath.Join(root, "backtest.yaml"), "provider:\n  timeout: soon\n")
	if _, err := LoadConfig(root); !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid_config for bad timeout, got %v", err)
	}
}
