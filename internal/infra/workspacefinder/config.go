package workspacefinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

const (
	ConfigFile  = "backtest.yaml"
	SecretsFile = "secrets.local.yaml"
)

// LoadConfig loads backtest.yaml from the workspace root and applies defaults,
// then the optional secrets.local.yaml overlay, then environment overrides.
func LoadConfig(root string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	path := filepath.Join(root, ConfigFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}
	if err := applyYAML(&cfg, b, path); err != nil {
		return cfg, err
	}

	secretsPath := filepath.Join(root, SecretsFile)
	sb, err := os.ReadFile(secretsPath)
	switch {
	case err == nil:
		if err := applyYAML(&cfg, sb, secretsPath); err != nil {
			return cfg, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, &domain.OpError{
			Op:   "workspacefinder.secrets",
			Kind: domain.KindExecution,
			Path: secretsPath,
			Err:  err,
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

type yamlConfig struct {
	Provider struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Function string `yaml:"function"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"provider"`

	Backtest struct {
		Strategy   string   `yaml:"strategy"`
		Deposit    *float64 `yaml:"deposit"`
		Leverage   *float64 `yaml:"leverage"`
		Commission struct {
			Fixed    *float64 `yaml:"fixed"`
			PerShare *float64 `yaml:"per_share"`
		} `yaml:"commission"`
	} `yaml:"backtest"`

	Paths struct {
		RunsDir   string `yaml:"runs_dir"`
		CachePath string `yaml:"cache_path"`
	} `yaml:"paths"`

	Events struct {
		Kafka struct {
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
	} `yaml:"events"`
}

func applyYAML(cfg *domain.Config, b []byte, path string) error {
	var y yamlConfig
	if err := yaml.Unmarshal(b, &y); err != nil {
		return &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	// Apply parsed values on top of what is already set.
	setString(&cfg.Provider.BaseURL, y.Provider.BaseURL)
	setString(&cfg.Provider.APIKey, y.Provider.APIKey)
	setString(&cfg.Provider.Function, y.Provider.Function)
	if y.Provider.Timeout != "" {
		d, err := time.ParseDuration(y.Provider.Timeout)
		if err != nil || d < 0 {
			return &domain.OpError{
				Op:   "workspacefinder.loadconfig",
				Kind: domain.KindInvalidConfig,
				Path: path,
				Err:  fmt.Errorf("provider.timeout %q: %w", y.Provider.Timeout, domain.ErrInvalidConfig),
			}
		}
		cfg.Provider.Timeout = d
	}

	setString(&cfg.Backtest.Strategy, y.Backtest.Strategy)
	setFloat(&cfg.Backtest.Deposit, y.Backtest.Deposit)
	setFloat(&cfg.Backtest.Leverage, y.Backtest.Leverage)
	setFloat(&cfg.Backtest.Commission.Fixed, y.Backtest.Commission.Fixed)
	setFloat(&cfg.Backtest.Commission.PerShare, y.Backtest.Commission.PerShare)

	setString(&cfg.Paths.RunsDir, y.Paths.RunsDir)
	setString(&cfg.Paths.CachePath, y.Paths.CachePath)

	if len(y.Events.Kafka.Brokers) > 0 {
		cfg.Events.Kafka.Brokers = y.Events.Kafka.Brokers
	}
	setString(&cfg.Events.Kafka.Topic, y.Events.Kafka.Topic)
	return nil
}

type envOverrides struct {
	APIKey    string   `env:"ALPHAVANTAGE_API_KEY"`
	CachePath string   `env:"BACKTEST_CACHE_PATH"`
	Brokers   []string `env:"BACKTEST_KAFKA_BROKERS" envSeparator:","`
	Topic     string   `env:"BACKTEST_KAFKA_TOPIC"`
}

func applyEnv(cfg *domain.Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return &domain.OpError{
			Op:   "workspacefinder.env",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}

	setString(&cfg.Provider.APIKey, o.APIKey)
	setString(&cfg.Paths.CachePath, o.CachePath)
	var brokers []string
	for _, b := range o.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) > 0 {
		cfg.Events.Kafka.Brokers = brokers
	}
	setString(&cfg.Events.Kafka.Topic, o.Topic)
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
