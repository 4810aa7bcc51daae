package domain

import "time"

// Config represents the workspace configuration loaded from backtest.yaml.
type Config struct {
	Provider ProviderConfig
	Backtest BacktestDefaults
	Paths    PathsConfig
	Events   EventsConfig
}

// ProviderConfig configures the historical price provider.
type ProviderConfig struct {
	BaseURL  string
	APIKey   string
	Function string
	Timeout  time.Duration
}

type BacktestDefaults struct {
	Strategy   string
	Deposit    float64
	Leverage   float64
	Commission CommissionConfig
}

// CommissionConfig is a per-fill commission: Fixed + PerShare*|amount|.
type CommissionConfig struct {
	Fixed    float64
	PerShare float64
}

type PathsConfig struct {
	RunsDir   string
	CachePath string
}

type EventsConfig struct {
	Kafka KafkaConfig
}

// KafkaConfig enables closed-order publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether publishing is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// DefaultConfig provides sane defaults if backtest.yaml is partially missing.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:  "https://www.alphavantage.co",
			Function: "TIME_SERIES_DAILY_ADJUSTED",
			Timeout:  30 * time.Second,
		},
		Backtest: BacktestDefaults{
			Strategy: "cointegration",
			Deposit:  15000,
			Leverage: 4,
			Commission: CommissionConfig{
				Fixed:    1,
				PerShare: 0.005,
			},
		},
		Paths: PathsConfig{
			RunsDir:   "runs",
			CachePath: ".backtest/prices.db",
		},
		Events: EventsConfig{
			Kafka: KafkaConfig{Topic: "backtest.orders"},
		},
	}
}
