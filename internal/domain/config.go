package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the complete Askari configuration.
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server"`

	// Tier determines feature availability
	Tier Tier `yaml:"tier"`

	// Component configurations
	Repository RepositoryConfig `yaml:"repository"`
	Cache      CacheConfig      `yaml:"cache"`
	EventBus   EventBusConfig   `yaml:"eventBus"`

	// Scoring settings
	Scoring ScoringConfig `yaml:"scoring"`

	// Observability
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ScoringConfig holds thresholds and seasonal configuration for the scorers.
type ScoringConfig struct {
	// RiskThresholds are the fraud decision bands.
	RiskThresholds Thresholds `yaml:"riskThresholds"`

	// HighSeasonMonths and LowSeasonMonths partition the year for demand
	// scoring. Months not listed in either are neutral.
	HighSeasonMonths []int `yaml:"highSeasonMonths"`
	LowSeasonMonths  []int `yaml:"lowSeasonMonths"`

	// Holidays are fixed-calendar dates in "01-02" (MM-DD) form.
	Holidays []string `yaml:"holidays"`

	// LocationPremiums maps location slugs to price premium multipliers.
	LocationPremiums map[string]float64 `yaml:"locationPremiums"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`  // seconds
	WriteTimeout int    `yaml:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
}

// Tier represents the deployment tier.
type Tier string

const (
	// TierCommunity is the free tier with SQLite + channels
	TierCommunity Tier = "community"

	// TierPro is the paid tier with PostgreSQL + NATS + Redis
	TierPro Tier = "pro"
)

// DefaultConfig returns a default configuration for Community tier.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Tier: TierCommunity,
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./askari.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 10000,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 1000,
		},
		Scoring: DefaultScoringConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "askari",
		},
	}
}

// ProConfig returns a configuration for Pro tier.
func ProConfig() *Config {
	cfg := DefaultConfig()
	cfg.Tier = TierPro
	cfg.Repository = RepositoryConfig{
		Driver:       "postgres",
		PostgresHost: "localhost",
		PostgresPort: 5432,
		PostgresDB:   "askari",
	}
	cfg.Cache = CacheConfig{
		Type:           "redis",
		RedisAddr:      "localhost:6379",
		EnableTwoPhase: true,
		LocalMaxSize:   1000,
	}
	cfg.EventBus = EventBusConfig{
		Type:              "nats",
		NATSUrl:           "nats://localhost:4222",
		NATSMaxReconnects: 10,
		NATSReconnectWait: 5,
	}
	cfg.Tracing.Enabled = true
	return cfg
}

// DefaultScoringConfig returns the built-in seasonal calendar and thresholds.
// High season covers the December-February and July-August travel peaks; the
// holiday list follows the Ugandan public calendar.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		RiskThresholds:   DefaultRiskThresholds(),
		HighSeasonMonths: []int{12, 1, 2, 7, 8},
		LowSeasonMonths:  []int{3, 4, 5, 6, 9, 10, 11},
		Holidays: []string{
			"01-01", // New Year
			"01-26", // Liberation Day
			"03-08", // Women's Day
			"05-01", // Labor Day
			"06-03", // Martyrs Day
			"10-09", // Independence Day
			"12-25", // Christmas
			"12-26", // Boxing Day
		},
		LocationPremiums: map[string]float64{
			"kampala_central": 1.3,
			"entebbe":         1.2,
			"jinja":           1.1,
			"other":           1.0,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults for the given tier.
// An empty path returns the tier defaults unchanged.
func LoadConfig(path string, tier Tier) (*Config, error) {
	cfg := DefaultConfig()
	if tier == TierPro {
		cfg = ProConfig()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Scoring.RiskThresholds.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
