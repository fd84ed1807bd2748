package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Analysis results
	SaveAnalysis(ctx context.Context, a *Analysis) error
	GetAnalysis(ctx context.Context, id string) (*Analysis, error)
	ListAnalysesBySubject(ctx context.Context, subjectID string, since time.Time) ([]*Analysis, error)
	CountAnalyses(ctx context.Context, domain string) (total int64, flagged int64, err error)

	// Rule table configuration
	SaveRuleTable(ctx context.Context, table *RuleTable) error
	GetRuleTable(ctx context.Context, domain string) (*RuleTable, error)
	ListRuleTables(ctx context.Context) ([]*RuleTable, error)

	// Behavioral signals synced from the marketplace backend
	SaveBehaviorSignals(ctx context.Context, s *BehaviorSignals) error
	GetBehaviorSignals(ctx context.Context, userID string) (*BehaviorSignals, error)

	// Market snapshots per location
	SaveMarketSnapshot(ctx context.Context, m *MarketSnapshot) error
	GetMarketSnapshot(ctx context.Context, location string) (*MarketSnapshot, error)

	// Labeled history for model training
	SaveTrainingRecords(ctx context.Context, domain string, records []TrainingRecord) error
	ListTrainingRecords(ctx context.Context, domain string) ([]TrainingRecord, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// TrainingRecord is one labeled row of a historical dataset.
type TrainingRecord struct {
	Features []float64 `json:"features"`
	Label    float64   `json:"label"`
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `yaml:"driver"`

	// SQLite specific
	SQLitePath string `yaml:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `yaml:"postgresHost"`
	PostgresPort     int    `yaml:"postgresPort"`
	PostgresUser     string `yaml:"postgresUser"`
	PostgresPassword string `yaml:"postgresPassword"`
	PostgresDB       string `yaml:"postgresDB"`
	PostgresSSLMode  string `yaml:"postgresSSLMode"`

	// Connection pool settings
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}
