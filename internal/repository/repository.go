// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/garipamoja/askari/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveAnalysis stores an analysis result.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, a *domain.Analysis) error {
	if a.ID == "" {
		return fmt.Errorf("%w: analysis id is required", ErrInvalidInput)
	}

	factors, _ := json.Marshal(a.Factors)
	result, _ := json.Marshal(a.Result)

	query := `
		INSERT INTO analyses (
			id, domain, subject_id, score, decision, factors, result, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		a.ID, a.Domain, a.SubjectID, a.Score, a.Decision,
		string(factors), string(result), a.CreatedAt,
	)
	return err
}

// GetAnalysis retrieves an analysis by ID.
func (r *SQLRepository) GetAnalysis(ctx context.Context, id string) (*domain.Analysis, error) {
	query := `
		SELECT id, domain, subject_id, score, decision, factors, result, created_at
		FROM analyses
		WHERE id = ?
	`

	var a domain.Analysis
	var factors, result string

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&a.ID, &a.Domain, &a.SubjectID, &a.Score, &a.Decision,
		&factors, &result, &a.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if factors != "" {
		json.Unmarshal([]byte(factors), &a.Factors)
	}
	if result != "" && result != "null" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(result), &payload); err == nil {
			a.Result = payload
		}
	}

	return &a, nil
}

// ListAnalysesBySubject retrieves analyses for a subject since a time.
func (r *SQLRepository) ListAnalysesBySubject(ctx context.Context, subjectID string, since time.Time) ([]*domain.Analysis, error) {
	query := `
		SELECT id, domain, subject_id, score, decision, factors, result, created_at
		FROM analyses
		WHERE subject_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), subjectID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		var factors, result string

		if err := rows.Scan(
			&a.ID, &a.Domain, &a.SubjectID, &a.Score, &a.Decision,
			&factors, &result, &a.CreatedAt,
		); err != nil {
			return nil, err
		}

		if factors != "" {
			json.Unmarshal([]byte(factors), &a.Factors)
		}
		if result != "" && result != "null" {
			var payload map[string]any
			if err := json.Unmarshal([]byte(result), &payload); err == nil {
				a.Result = payload
			}
		}

		analyses = append(analyses, &a)
	}

	return analyses, rows.Err()
}

// CountAnalyses returns total and flagged counts for a scoring domain.
// Flagged means the analysis decided against the subject.
func (r *SQLRepository) CountAnalyses(ctx context.Context, scoringDomain string) (int64, int64, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN decision IN (?, ?) THEN 1 ELSE 0 END), 0)
		FROM analyses
		WHERE domain = ?
	`

	var total, flagged int64
	err := r.db.QueryRowContext(ctx, r.rebind(query),
		domain.DecisionSuspicious, domain.DecisionRejected, scoringDomain,
	).Scan(&total, &flagged)
	if err != nil {
		return 0, 0, err
	}
	return total, flagged, nil
}

// SaveRuleTable upserts a rule table for a scoring domain.
func (r *SQLRepository) SaveRuleTable(ctx context.Context, table *domain.RuleTable) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rules, _ := json.Marshal(table.Rules)

	query := `
		INSERT INTO rule_tables (domain, version, base, min, max, rules, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			version = excluded.version,
			base = excluded.base,
			min = excluded.min,
			max = excluded.max,
			rules = excluded.rules,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		table.Domain, table.Version, table.Base, table.Min, table.Max,
		string(rules), time.Now().UTC(),
	)
	return err
}

// GetRuleTable retrieves the rule table for a scoring domain.
func (r *SQLRepository) GetRuleTable(ctx context.Context, scoringDomain string) (*domain.RuleTable, error) {
	query := `
		SELECT domain, version, base, min, max, rules
		FROM rule_tables
		WHERE domain = ?
	`

	var t domain.RuleTable
	var rules string

	err := r.db.QueryRowContext(ctx, r.rebind(query), scoringDomain).Scan(
		&t.Domain, &t.Version, &t.Base, &t.Min, &t.Max, &rules,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rules), &t.Rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules for %s: %w", scoringDomain, err)
	}

	return &t, nil
}

// ListRuleTables retrieves all stored rule tables.
func (r *SQLRepository) ListRuleTables(ctx context.Context) ([]*domain.RuleTable, error) {
	query := `
		SELECT domain, version, base, min, max, rules
		FROM rule_tables
		ORDER BY domain
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*domain.RuleTable
	for rows.Next() {
		var t domain.RuleTable
		var rules string

		if err := rows.Scan(&t.Domain, &t.Version, &t.Base, &t.Min, &t.Max, &rules); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rules), &t.Rules); err != nil {
			return nil, fmt.Errorf("failed to parse rules for %s: %w", t.Domain, err)
		}
		tables = append(tables, &t)
	}

	return tables, rows.Err()
}

// SaveBehaviorSignals upserts behavioral signals for a user.
func (r *SQLRepository) SaveBehaviorSignals(ctx context.Context, s *domain.BehaviorSignals) error {
	if s.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO behavior_signals (
			user_id, account_created_at, transaction_count_24h, device_count,
			location_changes_24h, payment_method_count, cancellation_rate,
			verification_score, spam_score, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			account_created_at = excluded.account_created_at,
			transaction_count_24h = excluded.transaction_count_24h,
			device_count = excluded.device_count,
			location_changes_24h = excluded.location_changes_24h,
			payment_method_count = excluded.payment_method_count,
			cancellation_rate = excluded.cancellation_rate,
			verification_score = excluded.verification_score,
			spam_score = excluded.spam_score,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		s.UserID, s.AccountCreatedAt, s.TransactionCount24, s.DeviceCount,
		s.LocationChanges24, s.PaymentMethodCount, s.CancellationRate,
		s.VerificationScore, s.SpamScore, time.Now().UTC(),
	)
	return err
}

// GetBehaviorSignals retrieves behavioral signals for a user.
func (r *SQLRepository) GetBehaviorSignals(ctx context.Context, userID string) (*domain.BehaviorSignals, error) {
	query := `
		SELECT user_id, account_created_at, transaction_count_24h, device_count,
		       location_changes_24h, payment_method_count, cancellation_rate,
		       verification_score, spam_score, updated_at
		FROM behavior_signals
		WHERE user_id = ?
	`

	var s domain.BehaviorSignals
	var createdAt sql.NullTime

	err := r.db.QueryRowContext(ctx, r.rebind(query), userID).Scan(
		&s.UserID, &createdAt, &s.TransactionCount24, &s.DeviceCount,
		&s.LocationChanges24, &s.PaymentMethodCount, &s.CancellationRate,
		&s.VerificationScore, &s.SpamScore, &s.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if createdAt.Valid {
		s.AccountCreatedAt = createdAt.Time
	}

	return &s, nil
}

// SaveMarketSnapshot upserts market data for a location.
func (r *SQLRepository) SaveMarketSnapshot(ctx context.Context, m *domain.MarketSnapshot) error {
	if m.Location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO market_snapshots (
			location, competition_count, competition_level,
			average_price, demand_trend, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			competition_count = excluded.competition_count,
			competition_level = excluded.competition_level,
			average_price = excluded.average_price,
			demand_trend = excluded.demand_trend,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		m.Location, m.CompetitionCount, m.CompetitionLevel,
		m.AveragePrice, m.DemandTrend, time.Now().UTC(),
	)
	return err
}

// GetMarketSnapshot retrieves market data for a location.
func (r *SQLRepository) GetMarketSnapshot(ctx context.Context, location string) (*domain.MarketSnapshot, error) {
	query := `
		SELECT location, competition_count, competition_level,
		       average_price, demand_trend, updated_at
		FROM market_snapshots
		WHERE location = ?
	`

	var m domain.MarketSnapshot

	err := r.db.QueryRowContext(ctx, r.rebind(query), location).Scan(
		&m.Location, &m.CompetitionCount, &m.CompetitionLevel,
		&m.AveragePrice, &m.DemandTrend, &m.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// SaveTrainingRecords appends labeled rows to a domain's training history.
func (r *SQLRepository) SaveTrainingRecords(ctx context.Context, scoringDomain string, records []domain.TrainingRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := r.rebind(`
		INSERT INTO training_records (domain, features, label, created_at)
		VALUES (?, ?, ?, ?)
	`)

	now := time.Now().UTC()
	for _, rec := range records {
		features, _ := json.Marshal(rec.Features)
		if _, err := tx.ExecContext(ctx, query, scoringDomain, string(features), rec.Label, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListTrainingRecords retrieves a domain's training history in insertion order.
func (r *SQLRepository) ListTrainingRecords(ctx context.Context, scoringDomain string) ([]domain.TrainingRecord, error) {
	query := `
		SELECT features, label
		FROM training_records
		WHERE domain = ?
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), scoringDomain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TrainingRecord
	for rows.Next() {
		var rec domain.TrainingRecord
		var features string

		if err := rows.Scan(&features, &rec.Label); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &rec.Features); err != nil {
			return nil, fmt.Errorf("failed to parse training features: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
