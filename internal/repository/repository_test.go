package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/garipamoja/askari/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "askari_test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := New(domain.RepositoryConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestAnalysisRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := &domain.Analysis{
		ID:        "analysis-001",
		Domain:    domain.DomainFraud,
		SubjectID: "user-1",
		Score:     0.7,
		Decision:  domain.DecisionSuspicious,
		Factors:   []string{"High-value transaction", "Low verification score"},
		CreatedAt: time.Date(2026, 7, 18, 10, 0, 0, 0, time.UTC),
		Result:    map[string]any{"riskScore": 0.7},
	}
	if err := repo.SaveAnalysis(ctx, a); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	got, err := repo.GetAnalysis(ctx, "analysis-001")
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if got.Domain != domain.DomainFraud || got.SubjectID != "user-1" {
		t.Errorf("unexpected analysis: %+v", got)
	}
	if got.Score != 0.7 || got.Decision != domain.DecisionSuspicious {
		t.Errorf("unexpected score/decision: %v/%s", got.Score, got.Decision)
	}
	if len(got.Factors) != 2 {
		t.Errorf("unexpected factors: %v", got.Factors)
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetAnalysis(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAnalysisRequiresID(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.SaveAnalysis(context.Background(), &domain.Analysis{Domain: domain.DomainFraud})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestListAnalysesBySubject(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a-1", "a-2", "a-3"} {
		a := &domain.Analysis{
			ID:        id,
			Domain:    domain.DomainFraud,
			SubjectID: "user-1",
			Decision:  domain.DecisionClear,
			CreatedAt: base.AddDate(0, 0, i),
		}
		if err := repo.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}
	}

	got, err := repo.ListAnalysesBySubject(ctx, "user-1", base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListAnalysesBySubject failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 analyses since cutoff, got %d", len(got))
	}
}

func TestCountAnalyses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entries := []struct {
		id       string
		decision string
	}{
		{"c-1", domain.DecisionClear},
		{"c-2", domain.DecisionSuspicious},
		{"c-3", domain.DecisionSuspicious},
	}
	for _, e := range entries {
		a := &domain.Analysis{
			ID:        e.id,
			Domain:    domain.DomainFraud,
			SubjectID: "user-1",
			Decision:  e.decision,
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.SaveAnalysis(ctx, a); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}
	}

	total, flagged, err := repo.CountAnalyses(ctx, domain.DomainFraud)
	if err != nil {
		t.Fatalf("CountAnalyses failed: %v", err)
	}
	if total != 3 || flagged != 2 {
		t.Errorf("expected 3 total / 2 flagged, got %d/%d", total, flagged)
	}

	total, flagged, err = repo.CountAnalyses(ctx, domain.DomainPricing)
	if err != nil {
		t.Fatalf("CountAnalyses failed: %v", err)
	}
	if total != 0 || flagged != 0 {
		t.Errorf("expected empty domain counts, got %d/%d", total, flagged)
	}
}

func TestRuleTableRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	table := &domain.RuleTable{
		Domain:  domain.DomainFraud,
		Version: "1.1.0",
		Base:    0,
		Min:     0,
		Max:     1,
		Rules: []domain.Rule{
			{Name: "test", Expression: `f["x"] > 1.0`, Increment: 0.5, Factor: "x high"},
		},
	}
	if err := repo.SaveRuleTable(ctx, table); err != nil {
		t.Fatalf("SaveRuleTable failed: %v", err)
	}

	got, err := repo.GetRuleTable(ctx, domain.DomainFraud)
	if err != nil {
		t.Fatalf("GetRuleTable failed: %v", err)
	}
	if got.Version != "1.1.0" || len(got.Rules) != 1 {
		t.Errorf("unexpected table: %+v", got)
	}

	// Upsert replaces the stored table for the domain.
	table.Version = "1.2.0"
	if err := repo.SaveRuleTable(ctx, table); err != nil {
		t.Fatalf("SaveRuleTable upsert failed: %v", err)
	}

	tables, err := repo.ListRuleTables(ctx)
	if err != nil {
		t.Fatalf("ListRuleTables failed: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table after upsert, got %d", len(tables))
	}
	if tables[0].Version != "1.2.0" {
		t.Errorf("expected upserted version, got %s", tables[0].Version)
	}
}

func TestBehaviorSignalsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sig := &domain.BehaviorSignals{
		UserID:             "user-1",
		AccountCreatedAt:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		TransactionCount24: 4,
		DeviceCount:        2,
		LocationChanges24:  1,
		PaymentMethodCount: 2,
		CancellationRate:   0.25,
		VerificationScore:  0.85,
		SpamScore:          0.1,
	}
	if err := repo.SaveBehaviorSignals(ctx, sig); err != nil {
		t.Fatalf("SaveBehaviorSignals failed: %v", err)
	}

	got, err := repo.GetBehaviorSignals(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetBehaviorSignals failed: %v", err)
	}
	if got.TransactionCount24 != 4 || got.VerificationScore != 0.85 {
		t.Errorf("unexpected signals: %+v", got)
	}
	if !got.AccountCreatedAt.Equal(sig.AccountCreatedAt) {
		t.Errorf("account created at mismatch: %v", got.AccountCreatedAt)
	}

	// Upsert overwrites.
	sig.DeviceCount = 5
	if err := repo.SaveBehaviorSignals(ctx, sig); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, _ = repo.GetBehaviorSignals(ctx, "user-1")
	if got.DeviceCount != 5 {
		t.Errorf("expected upserted device count 5, got %d", got.DeviceCount)
	}

	if _, err := repo.GetBehaviorSignals(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarketSnapshotRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	snap := &domain.MarketSnapshot{
		Location:         "entebbe",
		CompetitionCount: 12,
		CompetitionLevel: "low",
		AveragePrice:     95.5,
		DemandTrend:      "increasing",
	}
	if err := repo.SaveMarketSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveMarketSnapshot failed: %v", err)
	}

	got, err := repo.GetMarketSnapshot(ctx, "entebbe")
	if err != nil {
		t.Fatalf("GetMarketSnapshot failed: %v", err)
	}
	if got.CompetitionCount != 12 || got.AveragePrice != 95.5 {
		t.Errorf("unexpected snapshot: %+v", got)
	}

	if _, err := repo.GetMarketSnapshot(ctx, "nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTrainingRecordsAppend(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []domain.TrainingRecord{
		{Features: []float64{1, 2, 3}, Label: 0},
		{Features: []float64{4, 5, 6}, Label: 1},
	}
	if err := repo.SaveTrainingRecords(ctx, domain.DomainFraud, first); err != nil {
		t.Fatalf("SaveTrainingRecords failed: %v", err)
	}

	second := []domain.TrainingRecord{
		{Features: []float64{7, 8, 9}, Label: 1},
	}
	if err := repo.SaveTrainingRecords(ctx, domain.DomainFraud, second); err != nil {
		t.Fatalf("SaveTrainingRecords failed: %v", err)
	}

	got, err := repo.ListTrainingRecords(ctx, domain.DomainFraud)
	if err != nil {
		t.Fatalf("ListTrainingRecords failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 appended records, got %d", len(got))
	}

	other, err := repo.ListTrainingRecords(ctx, domain.DomainPricing)
	if err != nil {
		t.Fatalf("ListTrainingRecords failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected records scoped by domain, got %d", len(other))
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
