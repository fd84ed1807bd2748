// Package fraud implements the fraud risk scoring service: feature
// extraction, rule or model scoring, and decisioning with explanations.
package fraud

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/garipamoja/askari/internal/decision"
	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/features"
	"github.com/garipamoja/askari/internal/metrics"
	"github.com/garipamoja/askari/internal/model"
	"github.com/garipamoja/askari/internal/rules"
)

// Service scores transactions for fraud risk. Scoring calls are stateless
// apart from read access to the shared model snapshot.
type Service struct {
	extractor *features.FraudExtractor
	engine    *rules.Engine
	policy    *decision.FraudPolicy
	model     *model.FraudModel
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates the fraud scoring service. Repository, cache, bus and
// metrics may be nil; recording then degrades to logging only.
func NewService(
	extractor *features.FraudExtractor,
	engine *rules.Engine,
	policy *decision.FraudPolicy,
	fraudModel *model.FraudModel,
	repo domain.Repository,
	cache domain.Cache,
	eventBus domain.EventBus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		extractor: extractor,
		engine:    engine,
		policy:    policy,
		model:     fraudModel,
		repo:      repo,
		cache:     cache,
		bus:       eventBus,
		metrics:   m,
		logger:    logger.With("component", "fraud"),
		now:       time.Now,
	}
}

// Detect scores a transaction. It never fails the caller: an internal fault
// degrades to the conservative fallback result.
func (s *Service) Detect(ctx context.Context, req *domain.FraudRequest) *domain.FraudResult {
	start := s.now()

	result, analysis, err := s.analyze(ctx, req, start)
	if err != nil {
		s.logger.Error("fraud analysis failed, returning fallback",
			"user_id", req.UserID, "error", err)
		return decision.FraudFallback()
	}

	s.record(ctx, analysis)
	s.metrics.RecordAnalysis(domain.DomainFraud, analysis.Decision, analysis.Score, s.now().Sub(start))
	return result
}

func (s *Service) analyze(ctx context.Context, req *domain.FraudRequest, now time.Time) (*domain.FraudResult, *domain.Analysis, error) {
	fv := s.extractor.Extract(ctx, req, now)

	// Rule evaluation always runs: the factor list explains the features
	// even when a trained model produces the score.
	outcome, err := s.engine.Evaluate(domain.DomainFraud, fv.Map())
	if err != nil {
		return nil, nil, err
	}

	score := outcome.Score
	anomaly := false

	if snap := s.model.Snapshot(); snap != nil {
		z, err := snap.Scaler.Transform(fv.Values())
		if err != nil {
			return nil, nil, err
		}
		dec := snap.Detector.DecisionFunction(z)
		score = model.RiskFromDecision(dec)
		anomaly = snap.Detector.IsOutlier(z)
	}

	result := &domain.FraudResult{
		RiskScore:       score,
		IsSuspicious:    s.policy.IsSuspicious(score),
		RiskFactors:     decision.FactorsOrDefault(outcome.Factors),
		Recommendations: s.policy.Recommendations(score),
		AnomalyDetected: anomaly,
		Confidence:      s.policy.Confidence(fv),
	}

	analysis := &domain.Analysis{
		ID:        uuid.New().String(),
		Domain:    domain.DomainFraud,
		SubjectID: req.UserID,
		Score:     score,
		Decision:  s.policy.Decision(score),
		Factors:   outcome.Factors,
		CreatedAt: now.UTC(),
		Result:    result,
	}

	return result, analysis, nil
}

// record persists and publishes an analysis. All writes are fire-and-forget:
// failures are logged and the scoring result still stands.
func (s *Service) record(ctx context.Context, a *domain.Analysis) {
	if s.repo != nil {
		if err := s.repo.SaveAnalysis(ctx, a); err != nil {
			s.logger.Warn("failed to save analysis", "analysis_id", a.ID, "error", err)
		}
	}

	payload, err := json.Marshal(a)
	if err != nil {
		s.logger.Warn("failed to marshal analysis", "analysis_id", a.ID, "error", err)
		return
	}

	if s.cache != nil {
		key := domain.AnalysisCacheKey(domain.DomainFraud, a.SubjectID, a.CreatedAt)
		if err := s.cache.Set(ctx, key, payload, domain.AnalysisTTL); err != nil {
			s.metrics.RecordCacheWriteFailure()
			s.logger.Warn("failed to cache analysis", "key", key, "error", err)
		}
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, domain.TopicAnalysisCompleted, payload); err != nil {
			s.logger.Warn("failed to publish analysis", "analysis_id", a.ID, "error", err)
		}
		if a.Decision == domain.DecisionSuspicious {
			if err := s.bus.Publish(ctx, domain.TopicFraudAlert, payload); err != nil {
				s.logger.Warn("failed to publish fraud alert", "analysis_id", a.ID, "error", err)
			}
		}
	}
}

// UpdateModel retrains the fraud model from a labeled dataset. Datasets below
// the training minimum are a silent no-op. Records are also appended to the
// repository so future restarts can retrain from history.
func (s *Service) UpdateModel(ctx context.Context, records []domain.TrainingRecord) (bool, error) {
	trained, err := s.model.Update(records)
	if err != nil {
		s.metrics.RecordModelUpdate(domain.DomainFraud, "failed")
		return false, err
	}

	if s.repo != nil && len(records) > 0 {
		if err := s.repo.SaveTrainingRecords(ctx, domain.DomainFraud, records); err != nil {
			s.logger.Warn("failed to persist training records", "error", err)
		}
	}

	if trained {
		s.metrics.RecordModelUpdate(domain.DomainFraud, "trained")
		s.logger.Info("fraud model updated", "records", len(records))
	} else {
		s.metrics.RecordModelUpdate(domain.DomainFraud, "skipped")
		s.logger.Info("fraud model update skipped, insufficient records",
			"records", len(records), "minimum", model.MinTrainingRecords)
	}
	return trained, nil
}

// ModelStatus reports the fraud model lifecycle state.
func (s *Service) ModelStatus() domain.ModelStatus {
	return s.model.Status()
}
