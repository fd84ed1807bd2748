// Package pricing implements the dynamic price suggestion service: demand
// scoring, rule or regression pricing, and an explanatory factor breakdown.
package pricing

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/garipamoja/askari/internal/decision"
	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/features"
	"github.com/garipamoja/askari/internal/metrics"
	"github.com/garipamoja/askari/internal/model"
	"github.com/garipamoja/askari/internal/rules"
)

// Service suggests daily rental prices from demand and market conditions.
type Service struct {
	extractor *features.PricingExtractor
	engine    *rules.Engine
	model     *model.PricingModel
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates the pricing service. Repository, cache, bus and metrics
// may be nil; recording then degrades to logging only.
func NewService(
	extractor *features.PricingExtractor,
	engine *rules.Engine,
	pricingModel *model.PricingModel,
	repo domain.Repository,
	cache domain.Cache,
	eventBus domain.EventBus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		extractor: extractor,
		engine:    engine,
		model:     pricingModel,
		repo:      repo,
		cache:     cache,
		bus:       eventBus,
		metrics:   m,
		logger:    logger.With("component", "pricing"),
		now:       time.Now,
	}
}

// Suggest computes a price suggestion. It never fails the caller: an
// internal fault keeps the host's own base price at low confidence.
func (s *Service) Suggest(ctx context.Context, req *domain.PricingRequest) *domain.PricingResult {
	start := s.now()

	result, analysis, err := s.analyze(ctx, req, start)
	if err != nil {
		s.logger.Error("pricing analysis failed, returning fallback",
			"car_id", req.CarID, "error", err)
		return decision.PricingFallback(req.BasePrice)
	}

	s.record(ctx, analysis)
	s.metrics.RecordAnalysis(domain.DomainPricing, analysis.Decision, analysis.Score, s.now().Sub(start))
	return result
}

func (s *Service) analyze(ctx context.Context, req *domain.PricingRequest, now time.Time) (*domain.PricingResult, *domain.Analysis, error) {
	basePrice := req.BasePrice
	if basePrice <= 0 {
		basePrice = domain.DefaultAveragePrice
	}

	stayStart, duration := s.extractor.ParseStay(req, now)

	fv := s.extractor.DemandFeatures(req, stayStart, duration)
	outcome, err := s.engine.Evaluate(domain.DomainDemand, fv.Map())
	if err != nil {
		return nil, nil, err
	}
	demandScore := outcome.Score

	market := s.extractor.Market(ctx, req.Location)

	price, err := s.computePrice(basePrice, demandScore, duration, market)
	if err != nil {
		return nil, nil, err
	}
	price = round2(decision.ClampPrice(price, basePrice))

	result := &domain.PricingResult{
		SuggestedPrice: price,
		Confidence:     decision.PricingConfidence(market, demandScore),
		Factors: domain.PricingFactors{
			DemandScore:       demandScore,
			SeasonalFactor:    s.extractor.SeasonalFactor(stayStart),
			LocationPremium:   s.extractor.LocationPremium(req.Location),
			DurationDiscount:  s.extractor.DurationDiscount(duration),
			MarketCompetition: market.CompetitionLevel,
		},
		Recommendations: decision.PricingRecommendations(basePrice, price, demandScore, market.CompetitionLevel),
	}

	analysis := &domain.Analysis{
		ID:        uuid.New().String(),
		Domain:    domain.DomainPricing,
		SubjectID: req.CarID,
		Score:     demandScore,
		Decision:  domain.DecisionPriced,
		CreatedAt: now.UTC(),
		Result:    result,
	}

	return result, analysis, nil
}

// computePrice runs the trained regression when available, otherwise the
// rule-based multiplier path. Both are clamped by the caller.
func (s *Service) computePrice(basePrice, demandScore float64, duration int, market *domain.MarketSnapshot) (float64, error) {
	if snap := s.model.Snapshot(); snap != nil {
		return snap.Regressor.Predict([]float64{
			basePrice,
			demandScore,
			float64(market.CompetitionCount),
			float64(duration),
		})
	}

	price := basePrice
	switch {
	case demandScore > 0.8:
		price *= 1.3
	case demandScore > 0.6:
		price *= 1.1
	case demandScore < 0.3:
		price *= 0.9
	}

	switch market.CompetitionLevel {
	case "low":
		price *= 1.2
	case "high":
		price *= 0.9
	}

	if duration >= 7 {
		price *= 0.95
	}

	return price, nil
}

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
		key := domain.AnalysisCacheKey(domain.DomainPricing, a.SubjectID, a.CreatedAt)
		if err := s.cache.Set(ctx, key, payload, domain.AnalysisTTL); err != nil {
			s.metrics.RecordCacheWriteFailure()
			s.logger.Warn("failed to cache analysis", "key", key, "error", err)
		}
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, domain.TopicAnalysisCompleted, payload); err != nil {
			s.logger.Warn("failed to publish analysis", "analysis_id", a.ID, "error", err)
		}
	}
}

// UpdateModel retrains the price regression from historical price/feature
// pairs. Datasets below the training minimum are a silent no-op.
func (s *Service) UpdateModel(ctx context.Context, records []domain.TrainingRecord) (bool, error) {
	trained, err := s.model.Update(records)
	if err != nil {
		s.metrics.RecordModelUpdate(domain.DomainPricing, "failed")
		return false, err
	}

	if s.repo != nil && len(records) > 0 {
		if err := s.repo.SaveTrainingRecords(ctx, domain.DomainPricing, records); err != nil {
			s.logger.Warn("failed to persist training records", "error", err)
		}
	}

	if trained {
		s.metrics.RecordModelUpdate(domain.DomainPricing, "trained")
		s.logger.Info("pricing model updated", "records", len(records))
	} else {
		s.metrics.RecordModelUpdate(domain.DomainPricing, "skipped")
		s.logger.Info("pricing model update skipped, insufficient records",
			"records", len(records), "minimum", model.MinTrainingRecords)
	}
	return trained, nil
}

// ModelStatus reports the pricing model lifecycle state.
func (s *Service) ModelStatus() domain.ModelStatus {
	return s.model.Status()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
