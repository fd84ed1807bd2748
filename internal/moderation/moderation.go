// Package moderation implements the content appropriateness check: four
// ordered rule checks over a lexical content profile.
package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garipamoja/askari/internal/decision"
	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/features"
	"github.com/garipamoja/askari/internal/metrics"
	"github.com/garipamoja/askari/internal/rules"
)

// contentPolicy holds the per-content-type length limits and, for listings,
// the substrings the content must mention.
type contentPolicy struct {
	MaxLength int
	MinLength int
	Required  []string
}

// defaultMaxLength applies to unknown content types.
const defaultMaxLength = 1000

var contentPolicies = map[string]contentPolicy{
	"listing": {MaxLength: 1000, MinLength: 50, Required: []string{"title", "description", "price"}},
	"message": {MaxLength: 500},
	"review":  {MaxLength: 300},
}

// Spam heuristic thresholds.
const (
	repetitionThreshold  = 0.3
	uppercaseThreshold   = 0.5
	punctuationThreshold = 0.2
	spamScoreThreshold   = 0.7
)

// Service checks content for appropriateness. No learned model is involved;
// the checks are purely rule-based and deterministic.
type Service struct {
	extractor *features.ModerationExtractor
	engine    *rules.Engine
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates the moderation service. Repository, cache, bus and
// metrics may be nil; recording then degrades to logging only.
func NewService(
	extractor *features.ModerationExtractor,
	engine *rules.Engine,
	repo domain.Repository,
	cache domain.Cache,
	eventBus domain.EventBus,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		extractor: extractor,
		engine:    engine,
		repo:      repo,
		cache:     cache,
		bus:       eventBus,
		metrics:   m,
		logger:    logger.With("component", "moderation"),
		now:       time.Now,
	}
}

// Check moderates one piece of content. It never fails the caller: an
// internal fault blocks the content at zero confidence for human review.
func (s *Service) Check(ctx context.Context, req *domain.ModerationRequest) *domain.ModerationResult {
	start := s.now()

	result, analysis, err := s.analyze(ctx, req, start)
	if err != nil {
		s.logger.Error("moderation analysis failed, returning fallback",
			"author_id", req.AuthorID, "error", err)
		return decision.ModerationFallback()
	}

	s.record(ctx, analysis)
	s.metrics.RecordAnalysis(domain.DomainModeration, analysis.Decision, analysis.Score, s.now().Sub(start))
	return result
}

func (s *Service) analyze(ctx context.Context, req *domain.ModerationRequest, now time.Time) (*domain.ModerationResult, *domain.Analysis, error) {
	cf := s.extractor.Extract(ctx, req)

	// The four checks run in fixed order; issue order follows check order.
	validationIssues := s.validate(req.Content, req.ContentType, cf)
	hasProhibited := len(cf.ProhibitedMatches) > 0
	hasSuspicious := cf.HasContactPattern
	spamIndicators := s.spamIndicators(cf)
	isSpam := len(spamIndicators) > 0

	isAppropriate := len(validationIssues) == 0 && !hasProhibited && !hasSuspicious && !isSpam

	confidence, err := s.confidence(len(validationIssues) > 0, hasProhibited, hasSuspicious, isSpam)
	if err != nil {
		return nil, nil, err
	}

	var issues []string
	issues = append(issues, validationIssues...)
	if hasProhibited {
		issues = append(issues, "Contains prohibited words: "+strings.Join(cf.ProhibitedMatches, ", "))
	}
	if hasSuspicious {
		issues = append(issues, "Contains suspicious patterns (contact information, URLs)")
	}
	issues = append(issues, spamIndicators...)

	result := &domain.ModerationResult{
		IsAppropriate: isAppropriate,
		Confidence:    confidence,
		FlaggedIssues: issues,
		Suggestions:   decision.ModerationSuggestions(validationIssues, hasProhibited, hasSuspicious, isSpam),
	}

	verdict := domain.DecisionAppropriate
	if !isAppropriate {
		verdict = domain.DecisionRejected
	}

	analysis := &domain.Analysis{
		ID:        uuid.New().String(),
		Domain:    domain.DomainModeration,
		SubjectID: req.AuthorID,
		Score:     confidence,
		Decision:  verdict,
		Factors:   issues,
		CreatedAt: now.UTC(),
		Result:    result,
	}

	return result, analysis, nil
}

// validate checks length limits and, for listings, required mentions.
func (s *Service) validate(content, contentType string, cf *features.ContentFeatures) []string {
	policy, ok := contentPolicies[contentType]
	if !ok {
		policy = contentPolicy{MaxLength: defaultMaxLength}
	}

	var issues []string
	if cf.Length > policy.MaxLength {
		issues = append(issues, fmt.Sprintf("Content too long (max %d characters)", policy.MaxLength))
	}
	if cf.Length < policy.MinLength {
		issues = append(issues, fmt.Sprintf("Content too short (min %d characters)", policy.MinLength))
	}

	lower := strings.ToLower(content)
	for _, field := range policy.Required {
		if !strings.Contains(lower, field) {
			issues = append(issues, "Missing required field: "+field)
		}
	}

	return issues
}

// spamIndicators applies the spam heuristics in fixed order.
func (s *Service) spamIndicators(cf *features.ContentFeatures) []string {
	var indicators []string

	if n := len(cf.Words); n > 3 {
		for _, wc := range cf.WordCounts {
			if float64(wc.Count) > float64(n)*repetitionThreshold {
				indicators = append(indicators, "Repetitive word: "+wc.Word)
			}
		}
	}

	if cf.UppercaseRatio > uppercaseThreshold {
		indicators = append(indicators, "Excessive capitalization")
	}

	if float64(cf.PunctuationCount) > float64(len(cf.Words))*punctuationThreshold {
		indicators = append(indicators, "Excessive punctuation")
	}

	if cf.AuthorSpamScore > spamScoreThreshold {
		indicators = append(indicators, "User has high spam score")
	}

	return indicators
}

// confidence runs the fixed-penalty table over the four check flags.
func (s *Service) confidence(validationFailed, hasProhibited, hasSuspicious, isSpam bool) (float64, error) {
	flags := map[string]float64{
		"validation_failed": boolFlag(validationFailed),
		"has_prohibited":    boolFlag(hasProhibited),
		"has_suspicious":    boolFlag(hasSuspicious),
		"is_spam":           boolFlag(isSpam),
	}
	outcome, err := s.engine.Evaluate(domain.DomainModeration, flags)
	if err != nil {
		return 0, err
	}
	return outcome.Score, nil
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
		key := domain.AnalysisCacheKey(domain.DomainModeration, a.SubjectID, a.CreatedAt)
		if err := s.cache.Set(ctx, key, payload, domain.AnalysisTTL); err != nil {
			s.metrics.RecordCacheWriteFailure()
			s.logger.Warn("failed to cache analysis", "key", key, "error", err)
		}
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, domain.TopicAnalysisCompleted, payload); err != nil {
			s.logger.Warn("failed to publish analysis", "analysis_id", a.ID, "error", err)
		}
		if a.Decision == domain.DecisionRejected {
			if err := s.bus.Publish(ctx, domain.TopicModerationRejected, payload); err != nil {
				s.logger.Warn("failed to publish rejection", "analysis_id", a.ID, "error", err)
			}
		}
	}
}

func boolFlag(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
