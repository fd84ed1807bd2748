package features

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/garipamoja/askari/internal/domain"
)

// ProhibitedWords is the fixed case-insensitive containment list for the
// moderation prohibited-word check, in reporting order.
var ProhibitedWords = []string{
	"scam", "fraud", "fake", "illegal", "stolen", "damaged",
	"broken", "not working", "problem", "issue", "warning",
}

// Patterns that indicate off-platform contact attempts.
var (
	digitRunPattern = regexp.MustCompile(`\b\d{10,}\b`)
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlPattern      = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
)

// ContentFeatures is the lexical profile of one piece of content, computed
// once and shared by the four moderation checks.
type ContentFeatures struct {
	Length            int
	Words             []string    // lowercased whitespace tokens
	ProhibitedMatches []string    // in ProhibitedWords order
	HasContactPattern bool
	WordCounts        []WordCount // first-seen order, for deterministic output
	UppercaseRatio    float64
	PunctuationCount  int // '!' and '?' occurrences
	AuthorSpamScore   float64
}

// WordCount is one token's frequency within the content.
type WordCount struct {
	Word  string
	Count int
}

// ModerationExtractor profiles content for the moderation checks and pulls
// the author's historical spam score from the feature store.
type ModerationExtractor struct {
	store  domain.FeatureStore
	logger *slog.Logger
}

// NewModerationExtractor creates a moderation feature extractor.
func NewModerationExtractor(store domain.FeatureStore, logger *slog.Logger) *ModerationExtractor {
	return &ModerationExtractor{
		store:  store,
		logger: logger.With("component", "features"),
	}
}

// Extract computes the content profile for a moderation request.
func (e *ModerationExtractor) Extract(ctx context.Context, req *domain.ModerationRequest) *ContentFeatures {
	content := req.Content
	lower := strings.ToLower(content)
	words := strings.Fields(lower)

	cf := &ContentFeatures{
		Length:          len(content),
		Words:           words,
		AuthorSpamScore: e.authorSpamScore(ctx, req.AuthorID),
	}

	for _, w := range ProhibitedWords {
		if strings.Contains(lower, w) {
			cf.ProhibitedMatches = append(cf.ProhibitedMatches, w)
		}
	}

	cf.HasContactPattern = digitRunPattern.MatchString(content) ||
		emailPattern.MatchString(content) ||
		urlPattern.MatchString(content)

	cf.WordCounts = countWords(words)
	cf.UppercaseRatio = uppercaseRatio(content)
	cf.PunctuationCount = strings.Count(content, "!") + strings.Count(content, "?")
	return cf
}

func (e *ModerationExtractor) authorSpamScore(ctx context.Context, authorID string) float64 {
	if e.store == nil || authorID == "" {
		return domain.DefaultSpamScore
	}
	sig, err := e.store.BehaviorSignals(ctx, authorID)
	if err != nil {
		e.logger.Warn("author signal lookup failed, using defaults",
			"user_id", authorID, "error", err)
		return domain.DefaultSpamScore
	}
	if sig == nil {
		return domain.DefaultSpamScore
	}
	return sig.SpamScore
}

// countWords tallies token frequencies, preserving first-seen order so that
// downstream issue lists are deterministic.
func countWords(words []string) []WordCount {
	if len(words) == 0 {
		return nil
	}
	index := make(map[string]int, len(words))
	counts := make([]WordCount, 0, len(words))
	for _, w := range words {
		if i, ok := index[w]; ok {
			counts[i].Count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, WordCount{Word: w, Count: 1})
	}
	return counts
}

func uppercaseRatio(content string) float64 {
	if len(content) == 0 {
		return 0
	}
	upper := 0
	for _, r := range content {
		if r >= 'A' && r <= 'Z' {
			upper++
		}
	}
	return float64(upper) / float64(len([]rune(content)))
}
