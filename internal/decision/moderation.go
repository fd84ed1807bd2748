package decision

import (
	"strings"

	"github.com/garipamoja/askari/internal/domain"
)

// ModerationSuggestions maps check outcomes to improvement advice for the
// author, one block per failing check.
func ModerationSuggestions(validationIssues []string, hasProhibited, hasSuspicious, isSpam bool) []string {
	var suggestions []string
	for _, issue := range validationIssues {
		switch {
		case strings.Contains(issue, "too long"):
			suggestions = append(suggestions, "Consider shortening your content")
		case strings.Contains(issue, "too short"):
			suggestions = append(suggestions, "Please provide more details")
		case strings.Contains(issue, "required field"):
			suggestions = append(suggestions, "Please include all required information")
		}
	}
	if hasProhibited {
		suggestions = append(suggestions,
			"Avoid using prohibited words and phrases",
			"Focus on positive aspects of your listing")
	}
	if hasSuspicious {
		suggestions = append(suggestions,
			"Remove contact information and external links",
			"Keep communication within the platform")
	}
	if isSpam {
		suggestions = append(suggestions,
			"Avoid excessive repetition and punctuation",
			"Write naturally and professionally")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Your content looks good!")
	}
	return suggestions
}

// ModerationFallback is the conservative result returned when the content
// check itself fails: block and ask for human eyes.
func ModerationFallback() *domain.ModerationResult {
	return &domain.ModerationResult{
		IsAppropriate: false,
		Confidence:    0.0,
		FlaggedIssues: []string{"Content analysis error"},
		Suggestions:   []string{"Manual review recommended"},
	}
}
