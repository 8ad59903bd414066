package services

import (
	"strings"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
)

var (
	highSeverityTerms   = []string{"severe", "emergency", "bleeding", "unconscious", "chest pain", "breathing"}
	mediumSeverityTerms = []string{"fever", "pain", "infection", "swelling", "persistent"}
)

var severityRecommendations = map[entities.Severity]string{
	entities.SeverityHigh:   "Your symptoms suggest you should seek immediate medical attention. Please visit an emergency room or call emergency services.",
	entities.SeverityMedium: "We recommend scheduling an appointment with a specialist soon. In the meantime, rest and stay hydrated.",
	entities.SeverityLow:    "Your symptoms appear mild. Consider booking a consultation if they persist for more than a few days.",
}

// InsightComposer builds an advisory summary from free-text symptoms
type InsightComposer struct {
	matcher *SymptomMatcher
}

// NewInsightComposer creates a composer backed by matcher
func NewInsightComposer(matcher *SymptomMatcher) *InsightComposer {
	return &InsightComposer{matcher: matcher}
}

// Compose extracts keywords, suggests specialties and grades severity.
func (c *InsightComposer) Compose(symptoms string) *entities.HealthInsight {
	keywords := c.matcher.ExtractKeywords(symptoms)
	severity := Severity(keywords)

	return &entities.HealthInsight{
		ExtractedKeywords:     keywords,
		SuggestedSpecialities: c.matcher.SuggestSpecialties(keywords),
		Severity:              severity,
		Recommendation:        severityRecommendations[severity],
	}
}

// Severity grades keywords. A keyword counts toward a tier when it contains
// one of the tier's terms. Multi-word terms never match a single keyword.
func Severity(keywords []string) entities.Severity {
	if anyContains(keywords, highSeverityTerms) {
		return entities.SeverityHigh
	}
	if anyContains(keywords, mediumSeverityTerms) {
		return entities.SeverityMedium
	}
	return entities.SeverityLow
}

func anyContains(keywords, terms []string) bool {
	for _, kw := range keywords {
		for _, term := range terms {
			if strings.Contains(kw, term) {
				return true
			}
		}
	}
	return false
}
