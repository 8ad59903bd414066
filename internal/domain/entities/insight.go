package entities

// Severity is a coarse urgency tier derived from symptom keywords
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Specialty maps a medical specialty to the symptom keywords it treats
type Specialty struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// HealthInsight is the advisory summary for a symptom description
type HealthInsight struct {
	ExtractedKeywords     []string `json:"extractedKeywords"`
	SuggestedSpecialities []string `json:"suggestedSpecialities"`
	Severity              Severity `json:"severity"`
	Recommendation        string   `json:"recommendation"`
}
