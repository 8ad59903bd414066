package services

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
)

//go:embed catalog/specialties.yaml
var defaultSpecialtiesYAML []byte

var (
	nonLetters   = regexp.MustCompile(`[^a-z\s]`)
	stopWords    = map[string]struct{}{}
	stopWordList = []string{"the", "and", "for", "have", "has", "been", "with", "that", "this", "from", "are", "was", "were"}
)

func init() {
	for _, w := range stopWordList {
		stopWords[w] = struct{}{}
	}
}

const (
	minKeywordLength      = 4
	exactKeywordScore     = 10.0
	partialKeywordScore   = 7.0
	specialtyKeywordScore = 8.0
	aboutKeywordScore     = 3.0
	ratingMultiplier      = 2.0
	maxExperienceBonus    = 10
)

// SymptomMatcher extracts symptom keywords and scores doctors against them.
type SymptomMatcher struct {
	specialties []entities.Specialty
}

// NewSymptomMatcher creates a matcher over an ordered specialty catalogue
func NewSymptomMatcher(specialties []entities.Specialty) *SymptomMatcher {
	return &SymptomMatcher{specialties: specialties}
}

// LoadSpecialties reads the specialty catalogue from path, or the embedded
// default when path is empty.
func LoadSpecialties(path string) ([]entities.Specialty, error) {
	data := defaultSpecialtiesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read specialty catalogue: %w", err)
		}
		data = b
	}
	return ParseSpecialties(data)
}

// ParseSpecialties decodes a YAML list of {name, keywords} entries. Keywords
// are lower-cased.
func ParseSpecialties(data []byte) ([]entities.Specialty, error) {
	var specialties []entities.Specialty
	if err := yaml.Unmarshal(data, &specialties); err != nil {
		return nil, fmt.Errorf("failed to parse specialty catalogue: %w", err)
	}
	for i := range specialties {
		if strings.TrimSpace(specialties[i].Name) == "" {
			return nil, fmt.Errorf("specialty catalogue entry %d has no name", i)
		}
		for j, k := range specialties[i].Keywords {
			specialties[i].Keywords[j] = strings.ToLower(strings.TrimSpace(k))
		}
	}
	return specialties, nil
}

// Specialties returns the catalogue in order
func (m *SymptomMatcher) Specialties() []entities.Specialty {
	return m.specialties
}

// ExtractKeywords lower-cases the text, drops everything but letters and
// whitespace, and keeps words longer than three letters that are not stop
// words. Order and duplicates are preserved.
func (m *SymptomMatcher) ExtractKeywords(text string) []string {
	cleaned := nonLetters.ReplaceAllString(strings.ToLower(text), "")

	keywords := []string{}
	for _, w := range strings.Fields(cleaned) {
		if len(w) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// MatchScore rates how well a doctor fits the keywords. Keyword hits add
// 10 (exact doctor keyword) or 7 (a doctor keyword containing it), plus 8 for
// the specialty and 3 for the about text; rating and capped experience are
// added on top. The score is unbounded.
func (m *SymptomMatcher) MatchScore(doctor *entities.Doctor, keywords []string) float64 {
	doctorKeywords := make([]string, len(doctor.Keywords))
	for i, k := range doctor.Keywords {
		doctorKeywords[i] = strings.ToLower(k)
	}
	speciality := strings.ToLower(doctor.Speciality)
	about := strings.ToLower(doctor.About)

	var score float64
	for _, kw := range keywords {
		switch {
		case containsExact(doctorKeywords, kw):
			score += exactKeywordScore
		case containsPartial(doctorKeywords, kw):
			score += partialKeywordScore
		}
		if strings.Contains(speciality, kw) {
			score += specialtyKeywordScore
		}
		if strings.Contains(about, kw) {
			score += aboutKeywordScore
		}
	}

	score += doctor.Rating * ratingMultiplier
	score += float64(min(doctor.ExperienceYears(), maxExperienceBonus))
	return score
}

// SuggestSpecialties returns catalogue specialties with a keyword that
// contains, or is contained in, any extracted keyword. Each specialty appears
// once, in first-match order.
func (m *SymptomMatcher) SuggestSpecialties(keywords []string) []string {
	suggested := []string{}
	seen := make(map[string]struct{})
	for _, kw := range keywords {
		for _, sp := range m.specialties {
			if _, ok := seen[sp.Name]; ok {
				continue
			}
			for _, sk := range sp.Keywords {
				if sk == "" {
					continue
				}
				if strings.Contains(kw, sk) || strings.Contains(sk, kw) {
					seen[sp.Name] = struct{}{}
					suggested = append(suggested, sp.Name)
					break
				}
			}
		}
	}
	return suggested
}

func containsExact(list []string, kw string) bool {
	for _, k := range list {
		if k == kw {
			return true
		}
	}
	return false
}

func containsPartial(list []string, kw string) bool {
	for _, k := range list {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}
