package entities

import (
	"strconv"
	"strings"
	"unicode"
)

// Doctor is a bookable practitioner
type Doctor struct {
	ID         string   `json:"id" db:"id"`
	Name       string   `json:"name" db:"name"`
	Email      string   `json:"email,omitempty" db:"email"`
	Image      string   `json:"image,omitempty" db:"image"`
	Speciality string   `json:"speciality" db:"speciality"`
	Degree     string   `json:"degree" db:"degree"`
	Experience string   `json:"experience" db:"experience"`
	About      string   `json:"about" db:"about"`
	Keywords   []string `json:"keywords" db:"-"`
	Rating     float64  `json:"rating" db:"rating"`
	Fees       float64  `json:"fees" db:"fees"`
	Address    string   `json:"address" db:"address"`
	Available  bool     `json:"available" db:"available"`
}

// ExperienceYears returns the leading integer of Experience ("5 years" -> 5).
// Text without a leading number counts as zero.
func (d *Doctor) ExperienceYears() int {
	s := strings.TrimSpace(d.Experience)
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0
	}
	years, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return years
}

// DoctorMatch is a doctor ranked against a symptom description
type DoctorMatch struct {
	Doctor
	MatchScore float64 `json:"matchScore"`
}
