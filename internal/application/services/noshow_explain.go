package services

import (
	"fmt"
	"math"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
)

var riskRecommendations = map[entities.RiskLevel][]string{
	entities.RiskLevelHigh: {
		"Send appointment confirmation request 48 hours before",
		"Send multiple reminders (SMS + Email + App notification)",
		"Consider requiring deposit or prepayment",
		"Add to waitlist backup for double-booking consideration",
		"Schedule follow-up confirmation call",
	},
	entities.RiskLevelMedium: {
		"Send reminder 24 hours before appointment",
		"Enable easy rescheduling via app/SMS",
		"Send day-of reminder 2 hours before",
	},
	entities.RiskLevelLow: {
		"Standard reminder 24 hours before is sufficient",
		"Consider loyalty rewards for consistent attendance",
	},
}

var firstVisitRecommendations = []string{
	"Send welcome package with clinic directions and parking info",
	"Offer virtual check-in option to reduce wait anxiety",
}

const lowPrepaymentRecommendation = "Offer prepayment discount to incentivize commitment"

const noRiskFactors = "No significant risk factors identified"

// riskFactors names the features of v that drive no-show risk, in a fixed order.
func riskFactors(v entities.FeatureVector) []string {
	var factors []string

	cancellation := v[entities.FeatureCancellationRate]
	switch {
	case cancellation > 0.3:
		factors = append(factors, fmt.Sprintf("High cancellation history (%s)", percent(cancellation)))
	case cancellation > 0.15:
		factors = append(factors, fmt.Sprintf("Moderate cancellation history (%s)", percent(cancellation)))
	}

	if completion := v[entities.FeatureCompletionRate]; completion < 0.7 {
		factors = append(factors, fmt.Sprintf("Low completion rate (%s)", percent(completion)))
	}
	if v[entities.FeatureTotalAppointments] < 0.15 {
		factors = append(factors, "Limited appointment history")
	}
	if v[entities.FeatureRecentCancellations] >= 0.66 {
		factors = append(factors, "Recent cancellation pattern detected")
	}
	if v[entities.FeatureFirstVisitToDoctor] == 1 {
		factors = append(factors, "First visit to this doctor")
	}

	payment := v[entities.FeaturePaymentRate]
	switch {
	case payment < 0.3:
		factors = append(factors, "Low prepayment history")
	case payment > 0.7:
		factors = append(factors, "Good prepayment history (reduces risk)")
	}

	if v[entities.FeatureEveningSlot] == 1 {
		factors = append(factors, "Evening slot (higher no-show tendency)")
	}
	if v[entities.FeatureWeekend] == 1 {
		factors = append(factors, "Weekend appointment (higher no-show tendency)")
	}

	if len(factors) == 0 {
		factors = append(factors, noRiskFactors)
	}
	return factors
}

// interventions returns recommended actions for a risk level and vector.
func interventions(level entities.RiskLevel, v entities.FeatureVector) []string {
	recs := append([]string(nil), riskRecommendations[level]...)
	if v[entities.FeatureFirstVisitToDoctor] == 1 {
		recs = append(recs, firstVisitRecommendations...)
	}
	if v[entities.FeaturePaymentRate] < 0.3 {
		recs = append(recs, lowPrepaymentRecommendation)
	}
	return recs
}

func percent(x float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(x*100)))
}
