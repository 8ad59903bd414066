package evaluation

import "fmt"

// GuardrailConfig sets the bar a retrained model must clear before rollout.
type GuardrailConfig struct {
	MinTestSamples int
	MinAccuracy    float64
	MaxBrier       float64
	BeatFallback   bool
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinTestSamples <= 0 {
		config.MinTestSamples = 10
	}
	if config.MaxBrier <= 0 {
		config.MaxBrier = 0.25
	}
	return &Guardrails{config: config}
}

// Check lists every guardrail the summary violates, nil when it passes.
func (g *Guardrails) Check(s *EvalSummary) []string {
	var violations []string
	if s.TestSamples < g.config.MinTestSamples {
		violations = append(violations, fmt.Sprintf("only %d test samples, need %d", s.TestSamples, g.config.MinTestSamples))
	}
	if s.Model.Accuracy < g.config.MinAccuracy {
		violations = append(violations, fmt.Sprintf("accuracy %.3f below %.3f", s.Model.Accuracy, g.config.MinAccuracy))
	}
	if s.Model.Brier > g.config.MaxBrier {
		violations = append(violations, fmt.Sprintf("brier %.3f above %.3f", s.Model.Brier, g.config.MaxBrier))
	}
	if g.config.BeatFallback && s.Model.Brier >= s.Fallback.Brier {
		violations = append(violations, fmt.Sprintf("brier %.3f does not beat fallback %.3f", s.Model.Brier, s.Fallback.Brier))
	}
	return violations
}
