package exam

import "time"

// Plan is the immutable configuration of a generated exam. It is built once at
// startup from config and passed into the allocator, report builder and coach;
// nothing reads mutable global state.
type Plan struct {
	TotalQuestions         int
	Duration               time.Duration
	PassingScore           float64 // percentage, fixed at 65.0 for the current PMP outline
	MinAttemptsForAdaptive int     // below this a domain keeps its configured weight and mix
}

func DefaultPlan() Plan {
	return Plan{
		TotalQuestions:         185,
		Duration:               240 * time.Minute,
		PassingScore:           65.0,
		MinAttemptsForAdaptive: 5,
	}
}

// TargetSecondsPerQuestion is the pacing yardstick, ~78s for 240min/185q.
func (p Plan) TargetSecondsPerQuestion() float64 {
	if p.TotalQuestions == 0 {
		return 0
	}
	return p.Duration.Seconds() / float64(p.TotalQuestions)
}

// DifficultyMix is the easy/medium/hard share of a domain's question count.
type DifficultyMix struct {
	Easy   float64
	Medium float64
	Hard   float64
}

var (
	MixEasier = DifficultyMix{Easy: 0.50, Medium: 0.40, Hard: 0.10}
	MixBlend  = DifficultyMix{Easy: 0.25, Medium: 0.50, Hard: 0.25}
	MixHarder = DifficultyMix{Easy: 0.10, Medium: 0.40, Hard: 0.50}
)

// MixFor picks the difficulty profile for a domain from the user's historical
// accuracy. Domains without enough data always get the default mix.
func (p Plan) MixFor(perf DomainPerformance) DifficultyMix {
	if perf.Attempts < p.MinAttemptsForAdaptive {
		return MixBlend
	}
	switch {
	case perf.Accuracy < 0.65:
		return MixEasier
	case perf.Accuracy > 0.85:
		return MixHarder
	default:
		return MixBlend
	}
}
