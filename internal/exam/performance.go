package exam

// DomainPerformance is a user's historical accuracy in one exam domain,
// blended from completed-exam answers and standalone practice attempts.
type DomainPerformance struct {
	Accuracy           float64  `json:"accuracy"` // 0..1
	Attempts           int      `json:"attempts"`
	AvgResponseSeconds *float64 `json:"avgResponseSeconds,omitempty"`
	HasEnoughData      bool     `json:"hasEnoughData"`
}

// AttemptStats are raw per-domain tallies from one data source.
type AttemptStats struct {
	Correct          int
	Total            int
	TotalTimeSeconds int
}

func (s AttemptStats) accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

const (
	examHistoryWeight     = 0.7
	practiceHistoryWeight = 0.3
	minAttemptsForSignal  = 5
)

// BlendPerformance merges exam history (weight 0.7) with practice history
// (weight 0.3). Exam accuracy dominates as soon as a single exam data point
// exists; with no exam data the practice accuracy is used as-is. Absent data
// yields neutral zeros rather than an error.
func BlendPerformance(exam, practice AttemptStats) DomainPerformance {
	perf := DomainPerformance{Attempts: exam.Total + practice.Total}

	switch {
	case exam.Total > 0 && practice.Total > 0:
		perf.Accuracy = examHistoryWeight*exam.accuracy() + practiceHistoryWeight*practice.accuracy()
	case exam.Total > 0:
		perf.Accuracy = exam.accuracy()
	case practice.Total > 0:
		perf.Accuracy = practice.accuracy()
	}

	if perf.Attempts > 0 {
		avg := float64(exam.TotalTimeSeconds+practice.TotalTimeSeconds) / float64(perf.Attempts)
		perf.AvgResponseSeconds = &avg
	}

	perf.HasEnoughData = perf.Attempts >= minAttemptsForSignal
	return perf
}
