package exam

import (
	"sort"
	"time"

	"pmp_prep_backend/internal/model"
)

// Detection thresholds. All detection is event-triggered: a long pause only
// becomes visible through the time_spent of the answer that follows it, there
// is no background timer anywhere.
const (
	rapidAnswerSeconds  = 30
	dwellSeconds        = 180
	healthyMinSeconds   = 45
	healthyMaxSeconds   = 150
	rushingStreak       = 3
	flagSpreeStreak     = 4
	revisitLoopLimit    = 5 // alert fires when the counter first exceeds this
	skipWindowSize      = 5
	skipWindowThreshold = 3
	criticalPaceSeconds = 30
)

// Event is one submitted answer as seen by the coach.
type Event struct {
	QuestionIndex    int
	TimeSpentSeconds int
	IsFlagged        bool
	IsRevisit        bool
	IsSkip           bool // submitted with an empty selection
	Timestamp        time.Time
}

// Progress is the session-level context the coach needs for pacing.
type Progress struct {
	AnsweredCount    int
	TotalQuestions   int
	RemainingSeconds int
}

// Coach is the per-session behavior state machine. ProcessEvent mutates the
// profile in place and returns any alerts raised by this event; persistence is
// the caller's problem.
type Coach struct {
	plan Plan
}

func NewCoach(plan Plan) *Coach {
	return &Coach{plan: plan}
}

func (c *Coach) ProcessEvent(p *model.ExamBehaviorProfile, ev Event, prog Progress) []model.CoachingEntry {
	var alerts []model.CoachingEntry
	emit := func(severity model.CoachingSeverity, title, message string) {
		alerts = append(alerts, model.CoachingEntry{
			QuestionIndex: ev.QuestionIndex,
			Severity:      severity,
			Title:         title,
			Message:       message,
			Timestamp:     ev.Timestamp.Unix(),
		})
	}

	c.updateCounters(p, ev)

	revisitAlertDue := false
	if ev.IsRevisit && p.QuestionRevisits == revisitLoopLimit+1 && !p.RevisitLoopAlerted {
		p.RevisitLoopAlerted = true
		revisitAlertDue = true
	}

	detected := c.detectPattern(p, ev)
	changed := detected != p.CurrentPattern
	c.recordPatternTransition(p, detected, ev)

	// Pattern alerts fire on entry into the pattern, except the revisit loop
	// which is tied to the counter first reaching its limit and never repeats.
	if changed {
		switch detected {
		case model.PatternRushing:
			emit(model.SeverityWarning, "Slow down",
				"Your last three answers each took under 30 seconds. Rushed answers are where careless mistakes happen.")
		case model.PatternDwelling:
			emit(model.SeveritySuggestion, "Move on",
				"You spent over three minutes on that question. Flag it and come back if time allows.")
		case model.PatternPanic:
			emit(model.SeverityUrgent, "Take a breath",
				"Rapid answers mixed with long stalls usually means panic. Pause for ten seconds, then work one question at a time.")
		case model.PatternFlaggingSpree:
			emit(model.SeverityInfo, "Trust your first instinct",
				"Four flagged questions in a row. Flag sparingly or your review pass will be as long as the exam.")
		}
	}
	if revisitAlertDue {
		emit(model.SeverityInfo, "Stop circling back",
			"You have revisited answered questions more than five times. Your first answer is usually your best one.")
	}

	c.updateScores(p, prog)
	p.PaceTrajectory = c.paceTrajectory(prog)

	alerts = append(alerts, c.proactiveAlerts(p, ev, prog)...)

	p.CoachingHistory = append(p.CoachingHistory, alerts...)
	return alerts
}

func (c *Coach) updateCounters(p *model.ExamBehaviorProfile, ev Event) {
	t := ev.TimeSpentSeconds

	p.AnswersObserved++
	p.TotalTimeSeconds += t
	p.AvgSecondsPerQuestion = float64(p.TotalTimeSeconds) / float64(p.AnswersObserved)
	if p.AnswersObserved == 1 || t < p.FastestAnswerSeconds {
		p.FastestAnswerSeconds = t
	}
	if t > p.SlowestAnswerSeconds {
		p.SlowestAnswerSeconds = t
	}

	if t < rapidAnswerSeconds {
		p.RapidAnswerCount++
		p.ConsecutiveRapid++
	} else {
		p.ConsecutiveRapid = 0
	}
	if t > dwellSeconds {
		p.LongPauseCount++
	}
	if t >= healthyMinSeconds && t <= healthyMaxSeconds {
		p.InRangeAnswers++
	}

	if ev.IsFlagged {
		p.TotalFlagged++
		p.ConsecutiveFlags++
		if p.ConsecutiveFlags > p.MaxConsecutiveFlags {
			p.MaxConsecutiveFlags = p.ConsecutiveFlags
		}
	} else {
		p.ConsecutiveFlags = 0
	}

	if ev.IsRevisit {
		p.QuestionRevisits++
	}

	skip := 0
	if ev.IsSkip {
		p.QuestionSkips++
		skip = 1
	}
	p.SkipWindow = append(p.SkipWindow, skip)
	if len(p.SkipWindow) > skipWindowSize {
		p.SkipWindow = p.SkipWindow[len(p.SkipWindow)-skipWindowSize:]
	}
}

// detectPattern evaluates the rules in their fixed order; a later match
// overrides an earlier one for the same event. No match means normal.
func (c *Coach) detectPattern(p *model.ExamBehaviorProfile, ev Event) model.BehaviorPattern {
	detected := model.PatternNormal

	if p.ConsecutiveRapid >= rushingStreak {
		detected = model.PatternRushing
	}
	if ev.TimeSpentSeconds > dwellSeconds {
		detected = model.PatternDwelling
	}
	if p.RapidAnswerCount >= 2 && p.LongPauseCount >= 1 {
		detected = model.PatternPanic
	}
	if p.ConsecutiveFlags >= flagSpreeStreak {
		detected = model.PatternFlaggingSpree
	}
	if p.QuestionRevisits > revisitLoopLimit {
		detected = model.PatternRevisitLoop
	}
	if skips := sumInts(p.SkipWindow); skips >= skipWindowThreshold {
		detected = model.PatternSkipping
	}

	return detected
}

func (c *Coach) recordPatternTransition(p *model.ExamBehaviorProfile, detected model.BehaviorPattern, ev Event) {
	if p.CurrentPatternSince == nil {
		since := ev.Timestamp
		p.CurrentPatternSince = &since
		p.CurrentPatternStartIndex = ev.QuestionIndex
	}
	if detected == p.CurrentPattern {
		return
	}

	p.PatternHistory = append(p.PatternHistory, model.PatternEpisode{
		Pattern:            p.CurrentPattern,
		StartQuestionIndex: p.CurrentPatternStartIndex,
		EndQuestionIndex:   ev.QuestionIndex,
		DurationSeconds:    int(ev.Timestamp.Sub(*p.CurrentPatternSince).Seconds()),
	})

	since := ev.Timestamp
	p.CurrentPattern = detected
	p.CurrentPatternSince = &since
	p.CurrentPatternStartIndex = ev.QuestionIndex
}

func (c *Coach) updateScores(p *model.ExamBehaviorProfile, prog Progress) {
	// Engagement: share of answers in the healthy band, penalized for extremes.
	engagement := 0.0
	if p.AnswersObserved > 0 {
		engagement = float64(p.InRangeAnswers) / float64(p.AnswersObserved) * 100
	}
	engagement -= 5 * float64(p.RapidAnswerCount)
	engagement -= 3 * float64(p.LongPauseCount)
	p.EngagementScore = clampScore(engagement)

	// Focus: starts perfect, erodes with navigation churn.
	focus := 100.0
	focus -= 5 * float64(p.QuestionRevisits)
	focus -= 3 * float64(p.QuestionSkips)
	if p.ConsecutiveFlags > 3 {
		focus -= 2 * float64(p.ConsecutiveFlags-3)
	}
	if p.AnswersObserved > 10 && float64(p.QuestionRevisits) < 0.1*float64(p.AnswersObserved) {
		focus += 2
	}
	p.FocusScore = clampScore(focus)
}

// paceTrajectory compares the pace the remaining time demands against the
// target seconds per question. Needing to answer 1.5x faster than target is
// critical; having a 1.4x cushion counts as ahead.
func (c *Coach) paceTrajectory(prog Progress) model.PaceTrajectory {
	if prog.RemainingSeconds <= 0 {
		return model.PaceCritical
	}
	remainingQuestions := prog.TotalQuestions - prog.AnsweredCount
	if remainingQuestions <= 0 {
		return model.PaceOnTrack
	}

	available := float64(prog.RemainingSeconds) / float64(remainingQuestions)
	ratio := c.plan.TargetSecondsPerQuestion() / available
	switch {
	case ratio > 1.5:
		return model.PaceCritical
	case ratio > 1.2:
		return model.PaceBehind
	case ratio < 0.7:
		return model.PaceAhead
	default:
		return model.PaceOnTrack
	}
}

func (c *Coach) proactiveAlerts(p *model.ExamBehaviorProfile, ev Event, prog Progress) []model.CoachingEntry {
	var alerts []model.CoachingEntry
	emit := func(severity model.CoachingSeverity, title, message string) {
		alerts = append(alerts, model.CoachingEntry{
			QuestionIndex: ev.QuestionIndex,
			Severity:      severity,
			Title:         title,
			Message:       message,
			Timestamp:     ev.Timestamp.Unix(),
		})
	}

	// Halfway snapshot, captured exactly once.
	if p.HalfwayRemainingSeconds == nil && prog.AnsweredCount >= prog.TotalQuestions/2 && prog.TotalQuestions > 0 {
		remaining := prog.RemainingSeconds
		done := prog.AnsweredCount
		p.HalfwayRemainingSeconds = &remaining
		p.HalfwayQuestionsDone = &done

		halfBudget := c.plan.Duration.Seconds() / 2
		if float64(remaining) < 0.8*halfBudget && !p.HalfwayAlerted {
			p.HalfwayAlerted = true
			emit(model.SeverityWarning, "Behind at the halfway mark",
				"You are past half the questions with less than 80% of the matching time budget left. Pick up the pace on the ones you know.")
		}
	}

	// Critical time in the final stretch; deliberately re-fires while it holds.
	if prog.TotalQuestions > 0 && float64(prog.AnsweredCount) > 0.75*float64(prog.TotalQuestions) {
		remainingQuestions := prog.TotalQuestions - prog.AnsweredCount
		if remainingQuestions > 0 && float64(prog.RemainingSeconds)/float64(remainingQuestions) < criticalPaceSeconds {
			emit(model.SeverityUrgent, "Critical time",
				"Under 30 seconds per remaining question. Answer everything; blanks score zero.")
		}
	}

	if p.EngagementScore < 60 {
		emit(model.SeveritySuggestion, "Reset your rhythm",
			"Your answer timing is far from the healthy range. Aim for one to two focused minutes per question.")
	}
	if p.FocusScore < 60 {
		emit(model.SeverityInfo, "Reduce the back-and-forth",
			"Frequent revisits, skips and flags are costing you momentum. Commit to answers on the first pass.")
	}

	return alerts
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// TapeEvent is one entry of the post-exam replay: either an answer with its
// per-answer pattern, or a coaching alert. Read-only derived view.
type TapeEvent struct {
	Timestamp        int64                  `json:"timestamp"`
	Type             string                 `json:"type"` // "answer" or "coaching"
	QuestionIndex    int                    `json:"questionIndex"`
	TimeSpentSeconds int                    `json:"timeSpentSeconds,omitempty"`
	Pattern          model.BehaviorPattern  `json:"pattern,omitempty"`
	Severity         model.CoachingSeverity `json:"severity,omitempty"`
	Title            string                 `json:"title,omitempty"`
	Message          string                 `json:"message,omitempty"`
}

// BuildGameTape merges answered questions and coaching history into one
// chronological stream.
func BuildGameTape(answers []model.ExamAnswer, history model.CoachingHistory) []TapeEvent {
	tape := make([]TapeEvent, 0, len(answers)+len(history))

	for _, a := range answers {
		if !a.IsAnswered() && a.TimeSpentSeconds == 0 {
			continue
		}
		pattern := model.BehaviorPattern("")
		if a.TimeSpentSeconds < rapidAnswerSeconds {
			pattern = model.PatternRushing
		} else if a.TimeSpentSeconds > dwellSeconds {
			pattern = model.PatternDwelling
		}
		tape = append(tape, TapeEvent{
			Timestamp:        a.UpdatedAt.Unix(),
			Type:             "answer",
			QuestionIndex:    a.QuestionIndex,
			TimeSpentSeconds: a.TimeSpentSeconds,
			Pattern:          pattern,
		})
	}

	for _, entry := range history {
		tape = append(tape, TapeEvent{
			Timestamp:     entry.Timestamp,
			Type:          "coaching",
			QuestionIndex: entry.QuestionIndex,
			Severity:      entry.Severity,
			Title:         entry.Title,
			Message:       entry.Message,
		})
	}

	sort.SliceStable(tape, func(i, j int) bool { return tape[i].Timestamp < tape[j].Timestamp })
	return tape
}
