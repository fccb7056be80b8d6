package exam

import (
	"fmt"
	"sort"

	"pmp_prep_backend/internal/model"
)

// Lookup tables are read once per report invocation and passed in explicitly;
// the builder itself never touches storage.
type ReportInput struct {
	Session   *model.ExamSession
	Answers   []model.ExamAnswer
	Questions map[uint]model.Question
	Tasks     map[uint]model.Task
	Domains   map[uint]model.Domain
}

type tally struct {
	correct   int
	total     int
	timeSpent int
}

func (t tally) percentage() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.correct) / float64(t.total) * 100
}

func (t tally) avgTime() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.timeSpent) / float64(t.total)
}

// BuildReport computes the full exam report from a completed session's
// answers. It is a pure function of its input; identical input produces
// identical output.
func BuildReport(plan Plan, in ReportInput) *model.ExamReport {
	domainTallies := map[uint]*tally{}
	taskTallies := map[uint]*tally{}
	correctCount := 0
	totalTime := 0

	for _, a := range in.Answers {
		q, ok := in.Questions[a.QuestionID]
		if !ok {
			continue
		}
		task, ok := in.Tasks[q.TaskID]
		if !ok {
			continue
		}

		if a.IsCorrect {
			correctCount++
		}
		totalTime += a.TimeSpentSeconds

		dt := domainTallies[task.DomainID]
		if dt == nil {
			dt = &tally{}
			domainTallies[task.DomainID] = dt
		}
		tt := taskTallies[task.ID]
		if tt == nil {
			tt = &tally{}
			taskTallies[task.ID] = tt
		}
		for _, t := range []*tally{dt, tt} {
			t.total++
			t.timeSpent += a.TimeSpentSeconds
			if a.IsCorrect {
				t.correct++
			}
		}
	}

	score := 0.0
	if in.Session.QuestionsCount > 0 {
		score = float64(correctCount) / float64(in.Session.QuestionsCount) * 100
	}
	passed := score >= plan.PassingScore

	domainBreakdown := model.DomainBreakdown{}
	for domainID, t := range domainTallies {
		d := in.Domains[domainID]
		domainBreakdown[d.Name] = model.BreakdownEntry{
			Name:               d.Name,
			Correct:            t.correct,
			Total:              t.total,
			Percentage:         t.percentage(),
			AvgTimePerQuestion: t.avgTime(),
			Weight:             d.Weight,
		}
	}

	taskBreakdown := model.TaskBreakdown{}
	for taskID, t := range taskTallies {
		task := in.Tasks[taskID]
		taskBreakdown[taskID] = model.BreakdownEntry{
			Name:               task.Name,
			DomainName:         in.Domains[task.DomainID].Name,
			Correct:            t.correct,
			Total:              t.total,
			Percentage:         t.percentage(),
			AvgTimePerQuestion: t.avgTime(),
		}
	}

	report := &model.ExamReport{
		SessionID:        in.Session.ID,
		UserID:           in.Session.UserID,
		ScorePercentage:  score,
		Passed:           passed,
		DomainBreakdown:  domainBreakdown,
		TaskBreakdown:    taskBreakdown,
		TotalTimeSeconds: in.Session.TotalTimeSeconds,
		TimeExpired:      in.Session.TimeExpired,
	}

	orderedDomains := sortedBreakdownNames(domainBreakdown)

	for _, name := range orderedDomains {
		entry := domainBreakdown[name]
		if entry.Total == 0 {
			continue
		}
		switch {
		case entry.Percentage >= 75:
			report.Strengths = append(report.Strengths, name)
		case entry.Percentage >= 60 && passed:
			report.Strengths = append(report.Strengths, name+" (adequate)")
		}
		if entry.Percentage < 60 {
			report.Weaknesses = append(report.Weaknesses, name)
		}
	}

	report.Recommendations = buildRecommendations(plan, in, report, orderedDomains, totalTime, correctCount)
	return report
}

// buildRecommendations is a fixed checklist; the resulting order is part of
// the contract, the UI renders it as-is.
func buildRecommendations(plan Plan, in ReportInput, report *model.ExamReport, orderedDomains []string, totalTime, correctCount int) model.StringList {
	var recs model.StringList
	score := report.ScorePercentage
	target := plan.TargetSecondsPerQuestion()

	// 1. pass/fail margin
	switch {
	case report.Passed && score >= plan.PassingScore+10:
		recs = append(recs, fmt.Sprintf("Strong pass at %.1f%%. Keep your current study rhythm going into exam day.", score))
	case report.Passed:
		recs = append(recs, fmt.Sprintf("You passed at %.1f%%, inside the margin. Shore up your weaker domains before the real exam.", score))
	case score >= plan.PassingScore-10:
		recs = append(recs, fmt.Sprintf("You scored %.1f%%, just under the %.0f%% passing line. A focused review of your weak domains should close the gap.", score, plan.PassingScore))
	default:
		recs = append(recs, fmt.Sprintf("You scored %.1f%%, well under the %.0f%% passing line. Plan a structured review before attempting another full simulation.", score, plan.PassingScore))
	}

	// 2. weak domains with a meaningful in-exam sample
	for _, name := range orderedDomains {
		entry := report.DomainBreakdown[name]
		if entry.Total >= 5 && entry.Percentage < 60 {
			recs = append(recs, fmt.Sprintf("Review the %s domain: %d of %d correct (%.1f%%).", name, entry.Correct, entry.Total, entry.Percentage))
		}
	}

	// 3. up to 4 weakest tasks
	for _, t := range weakestTasks(report.TaskBreakdown, 4) {
		recs = append(recs, fmt.Sprintf("Drill down on task %q (%s): %.1f%% across %d questions.", t.Name, t.DomainName, t.Percentage, t.Total))
	}

	// 4. global pacing
	if n := len(in.Answers); n > 0 {
		avg := float64(totalTime) / float64(n)
		if avg > 1.3*target {
			recs = append(recs, fmt.Sprintf("Your average of %.0fs per question is well over the %.0fs target. Practice moving on sooner.", avg, target))
		} else if avg < 0.6*target {
			recs = append(recs, fmt.Sprintf("Your average of %.0fs per question is far under the %.0fs target. Slow down and re-read before answering.", avg, target))
		}
	}

	// 5. per-domain pacing
	for _, name := range orderedDomains {
		entry := report.DomainBreakdown[name]
		if entry.Total >= 5 && entry.AvgTimePerQuestion > 1.5*target {
			recs = append(recs, fmt.Sprintf("Questions in %s took %.0fs on average, over 1.5x the target pace. Timed drills in this domain will help.", name, entry.AvgTimePerQuestion))
		}
	}

	// 6. completion rate
	answered := 0
	for _, a := range in.Answers {
		if a.IsAnswered() {
			answered++
		}
	}
	if in.Session.QuestionsCount > 0 && !in.Session.TimeExpired {
		rate := float64(answered) / float64(in.Session.QuestionsCount)
		if rate < 0.90 {
			recs = append(recs, fmt.Sprintf("You answered %d of %d questions with time remaining. There is no penalty for guessing; never leave blanks.", answered, in.Session.QuestionsCount))
		}
	}

	// 7. time expired
	if in.Session.TimeExpired {
		recs = append(recs, "Time ran out before you finished. Build stamina with full-length timed simulations.")
	}

	// 8. closing domain priority from the weakest tasks
	if weakest := weakestTasks(report.TaskBreakdown, 2); len(weakest) > 0 {
		names := make(map[string]bool, 2)
		var priority []string
		for _, t := range weakest {
			if !names[t.DomainName] {
				names[t.DomainName] = true
				priority = append(priority, t.DomainName)
			}
		}
		if len(priority) == 1 {
			recs = append(recs, fmt.Sprintf("Prioritize %s in your next study block.", priority[0]))
		} else {
			recs = append(recs, fmt.Sprintf("Prioritize %s and %s in your next study block.", priority[0], priority[1]))
		}
	}

	return recs
}

// weakestTasks returns up to limit tasks with at least 2 questions scoring
// under 65%, weakest first. Ties break on name so output stays deterministic.
func weakestTasks(breakdown model.TaskBreakdown, limit int) []model.BreakdownEntry {
	var weak []model.BreakdownEntry
	for _, entry := range breakdown {
		if entry.Total >= 2 && entry.Percentage < 65 {
			weak = append(weak, entry)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		if weak[i].Percentage != weak[j].Percentage {
			return weak[i].Percentage < weak[j].Percentage
		}
		return weak[i].Name < weak[j].Name
	})
	if len(weak) > limit {
		weak = weak[:limit]
	}
	return weak
}

func sortedBreakdownNames(breakdown model.DomainBreakdown) []string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
