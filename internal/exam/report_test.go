package exam

import (
	"reflect"
	"strings"
	"testing"

	"pmp_prep_backend/internal/model"
)

func reportLookups() (map[uint]model.Question, map[uint]model.Task, map[uint]model.Domain) {
	domains := map[uint]model.Domain{
		1: {BaseModel: model.BaseModel{ID: 1}, Name: "People", Weight: 0.33},
		2: {BaseModel: model.BaseModel{ID: 2}, Name: "Process", Weight: 0.41},
		3: {BaseModel: model.BaseModel{ID: 3}, Name: "Business Environment", Weight: 0.26},
	}
	tasks := map[uint]model.Task{
		10: {BaseModel: model.BaseModel{ID: 10}, DomainID: 1, Name: "Build a team"},
		20: {BaseModel: model.BaseModel{ID: 20}, DomainID: 2, Name: "Manage risk"},
		30: {BaseModel: model.BaseModel{ID: 30}, DomainID: 3, Name: "Evaluate compliance"},
	}
	questions := map[uint]model.Question{}
	taskFor := func(qid uint) uint {
		switch {
		case qid <= 8:
			return 10
		case qid <= 15:
			return 20
		default:
			return 30
		}
	}
	for qid := uint(1); qid <= 20; qid++ {
		questions[qid] = model.Question{
			BaseModel:     model.BaseModel{ID: qid},
			TaskID:        taskFor(qid),
			CorrectAnswer: "A",
		}
	}
	return questions, tasks, domains
}

// passingAnswers builds 20 answers scoring exactly 65%: People 7/8, Process
// 5/7, Business Environment 1/5.
func passingAnswers() []model.ExamAnswer {
	correct := map[uint]bool{
		1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true,
		9: true, 10: true, 11: true, 12: true, 13: true,
		16: true,
	}
	answers := make([]model.ExamAnswer, 0, 20)
	for qid := uint(1); qid <= 15; qid++ {
		answers = append(answers, model.ExamAnswer{
			QuestionID:       qid,
			QuestionIndex:    int(qid) - 1,
			SelectedAnswer:   "A",
			IsCorrect:        correct[qid],
			TimeSpentSeconds: 70,
		})
	}
	for qid := uint(16); qid <= 20; qid++ {
		answers = append(answers, model.ExamAnswer{
			QuestionID:       qid,
			QuestionIndex:    int(qid) - 1,
			SelectedAnswer:   "A",
			IsCorrect:        correct[qid],
			TimeSpentSeconds: 70,
		})
	}
	return answers
}

func reportInput(answers []model.ExamAnswer) ReportInput {
	questions, tasks, domains := reportLookups()
	return ReportInput{
		Session: &model.ExamSession{
			UUIDBase:         model.UUIDBase{ID: "session-1"},
			UserID:           7,
			QuestionsCount:   20,
			TotalTimeSeconds: 1400,
		},
		Answers:   answers,
		Questions: questions,
		Tasks:     tasks,
		Domains:   domains,
	}
}

func TestBuildReportScoring(t *testing.T) {
	plan := DefaultPlan()

	t.Run("exactly at the passing line", func(t *testing.T) {
		report := BuildReport(plan, reportInput(passingAnswers()))
		if report.ScorePercentage != 65.0 {
			t.Errorf("score %.4f, want 65.0", report.ScorePercentage)
		}
		if !report.Passed {
			t.Error("65.0 must pass")
		}
	})

	t.Run("just under the passing line", func(t *testing.T) {
		answers := passingAnswers()
		answers[0].IsCorrect = false // 12/20 = 60%
		report := BuildReport(plan, reportInput(answers))
		if report.Passed {
			t.Errorf("%.1f%% must not pass", report.ScorePercentage)
		}
		if !strings.Contains(report.Recommendations[0], "just under") {
			t.Errorf("near-miss margin message expected, got %q", report.Recommendations[0])
		}
	})
}

func TestBuildReportBreakdown(t *testing.T) {
	report := BuildReport(DefaultPlan(), reportInput(passingAnswers()))

	tests := []struct {
		domain  string
		correct int
		total   int
		pct     float64
	}{
		{"People", 7, 8, 87.5},
		{"Process", 5, 7, 500.0 / 7},
		{"Business Environment", 1, 5, 20.0},
	}
	for _, tt := range tests {
		entry, ok := report.DomainBreakdown[tt.domain]
		if !ok {
			t.Fatalf("missing breakdown for %s", tt.domain)
		}
		if entry.Correct != tt.correct || entry.Total != tt.total {
			t.Errorf("%s: got %d/%d, want %d/%d", tt.domain, entry.Correct, entry.Total, tt.correct, tt.total)
		}
		if !approx(entry.Percentage, tt.pct) {
			t.Errorf("%s: percentage %.4f, want %.4f", tt.domain, entry.Percentage, tt.pct)
		}
		if entry.AvgTimePerQuestion != 70 {
			t.Errorf("%s: avg time %.1f, want 70", tt.domain, entry.AvgTimePerQuestion)
		}
	}

	task, ok := report.TaskBreakdown[30]
	if !ok {
		t.Fatal("missing task breakdown for task 30")
	}
	if task.DomainName != "Business Environment" || task.Correct != 1 || task.Total != 5 {
		t.Errorf("unexpected task entry: %+v", task)
	}
}

func TestBuildReportStrengthsWeaknesses(t *testing.T) {
	report := BuildReport(DefaultPlan(), reportInput(passingAnswers()))

	wantStrengths := []string{"People", "Process (adequate)"}
	if !reflect.DeepEqual([]string(report.Strengths), wantStrengths) {
		t.Errorf("strengths %v, want %v", report.Strengths, wantStrengths)
	}
	wantWeaknesses := []string{"Business Environment"}
	if !reflect.DeepEqual([]string(report.Weaknesses), wantWeaknesses) {
		t.Errorf("weaknesses %v, want %v", report.Weaknesses, wantWeaknesses)
	}
}

func TestBuildReportRecommendationOrder(t *testing.T) {
	report := BuildReport(DefaultPlan(), reportInput(passingAnswers()))

	wantFragments := []string{
		"inside the margin",
		"Review the Business Environment domain",
		`Drill down on task "Evaluate compliance"`,
		"Prioritize Business Environment",
	}
	if len(report.Recommendations) != len(wantFragments) {
		t.Fatalf("got %d recommendations %v, want %d", len(report.Recommendations), report.Recommendations, len(wantFragments))
	}
	for i, frag := range wantFragments {
		if !strings.Contains(report.Recommendations[i], frag) {
			t.Errorf("recommendation %d = %q, want fragment %q", i, report.Recommendations[i], frag)
		}
	}
}

func TestBuildReportCompletionRate(t *testing.T) {
	answers := passingAnswers()
	for i := 10; i < 20; i++ {
		answers[i].SelectedAnswer = ""
		answers[i].IsCorrect = false
	}

	t.Run("blanks with time remaining", func(t *testing.T) {
		report := BuildReport(DefaultPlan(), reportInput(answers))
		found := false
		for _, rec := range report.Recommendations {
			if strings.Contains(rec, "never leave blanks") {
				found = true
			}
		}
		if !found {
			t.Errorf("completion-rate recommendation missing: %v", report.Recommendations)
		}
	})

	t.Run("time expired suppresses completion nag", func(t *testing.T) {
		in := reportInput(answers)
		in.Session.TimeExpired = true
		report := BuildReport(DefaultPlan(), in)

		var hasBlanks, hasStamina bool
		for _, rec := range report.Recommendations {
			if strings.Contains(rec, "never leave blanks") {
				hasBlanks = true
			}
			if strings.Contains(rec, "Time ran out") {
				hasStamina = true
			}
		}
		if hasBlanks {
			t.Error("completion-rate recommendation must not fire when time expired")
		}
		if !hasStamina {
			t.Errorf("time-expired recommendation missing: %v", report.Recommendations)
		}
	})
}

func TestBuildReportPacing(t *testing.T) {
	answers := passingAnswers()
	for i := range answers {
		answers[i].TimeSpentSeconds = 110 // > 1.3 * 77.8s target
	}
	report := BuildReport(DefaultPlan(), reportInput(answers))

	found := false
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "Practice moving on sooner") {
			found = true
		}
	}
	if !found {
		t.Errorf("slow-pace recommendation missing: %v", report.Recommendations)
	}
}

func TestBuildReportDeterministic(t *testing.T) {
	a := BuildReport(DefaultPlan(), reportInput(passingAnswers()))
	b := BuildReport(DefaultPlan(), reportInput(passingAnswers()))
	if !reflect.DeepEqual(a, b) {
		t.Error("identical input must produce identical reports")
	}
}
