package exam

import (
	"testing"
	"time"

	"pmp_prep_backend/internal/model"
)

func newTestProfile() *model.ExamBehaviorProfile {
	return &model.ExamBehaviorProfile{
		CurrentPattern:  model.PatternNormal,
		EngagementScore: 100,
		FocusScore:      100,
		PaceTrajectory:  model.PaceOnTrack,
	}
}

// steadyProgress keeps the session far from the halfway mark and on target
// pace so only the behavior under test can raise alerts.
func steadyProgress(answered int) Progress {
	return Progress{
		AnsweredCount:    answered,
		TotalQuestions:   185,
		RemainingSeconds: 14000,
	}
}

func coachEvent(index, seconds int) Event {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return Event{
		QuestionIndex:    index,
		TimeSpentSeconds: seconds,
		Timestamp:        base.Add(time.Duration(index) * time.Minute),
	}
}

func countAlerts(alerts []model.CoachingEntry, title string) int {
	n := 0
	for _, a := range alerts {
		if a.Title == title {
			n++
		}
	}
	return n
}

func TestCoachRushingFiresOnceOnThirdRapidAnswer(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	var perEvent []int
	for i, seconds := range []int{10, 15, 20, 12} {
		alerts := coach.ProcessEvent(p, coachEvent(i, seconds), steadyProgress(i+1))
		perEvent = append(perEvent, countAlerts(alerts, "Slow down"))
	}

	want := []int{0, 0, 1, 0}
	for i, got := range perEvent {
		if got != want[i] {
			t.Errorf("event %d: %d rushing warnings, want %d", i, got, want[i])
		}
	}
	if p.CurrentPattern != model.PatternRushing {
		t.Errorf("pattern %s, want rushing", p.CurrentPattern)
	}
}

func TestCoachDwelling(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	alerts := coach.ProcessEvent(p, coachEvent(0, 200), steadyProgress(1))
	if countAlerts(alerts, "Move on") != 1 {
		t.Errorf("dwelling suggestion expected, got %v", alerts)
	}
	if p.CurrentPattern != model.PatternDwelling {
		t.Errorf("pattern %s, want dwelling", p.CurrentPattern)
	}
}

func TestCoachPanicOverridesDwelling(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	coach.ProcessEvent(p, coachEvent(0, 10), steadyProgress(1))
	coach.ProcessEvent(p, coachEvent(1, 10), steadyProgress(2))
	alerts := coach.ProcessEvent(p, coachEvent(2, 200), steadyProgress(3))

	if countAlerts(alerts, "Take a breath") != 1 {
		t.Errorf("panic alert expected, got %v", alerts)
	}
	if countAlerts(alerts, "Move on") != 0 {
		t.Error("dwelling alert must be overridden by panic")
	}
	if p.CurrentPattern != model.PatternPanic {
		t.Errorf("pattern %s, want panic", p.CurrentPattern)
	}
}

func TestCoachFlaggingSpree(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	var total int
	for i := 0; i < 5; i++ {
		ev := coachEvent(i, 60)
		ev.IsFlagged = true
		alerts := coach.ProcessEvent(p, ev, steadyProgress(i+1))
		total += countAlerts(alerts, "Trust your first instinct")
	}

	if total != 1 {
		t.Errorf("flag spree alert fired %d times, want exactly once", total)
	}
	if p.MaxConsecutiveFlags != 5 {
		t.Errorf("MaxConsecutiveFlags %d, want 5", p.MaxConsecutiveFlags)
	}
}

func TestCoachRevisitLoopAlertsOnce(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	var total int
	for i := 0; i < 8; i++ {
		ev := coachEvent(i, 60)
		ev.IsRevisit = true
		alerts := coach.ProcessEvent(p, ev, steadyProgress(i+1))
		n := countAlerts(alerts, "Stop circling back")
		if n == 1 && p.QuestionRevisits != 6 {
			t.Errorf("revisit alert fired at %d revisits, want 6", p.QuestionRevisits)
		}
		total += n
	}

	if total != 1 {
		t.Errorf("revisit alert fired %d times, want exactly once", total)
	}
	if p.CurrentPattern != model.PatternRevisitLoop {
		t.Errorf("pattern %s, want revisit_loop", p.CurrentPattern)
	}
}

func TestCoachSkippingWindow(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	mk := func(i int, skip bool) Event {
		ev := coachEvent(i, 60)
		ev.IsSkip = skip
		return ev
	}

	coach.ProcessEvent(p, mk(0, true), steadyProgress(1))
	coach.ProcessEvent(p, mk(1, false), steadyProgress(2))
	coach.ProcessEvent(p, mk(2, true), steadyProgress(3))
	if p.CurrentPattern == model.PatternSkipping {
		t.Fatal("two skips in the window must not trigger the pattern")
	}

	coach.ProcessEvent(p, mk(3, true), steadyProgress(4))
	if p.CurrentPattern != model.PatternSkipping {
		t.Errorf("pattern %s, want skipping after 3 skips in last 5", p.CurrentPattern)
	}

	// five non-skips age the window out
	for i := 4; i < 9; i++ {
		coach.ProcessEvent(p, mk(i, false), steadyProgress(i+1))
	}
	if p.CurrentPattern == model.PatternSkipping {
		t.Error("skipping must clear once the window rolls past the skips")
	}
}

func TestCoachScoreFormulas(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	for i := 0; i < 3; i++ {
		coach.ProcessEvent(p, coachEvent(i, 60), steadyProgress(i+1))
	}
	if p.EngagementScore != 100 {
		t.Errorf("engagement %.1f after three healthy answers, want 100", p.EngagementScore)
	}
	if p.FocusScore != 100 {
		t.Errorf("focus %.1f with no churn, want 100", p.FocusScore)
	}

	// one rapid answer: 3/4 in range = 75, minus 5 for the rapid answer
	coach.ProcessEvent(p, coachEvent(3, 10), steadyProgress(4))
	if p.EngagementScore != 70 {
		t.Errorf("engagement %.1f, want 70", p.EngagementScore)
	}

	// two revisits: focus 100 - 2*5 = 90
	ev := coachEvent(4, 60)
	ev.IsRevisit = true
	coach.ProcessEvent(p, ev, steadyProgress(5))
	ev = coachEvent(5, 60)
	ev.IsRevisit = true
	coach.ProcessEvent(p, ev, steadyProgress(6))
	if p.FocusScore != 90 {
		t.Errorf("focus %.1f, want 90", p.FocusScore)
	}
}

func TestCoachPaceTrajectory(t *testing.T) {
	coach := NewCoach(DefaultPlan())

	tests := []struct {
		name string
		prog Progress
		want model.PaceTrajectory
	}{
		{"time exhausted", Progress{AnsweredCount: 50, TotalQuestions: 185, RemainingSeconds: 0}, model.PaceCritical},
		{"needs 3x pace", Progress{AnsweredCount: 100, TotalQuestions: 185, RemainingSeconds: 2000}, model.PaceCritical},
		{"slightly behind", Progress{AnsweredCount: 100, TotalQuestions: 185, RemainingSeconds: 5100}, model.PaceBehind},
		{"on track", Progress{AnsweredCount: 30, TotalQuestions: 185, RemainingSeconds: 12100}, model.PaceOnTrack},
		{"comfortable cushion", Progress{AnsweredCount: 100, TotalQuestions: 185, RemainingSeconds: 10200}, model.PaceAhead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProfile()
			coach.ProcessEvent(p, coachEvent(0, 60), tt.prog)
			if p.PaceTrajectory != tt.want {
				t.Errorf("trajectory %s, want %s", p.PaceTrajectory, tt.want)
			}
		})
	}
}

func TestCoachHalfwayFiresOnce(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	// past halfway with under 80% of the half budget (7200s) left
	prog := Progress{AnsweredCount: 93, TotalQuestions: 185, RemainingSeconds: 5000}
	alerts := coach.ProcessEvent(p, coachEvent(93, 60), prog)
	if countAlerts(alerts, "Behind at the halfway mark") != 1 {
		t.Fatalf("halfway warning expected, got %v", alerts)
	}
	if p.HalfwayRemainingSeconds == nil || *p.HalfwayRemainingSeconds != 5000 {
		t.Error("halfway snapshot not captured")
	}

	prog = Progress{AnsweredCount: 94, TotalQuestions: 185, RemainingSeconds: 4900}
	alerts = coach.ProcessEvent(p, coachEvent(94, 60), prog)
	if countAlerts(alerts, "Behind at the halfway mark") != 0 {
		t.Error("halfway warning must not repeat")
	}
}

func TestCoachCriticalTimeRepeats(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()
	snapshot := 1000
	done := 150
	p.HalfwayRemainingSeconds = &snapshot
	p.HalfwayQuestionsDone = &done

	for i := 0; i < 2; i++ {
		prog := Progress{AnsweredCount: 150 + i, TotalQuestions: 185, RemainingSeconds: 900 - 50*i}
		alerts := coach.ProcessEvent(p, coachEvent(150+i, 60), prog)
		if countAlerts(alerts, "Critical time") != 1 {
			t.Errorf("event %d: critical-time alert must re-fire while the condition holds", i)
		}
	}
}

func TestCoachPatternHistoryRecordsEpisodes(t *testing.T) {
	coach := NewCoach(DefaultPlan())
	p := newTestProfile()

	coach.ProcessEvent(p, coachEvent(0, 60), steadyProgress(1))
	coach.ProcessEvent(p, coachEvent(1, 200), steadyProgress(2)) // normal -> dwelling
	coach.ProcessEvent(p, coachEvent(2, 60), steadyProgress(3))  // dwelling -> normal

	if len(p.PatternHistory) != 2 {
		t.Fatalf("got %d episodes, want 2", len(p.PatternHistory))
	}
	if p.PatternHistory[0].Pattern != model.PatternNormal {
		t.Errorf("first episode %s, want normal", p.PatternHistory[0].Pattern)
	}
	if p.PatternHistory[1].Pattern != model.PatternDwelling {
		t.Errorf("second episode %s, want dwelling", p.PatternHistory[1].Pattern)
	}
	if p.CurrentPattern != model.PatternNormal {
		t.Errorf("current pattern %s, want normal", p.CurrentPattern)
	}
}

func TestBuildGameTape(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	answers := []model.ExamAnswer{
		{UUIDBase: model.UUIDBase{UpdatedAt: at(1)}, QuestionIndex: 0, SelectedAnswer: "A", TimeSpentSeconds: 20},
		{UUIDBase: model.UUIDBase{UpdatedAt: at(3)}, QuestionIndex: 1, SelectedAnswer: "B", TimeSpentSeconds: 200},
		{UUIDBase: model.UUIDBase{UpdatedAt: at(5)}, QuestionIndex: 2, SelectedAnswer: "C", TimeSpentSeconds: 90},
		{QuestionIndex: 3}, // never touched, excluded
	}
	history := model.CoachingHistory{
		{QuestionIndex: 1, Severity: model.SeveritySuggestion, Title: "Move on", Timestamp: at(3).Unix()},
	}

	tape := BuildGameTape(answers, history)
	if len(tape) != 4 {
		t.Fatalf("got %d tape events, want 4", len(tape))
	}

	for i := 1; i < len(tape); i++ {
		if tape[i].Timestamp < tape[i-1].Timestamp {
			t.Fatal("tape not in chronological order")
		}
	}

	if tape[0].Pattern != model.PatternRushing {
		t.Errorf("20s answer tagged %q, want rushing", tape[0].Pattern)
	}
	if tape[1].Type != "answer" || tape[1].Pattern != model.PatternDwelling {
		t.Errorf("200s answer tagged %q, want dwelling", tape[1].Pattern)
	}
	if tape[2].Type != "coaching" || tape[2].Title != "Move on" {
		t.Errorf("coaching entry misplaced: %+v", tape[2])
	}
	if tape[3].Pattern != model.BehaviorPattern("") {
		t.Errorf("90s answer tagged %q, want no pattern", tape[3].Pattern)
	}
}
