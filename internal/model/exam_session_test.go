package model

import (
	"testing"
	"time"
)

func TestRemainingTime(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := &ExamSession{StartedAt: started}
	duration := 240 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"at start", started, 240 * time.Minute},
		{"one hour in", started.Add(time.Hour), 180 * time.Minute},
		{"last second", started.Add(duration - time.Second), time.Second},
		{"exactly expired", started.Add(duration), 0},
		{"long past the deadline floors at zero", started.Add(duration + 3*time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := session.RemainingTime(duration, tt.now); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTimeExpired(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := &ExamSession{StartedAt: started}
	duration := 240 * time.Minute

	if session.IsTimeExpired(duration, started.Add(duration-time.Millisecond)) {
		t.Error("not expired one millisecond before the deadline")
	}
	if !session.IsTimeExpired(duration, started.Add(duration)) {
		t.Error("expired exactly at the deadline")
	}
}

func TestExamStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status ExamStatus
		want   bool
	}{
		{ExamInProgress, false},
		{ExamCompleted, true},
		{ExamAbandoned, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestNormalizeChoice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a", "A"},
		{" b ", "B"},
		{"C", "C"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeChoice(tt.in); got != tt.want {
			t.Errorf("NormalizeChoice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsCorrectChoice(t *testing.T) {
	q := &Question{CorrectAnswer: "B"}

	tests := []struct {
		selected string
		want     bool
	}{
		{"B", true},
		{"b", true},
		{" b ", true},
		{"A", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := q.IsCorrectChoice(tt.selected); got != tt.want {
			t.Errorf("IsCorrectChoice(%q) = %v, want %v", tt.selected, got, tt.want)
		}
	}
}

func TestEffectiveDifficulty(t *testing.T) {
	hard := DifficultyHard
	empty := Difficulty("")

	tests := []struct {
		name string
		q    Question
		want Difficulty
	}{
		{"tagged", Question{Difficulty: &hard}, DifficultyHard},
		{"untagged defaults to medium", Question{}, DifficultyMedium},
		{"empty tag defaults to medium", Question{Difficulty: &empty}, DifficultyMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.EffectiveDifficulty(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
