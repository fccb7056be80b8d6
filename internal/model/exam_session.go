package model

import (
	"strings"
	"time"
)

type ExamStatus string

const (
	ExamInProgress ExamStatus = "in_progress"
	ExamCompleted  ExamStatus = "completed"
	ExamAbandoned  ExamStatus = "abandoned"
)

// IsTerminal reports whether no further mutation of the session is allowed.
func (s ExamStatus) IsTerminal() bool {
	return s == ExamCompleted || s == ExamAbandoned
}

// swagger:model ExamSession
type ExamSession struct {
	UUIDBase
	UserID               uint       `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Status               ExamStatus `gorm:"size:20;default:'in_progress';index" json:"status"`
	StartedAt            time.Time  `json:"startedAt"`
	EndedAt              *time.Time `json:"endedAt,omitempty"`
	TotalTimeSeconds     int        `gorm:"default:0" json:"totalTimeSeconds"`
	QuestionsCount       int        `gorm:"default:0" json:"questionsCount"`
	CorrectCount         int        `gorm:"default:0" json:"correctCount"`
	CurrentQuestionIndex int        `gorm:"default:0" json:"currentQuestionIndex"`
	TimeExpired          bool       `gorm:"default:false" json:"timeExpired"`
	AdaptiveDifficulty   bool       `gorm:"default:true" json:"adaptiveDifficulty"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}

// RemainingTime is derived from wall clock on every call, never from stored
// countdown state, so pausing requests cannot stretch the exam.
func (s *ExamSession) RemainingTime(duration time.Duration, now time.Time) time.Duration {
	remaining := duration - now.Sub(s.StartedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *ExamSession) IsTimeExpired(duration time.Duration, now time.Time) bool {
	return s.RemainingTime(duration, now) == 0
}

// swagger:model ExamAnswer
type ExamAnswer struct {
	UUIDBase
	SessionID        string `gorm:"index;type:varchar(36);not null" json:"sessionId"`
	QuestionID       uint   `gorm:"index;type:bigint unsigned;not null" json:"questionId"`
	QuestionIndex    int    `gorm:"not null" json:"questionIndex"` // position shown to the user, 0-based
	SelectedAnswer   string `gorm:"size:1;default:''" json:"selectedAnswer"` // "" means unanswered
	IsCorrect        bool   `gorm:"default:false" json:"isCorrect"`
	TimeSpentSeconds int    `gorm:"default:0" json:"timeSpentSeconds"`
	IsFlagged        bool   `gorm:"default:false" json:"isFlagged"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}

func (a *ExamAnswer) IsAnswered() bool {
	return a.SelectedAnswer != ""
}

// NormalizeChoice uppercases a selected option letter for storage and comparison.
func NormalizeChoice(selected string) string {
	return strings.ToUpper(strings.TrimSpace(selected))
}
