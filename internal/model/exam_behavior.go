package model

import "time"

type BehaviorPattern string

const (
	PatternNormal        BehaviorPattern = "normal"
	PatternRushing       BehaviorPattern = "rushing"
	PatternDwelling      BehaviorPattern = "dwelling"
	PatternPanic         BehaviorPattern = "panic"
	PatternGuessing      BehaviorPattern = "guessing"
	PatternFlaggingSpree BehaviorPattern = "flagging_spree"
	PatternSkipping      BehaviorPattern = "skipping"
	PatternRevisitLoop   BehaviorPattern = "revisit_loop"
)

type CoachingSeverity string

const (
	SeverityInfo       CoachingSeverity = "info"
	SeveritySuggestion CoachingSeverity = "suggestion"
	SeverityWarning    CoachingSeverity = "warning"
	SeverityUrgent     CoachingSeverity = "urgent"
)

type PaceTrajectory string

const (
	PaceAhead    PaceTrajectory = "ahead"
	PaceOnTrack  PaceTrajectory = "on_track"
	PaceBehind   PaceTrajectory = "behind"
	PaceCritical PaceTrajectory = "critical"
)

// ExamBehaviorProfile is the per-session state of the behavior coach. It is
// created lazily on the first answer event and mutated on every one after.
// swagger:model ExamBehaviorProfile
type ExamBehaviorProfile struct {
	UUIDBase
	SessionID string `gorm:"uniqueIndex;type:varchar(36);not null" json:"sessionId"`
	UserID    uint   `gorm:"index;type:bigint unsigned;not null" json:"userId"`

	CurrentPattern           BehaviorPattern `gorm:"size:20;default:'normal'" json:"currentPattern"`
	CurrentPatternStartIndex int             `gorm:"default:0" json:"currentPatternStartIndex"`
	CurrentPatternSince      *time.Time      `json:"currentPatternSince,omitempty"`
	PatternHistory           PatternHistory  `gorm:"type:json" json:"patternHistory"`
	CoachingHistory          CoachingHistory `gorm:"type:json" json:"coachingHistory"`

	// timing aggregates over timed answers
	AnswersObserved       int     `gorm:"default:0" json:"answersObserved"`
	InRangeAnswers        int     `gorm:"default:0" json:"inRangeAnswers"` // answers inside the healthy 45-150s band
	TotalTimeSeconds      int     `gorm:"default:0" json:"totalTimeSeconds"`
	AvgSecondsPerQuestion float64 `gorm:"default:0" json:"avgSecondsPerQuestion"`
	FastestAnswerSeconds  int     `gorm:"default:0" json:"fastestAnswerSeconds"`
	SlowestAnswerSeconds  int     `gorm:"default:0" json:"slowestAnswerSeconds"`

	// flag counters
	TotalFlagged        int `gorm:"default:0" json:"totalFlagged"`
	ConsecutiveFlags    int `gorm:"default:0" json:"consecutiveFlags"`
	MaxConsecutiveFlags int `gorm:"default:0" json:"maxConsecutiveFlags"`

	// navigation counters
	QuestionRevisits int     `gorm:"default:0" json:"questionRevisits"`
	QuestionSkips    int     `gorm:"default:0" json:"questionSkips"`
	SkipWindow       IntList `gorm:"type:json" json:"skipWindow"` // 0/1 per answer, last 5 only

	// panic indicators
	RapidAnswerCount   int `gorm:"default:0" json:"rapidAnswerCount"`
	ConsecutiveRapid   int `gorm:"default:0" json:"consecutiveRapid"`
	LongPauseCount     int `gorm:"default:0" json:"longPauseCount"`
	RevisitLoopAlerted bool `gorm:"default:false" json:"revisitLoopAlerted"`
	HalfwayAlerted     bool `gorm:"default:false" json:"halfwayAlerted"`

	// snapshot captured once at the 50% mark
	HalfwayRemainingSeconds *int `json:"halfwayRemainingSeconds,omitempty"`
	HalfwayQuestionsDone    *int `json:"halfwayQuestionsDone,omitempty"`

	PaceTrajectory  PaceTrajectory `gorm:"size:20;default:'on_track'" json:"paceTrajectory"`
	EngagementScore float64        `gorm:"default:100" json:"engagementScore"`
	FocusScore      float64        `gorm:"default:100" json:"focusScore"`
}

func (ExamBehaviorProfile) TableName() string {
	return "exam_behavior_profiles"
}
