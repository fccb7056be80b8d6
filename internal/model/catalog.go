package model

import "strings"

// The question catalog (domains, tasks, questions) is reference data following the
// PMP Exam Content Outline. The exam engine reads it, never writes it.

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// swagger:model Domain
type Domain struct {
	BaseModel
	Name         string  `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Weight       float64 `gorm:"not null" json:"weight"` // fraction of the exam, all weights sum to 1.0
	DisplayOrder int     `gorm:"default:0" json:"displayOrder"`
}

func (Domain) TableName() string {
	return "domains"
}

// swagger:model Task
type Task struct {
	BaseModel
	DomainID uint   `gorm:"index;type:bigint unsigned;not null" json:"domainId"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Order    int    `gorm:"default:0" json:"order"`
}

func (Task) TableName() string {
	return "tasks"
}

// swagger:model Question
type Question struct {
	BaseModel
	TaskID        uint        `gorm:"index;type:bigint unsigned;not null" json:"taskId"`
	Text          string      `gorm:"type:text;not null" json:"text"`
	OptionA       string      `gorm:"type:text;not null" json:"optionA"`
	OptionB       string      `gorm:"type:text;not null" json:"optionB"`
	OptionC       string      `gorm:"type:text;not null" json:"optionC"`
	OptionD       string      `gorm:"type:text;not null" json:"optionD"`
	CorrectAnswer string      `gorm:"size:1;not null" json:"-"`
	Explanation   string      `gorm:"type:text" json:"explanation"`
	Difficulty    *Difficulty `gorm:"size:10" json:"difficulty,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// EffectiveDifficulty treats untagged questions as medium.
func (q *Question) EffectiveDifficulty() Difficulty {
	if q.Difficulty == nil || *q.Difficulty == "" {
		return DifficultyMedium
	}
	return *q.Difficulty
}

// IsCorrectChoice compares case-insensitively; stored answers are single letters A-D.
func (q *Question) IsCorrectChoice(selected string) bool {
	return selected != "" && strings.EqualFold(strings.TrimSpace(selected), q.CorrectAnswer)
}
