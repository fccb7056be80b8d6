package model

// PracticeAttempt is a standalone (non-exam) answer to a catalog question. The
// performance aggregator blends these with completed-exam answers at 0.3 weight.
type PracticeAttempt struct {
	BaseModel
	UserID           uint   `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	QuestionID       uint   `gorm:"index;type:bigint unsigned;not null" json:"questionId"`
	SelectedAnswer   string `gorm:"size:1;not null" json:"selectedAnswer"`
	IsCorrect        bool   `gorm:"default:false" json:"isCorrect"`
	TimeSpentSeconds int    `gorm:"default:0" json:"timeSpentSeconds"`
}

func (PracticeAttempt) TableName() string {
	return "practice_attempts"
}
