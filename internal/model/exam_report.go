package model

// swagger:model ExamReport
type ExamReport struct {
	UUIDBase
	SessionID        string          `gorm:"uniqueIndex;type:varchar(36);not null" json:"sessionId"`
	UserID           uint            `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	ScorePercentage  float64         `gorm:"not null" json:"scorePercentage"`
	Passed           bool            `gorm:"default:false" json:"passed"`
	DomainBreakdown  DomainBreakdown `gorm:"type:json" json:"domainBreakdown"`
	TaskBreakdown    TaskBreakdown   `gorm:"type:json" json:"taskBreakdown"`
	Recommendations  StringList      `gorm:"type:json" json:"recommendations"`
	Strengths        StringList      `gorm:"type:json" json:"strengths"`
	Weaknesses       StringList      `gorm:"type:json" json:"weaknesses"`
	TotalTimeSeconds int             `gorm:"default:0" json:"totalTimeSeconds"`
	TimeExpired      bool            `gorm:"default:false" json:"timeExpired"`
}

func (ExamReport) TableName() string {
	return "exam_reports"
}
