package repository

import (
	"pmp_prep_backend/internal/model"

	"gorm.io/gorm"
)

type ExamReportRepository struct {
	DB *gorm.DB
}

func NewExamReportRepository(db *gorm.DB) *ExamReportRepository {
	return &ExamReportRepository{DB: db}
}

func (r *ExamReportRepository) Create(tx *gorm.DB, report *model.ExamReport) error {
	return tx.Create(report).Error
}

func (r *ExamReportRepository) FindBySessionID(sessionID string) (*model.ExamReport, error) {
	var report model.ExamReport
	err := r.DB.Where("session_id = ?", sessionID).First(&report).Error
	return &report, err
}
