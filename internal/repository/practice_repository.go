package repository

import (
	"pmp_prep_backend/internal/model"

	"gorm.io/gorm"
)

type PracticeRepository struct {
	DB *gorm.DB
}

func NewPracticeRepository(db *gorm.DB) *PracticeRepository {
	return &PracticeRepository{DB: db}
}

func (r *PracticeRepository) Create(attempt *model.PracticeAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *PracticeRepository) ListByUser(userID uint, page, limit int) ([]model.PracticeAttempt, int64, error) {
	var attempts []model.PracticeAttempt
	var total int64

	query := r.DB.Model(&model.PracticeAttempt{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}

// PracticeHistoryByDomain aggregates the user's standalone practice attempts
// per domain through the question -> task -> domain chain.
func (r *PracticeRepository) PracticeHistoryByDomain(userID uint) ([]DomainStats, error) {
	var stats []DomainStats
	err := r.DB.Table("practice_attempts").
		Select("domains.name as domain_name, SUM(practice_attempts.is_correct) as correct, COUNT(*) as total, SUM(practice_attempts.time_spent_seconds) as total_time_seconds").
		Joins("JOIN questions ON questions.id = practice_attempts.question_id").
		Joins("JOIN tasks ON tasks.id = questions.task_id").
		Joins("JOIN domains ON domains.id = tasks.domain_id").
		Where("practice_attempts.user_id = ?", userID).
		Where("practice_attempts.deleted_at IS NULL").
		Group("domains.name").
		Scan(&stats).Error
	return stats, err
}
