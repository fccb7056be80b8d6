package repository

import (
	"pmp_prep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BehaviorRepository struct {
	DB *gorm.DB
}

func NewBehaviorRepository(db *gorm.DB) *BehaviorRepository {
	return &BehaviorRepository{DB: db}
}

func (r *BehaviorRepository) FindBySessionID(sessionID string) (*model.ExamBehaviorProfile, error) {
	var p model.ExamBehaviorProfile
	err := r.DB.Where("session_id = ?", sessionID).First(&p).Error
	return &p, err
}

// FindBySessionIDForUpdate locks the profile row; coach updates inherit the
// same per-session serialization as the answers they follow.
func (r *BehaviorRepository) FindBySessionIDForUpdate(tx *gorm.DB, sessionID string) (*model.ExamBehaviorProfile, error) {
	var p model.ExamBehaviorProfile
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("session_id = ?", sessionID).First(&p).Error
	return &p, err
}

func (r *BehaviorRepository) Create(tx *gorm.DB, profile *model.ExamBehaviorProfile) error {
	return tx.Create(profile).Error
}

func (r *BehaviorRepository) Save(tx *gorm.DB, profile *model.ExamBehaviorProfile) error {
	return tx.Save(profile).Error
}
