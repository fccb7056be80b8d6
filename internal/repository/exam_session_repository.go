package repository

import (
	"pmp_prep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamSessionRepository struct {
	DB *gorm.DB
}

func NewExamSessionRepository(db *gorm.DB) *ExamSessionRepository {
	return &ExamSessionRepository{DB: db}
}

// CreateWithAnswers creates the session and all placeholder answer rows in one
// transaction: allocation is all-or-nothing, a partially seeded session must
// never exist.
func (r *ExamSessionRepository) CreateWithAnswers(session *model.ExamSession, answers []model.ExamAnswer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].SessionID = session.ID
		}
		return tx.CreateInBatches(answers, 200).Error
	})
}

func (r *ExamSessionRepository) FindByID(id string) (*model.ExamSession, error) {
	var s model.ExamSession
	err := r.DB.Where("id = ?", id).First(&s).Error
	return &s, err
}

// FindByIDForUpdate takes a row lock on the session inside tx; concurrent
// submissions for the same session serialize on it.
func (r *ExamSessionRepository) FindByIDForUpdate(tx *gorm.DB, id string) (*model.ExamSession, error) {
	var s model.ExamSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&s).Error
	return &s, err
}

func (r *ExamSessionRepository) FindActiveByUser(userID uint) (*model.ExamSession, error) {
	var s model.ExamSession
	err := r.DB.Where("user_id = ? AND status = ?", userID, model.ExamInProgress).First(&s).Error
	return &s, err
}

func (r *ExamSessionRepository) ListByUser(userID uint, status model.ExamStatus, page, limit int) ([]model.ExamSession, int64, error) {
	var sessions []model.ExamSession
	var total int64

	query := r.DB.Model(&model.ExamSession{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("started_at desc").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *ExamSessionRepository) Save(tx *gorm.DB, session *model.ExamSession) error {
	return tx.Save(session).Error
}

func (r *ExamSessionRepository) FindAnswer(tx *gorm.DB, sessionID string, questionID uint) (*model.ExamAnswer, error) {
	var a model.ExamAnswer
	err := tx.Where("session_id = ? AND question_id = ?", sessionID, questionID).First(&a).Error
	return &a, err
}

func (r *ExamSessionRepository) SaveAnswer(tx *gorm.DB, answer *model.ExamAnswer) error {
	return tx.Save(answer).Error
}

func (r *ExamSessionRepository) ListAnswers(sessionID string) ([]model.ExamAnswer, error) {
	var answers []model.ExamAnswer
	err := r.DB.Where("session_id = ?", sessionID).Order("question_index asc").Find(&answers).Error
	return answers, err
}

func (r *ExamSessionRepository) CountAnswered(tx *gorm.DB, sessionID string) (int64, error) {
	var n int64
	err := tx.Model(&model.ExamAnswer{}).
		Where("session_id = ? AND selected_answer <> ''", sessionID).
		Count(&n).Error
	return n, err
}

// DomainStats is one aggregate row of a user's history, grouped by domain.
type DomainStats struct {
	DomainName       string
	Correct          int
	Total            int
	TotalTimeSeconds int
}

// ExamHistoryByDomain aggregates answered questions of the user's completed
// sessions per domain, resolving question -> task -> domain in the query.
func (r *ExamSessionRepository) ExamHistoryByDomain(userID uint) ([]DomainStats, error) {
	var stats []DomainStats
	err := r.DB.Table("exam_answers").
		Select("domains.name as domain_name, SUM(exam_answers.is_correct) as correct, COUNT(*) as total, SUM(exam_answers.time_spent_seconds) as total_time_seconds").
		Joins("JOIN exam_sessions ON exam_sessions.id = exam_answers.session_id").
		Joins("JOIN questions ON questions.id = exam_answers.question_id").
		Joins("JOIN tasks ON tasks.id = questions.task_id").
		Joins("JOIN domains ON domains.id = tasks.domain_id").
		Where("exam_sessions.user_id = ? AND exam_sessions.status = ?", userID, model.ExamCompleted).
		Where("exam_answers.selected_answer <> ''").
		Where("exam_answers.deleted_at IS NULL").
		Group("domains.name").
		Scan(&stats).Error
	return stats, err
}
