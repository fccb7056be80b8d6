package service

import (
	"errors"

	"pmp_prep_backend/internal/model"
	"pmp_prep_backend/internal/repository"
	"pmp_prep_backend/internal/util"

	"gorm.io/gorm"
)

// PracticeService records standalone practice answers. Practice attempts feed
// the performance aggregator at the lighter 0.3 weight but have no timer and
// no session.
type PracticeService struct {
	Practice *repository.PracticeRepository
	Catalog  *repository.CatalogRepository
	Perf     *PerformanceService
}

func NewPracticeService(practice *repository.PracticeRepository, catalog *repository.CatalogRepository, perf *PerformanceService) *PracticeService {
	return &PracticeService{Practice: practice, Catalog: catalog, Perf: perf}
}

// PracticeResult echoes the grade back immediately, explanation included.
type PracticeResult struct {
	AttemptID     uint   `json:"attemptId"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

func (s *PracticeService) SubmitAttempt(userID, questionID uint, selected string, timeSpent int) (*PracticeResult, error) {
	question, err := s.Catalog.FindQuestionByID(questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	normalized := model.NormalizeChoice(selected)
	attempt := &model.PracticeAttempt{
		UserID:           userID,
		QuestionID:       questionID,
		SelectedAnswer:   normalized,
		IsCorrect:        question.IsCorrectChoice(normalized),
		TimeSpentSeconds: timeSpent,
	}
	if err := s.Practice.Create(attempt); err != nil {
		return nil, err
	}

	go s.Perf.InvalidateUser(userID)

	return &PracticeResult{
		AttemptID:     attempt.ID,
		IsCorrect:     attempt.IsCorrect,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
	}, nil
}

func (s *PracticeService) ListAttempts(userID uint, page, limit int) ([]model.PracticeAttempt, int64, error) {
	return s.Practice.ListByUser(userID, page, limit)
}
