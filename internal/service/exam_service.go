package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"pmp_prep_backend/internal/exam"
	"pmp_prep_backend/internal/model"
	"pmp_prep_backend/internal/repository"
	"pmp_prep_backend/internal/util"
	"pmp_prep_backend/pkg/logger"
	"pmp_prep_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExamService owns the session lifecycle: creation through the allocator,
// idempotent answer submission, wall-clock timeout detection, completion with
// synchronous report generation, and abandonment.
type ExamService struct {
	Sessions *repository.ExamSessionRepository
	Catalog  *repository.CatalogRepository
	Reports  *repository.ExamReportRepository
	Perf     *PerformanceService
	Coach    *CoachService
	Archiver *ReportArchiver
	DB       *gorm.DB

	plan exam.Plan
}

func NewExamService(
	sessions *repository.ExamSessionRepository,
	catalog *repository.CatalogRepository,
	reports *repository.ExamReportRepository,
	perf *PerformanceService,
	coach *CoachService,
	archiver *ReportArchiver,
	db *gorm.DB,
	plan exam.Plan,
) *ExamService {
	return &ExamService{
		Sessions: sessions,
		Catalog:  catalog,
		Reports:  reports,
		Perf:     perf,
		Coach:    coach,
		Archiver: archiver,
		DB:       db,
		plan:     plan,
	}
}

// CreateSession allocates a full exam and persists the session together with
// one placeholder answer row per selected question. One in-progress session
// per user, enforced by a pre-check; the small creation race is accepted
// rather than paying for a distributed lock.
func (s *ExamService) CreateSession(ctx context.Context, userID uint, adaptive bool) (*model.ExamSession, error) {
	if active, err := s.Sessions.FindActiveByUser(userID); err == nil {
		if active.IsTimeExpired(s.plan.Duration, time.Now()) {
			// stale session: finish it with a real report instead of blocking
			if _, cerr := s.autoComplete(active.ID); cerr != nil {
				return nil, cerr
			}
		} else {
			return nil, util.ErrActiveSessionExists
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// absent history yields neutral defaults, never an error that blocks creation
	perf, err := s.Perf.GetUserDomainPerformance(ctx, userID)
	if err != nil {
		logger.Log.Warn("performance aggregation failed, using neutral defaults", zap.Uint("userID", userID), zap.Error(err))
		perf = map[string]exam.DomainPerformance{}
	}

	domains, err := s.Catalog.ListDomains()
	if err != nil {
		return nil, err
	}
	pools, err := s.Catalog.QuestionPoolsByDomain()
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	allocator := exam.NewAllocator(s.plan, rng)
	allocated, err := allocator.Allocate(domains, pools, perf, adaptive)
	if err != nil {
		var allocErr *exam.AllocationError
		if errors.As(err, &allocErr) {
			monitoring.AllocationFailures.Inc()
			logger.Log.Error("exam allocation failed",
				zap.String("domain", allocErr.DomainName),
				zap.Int("requested", allocErr.Requested),
				zap.Int("available", allocErr.Available))
		}
		return nil, err
	}

	session := &model.ExamSession{
		UserID:             userID,
		Status:             model.ExamInProgress,
		StartedAt:          time.Now(),
		QuestionsCount:     len(allocated),
		AdaptiveDifficulty: adaptive,
	}

	answers := make([]model.ExamAnswer, len(allocated))
	for i, aq := range allocated {
		answers[i] = model.ExamAnswer{
			QuestionID:    aq.Question.ID,
			QuestionIndex: aq.QuestionIndex,
		}
	}

	if err := s.Sessions.CreateWithAnswers(session, answers); err != nil {
		return nil, err
	}

	monitoring.ExamSessionsCreated.Inc()
	return session, nil
}

// SubmitAnswer updates the pre-created answer row in place, which is what
// makes resubmission idempotent and revisits detectable. The behavior coach
// is notified after commit and may fail without failing the submission.
func (s *ExamService) SubmitAnswer(sessionID string, userID uint, questionID uint, selected string, timeSpent int, flagged bool) (*model.ExamAnswer, error) {
	var (
		answer    *model.ExamAnswer
		session   *model.ExamSession
		isRevisit bool
	)
	now := time.Now()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = s.lockOwnedSession(tx, sessionID, userID)
		if err != nil {
			return err
		}
		if session.Status != model.ExamInProgress {
			return util.ErrInvalidState
		}
		if session.IsTimeExpired(s.plan.Duration, now) {
			// completion must happen in its own transaction: returning the
			// error rolls this one back
			return util.ErrSessionExpired
		}

		question, err := s.Catalog.FindQuestionByID(questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}

		answer, err = s.Sessions.FindAnswer(tx, sessionID, questionID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// allocation always pre-creates the row; recover anyway
			answer = &model.ExamAnswer{SessionID: sessionID, QuestionID: questionID, QuestionIndex: session.CurrentQuestionIndex}
		}

		isRevisit = applyAnswer(answer, question, selected, timeSpent, flagged)
		if err := s.Sessions.SaveAnswer(tx, answer); err != nil {
			return err
		}

		answered, err := s.Sessions.CountAnswered(tx, sessionID)
		if err != nil {
			return err
		}
		session.CurrentQuestionIndex = int(answered)
		return s.Sessions.Save(tx, session)
	})
	if errors.Is(err, util.ErrSessionExpired) {
		if _, cerr := s.autoComplete(sessionID); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	ev := exam.Event{
		QuestionIndex:    answer.QuestionIndex,
		TimeSpentSeconds: timeSpent,
		IsFlagged:        flagged,
		IsRevisit:        isRevisit,
		IsSkip:           !answer.IsAnswered(),
		Timestamp:        now,
	}
	if err := s.Coach.ProcessAnswerEvent(session, ev); err != nil {
		logger.Log.Warn("behavior coach update failed", zap.String("sessionID", sessionID), zap.Error(err))
	}

	return answer, nil
}

// applyAnswer grades a submission onto the pre-created answer row in place.
// The row identity (ID, QuestionIndex) never changes, which keeps
// resubmission idempotent at exactly one row per question. Reports whether
// the row already carried an answer.
func applyAnswer(answer *model.ExamAnswer, question *model.Question, selected string, timeSpent int, flagged bool) bool {
	isRevisit := answer.IsAnswered()
	normalized := model.NormalizeChoice(selected)
	answer.SelectedAnswer = normalized
	answer.IsCorrect = question.IsCorrectChoice(normalized)
	answer.TimeSpentSeconds = timeSpent
	answer.IsFlagged = flagged
	return isRevisit
}

// CompletionResult is the summary returned by CompleteSession.
type CompletionResult struct {
	ScorePercentage  float64               `json:"scorePercentage"`
	Passed           bool                  `json:"passed"`
	DomainBreakdown  model.DomainBreakdown `json:"domainBreakdown"`
	TaskBreakdown    model.TaskBreakdown   `json:"taskBreakdown"`
	TimeSpentSeconds int                   `json:"timeSpentSeconds"`
	TimeExpired      bool                  `json:"timeExpired"`
}

// CompleteSession finalizes an in-progress session and generates its report
// synchronously in the same transaction. Without force, unanswered questions
// reject the completion with their count.
func (s *ExamService) CompleteSession(sessionID string, userID uint, force bool) (*CompletionResult, error) {
	var report *model.ExamReport
	now := time.Now()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := s.lockOwnedSession(tx, sessionID, userID)
		if err != nil {
			return err
		}
		if session.Status != model.ExamInProgress {
			return util.ErrInvalidState
		}

		if !force && !session.IsTimeExpired(s.plan.Duration, now) {
			answered, err := s.Sessions.CountAnswered(tx, sessionID)
			if err != nil {
				return err
			}
			if outstanding := session.QuestionsCount - int(answered); outstanding > 0 {
				return &util.IncompleteError{Outstanding: outstanding}
			}
		}

		report, err = s.completeLocked(tx, session, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCompletion(userID, report)

	return &CompletionResult{
		ScorePercentage:  report.ScorePercentage,
		Passed:           report.Passed,
		DomainBreakdown:  report.DomainBreakdown,
		TaskBreakdown:    report.TaskBreakdown,
		TimeSpentSeconds: report.TotalTimeSeconds,
		TimeExpired:      report.TimeExpired,
	}, nil
}

// completeLocked finalizes a locked in-progress session: scoring, status,
// report build and persist. Callers hold the row lock.
func (s *ExamService) completeLocked(tx *gorm.DB, session *model.ExamSession, now time.Time) (*model.ExamReport, error) {
	session.TimeExpired = session.IsTimeExpired(s.plan.Duration, now)
	session.EndedAt = &now
	session.TotalTimeSeconds = int(now.Sub(session.StartedAt).Seconds())
	session.Status = model.ExamCompleted

	var answers []model.ExamAnswer
	if err := tx.Where("session_id = ?", session.ID).Order("question_index asc").Find(&answers).Error; err != nil {
		return nil, err
	}

	correct := 0
	questionIDs := make([]uint, 0, len(answers))
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
		questionIDs = append(questionIDs, a.QuestionID)
	}
	session.CorrectCount = correct

	if err := s.Sessions.Save(tx, session); err != nil {
		return nil, err
	}

	lookups, err := s.Catalog.LoadLookups(questionIDs)
	if err != nil {
		return nil, err
	}

	report := exam.BuildReport(s.plan, exam.ReportInput{
		Session:   session,
		Answers:   answers,
		Questions: lookups.Questions,
		Tasks:     lookups.Tasks,
		Domains:   lookups.Domains,
	})
	if err := s.Reports.Create(tx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// afterCompletion runs post-commit only, so the counter never records a
// rolled-back completion.
func (s *ExamService) afterCompletion(userID uint, report *model.ExamReport) {
	monitoring.ExamSessionsCompleted.Inc()
	go s.Archiver.Archive(report)
	go s.Perf.InvalidateUser(userID)
}

// autoComplete finalizes an expired session outside a caller transaction, so
// any read path can trigger it.
func (s *ExamService) autoComplete(sessionID string) (*model.ExamReport, error) {
	var report *model.ExamReport
	var userID uint
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := s.Sessions.FindByIDForUpdate(tx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != model.ExamInProgress {
			return nil // lost the race to another request, nothing to do
		}
		userID = session.UserID
		report, err = s.completeLocked(tx, session, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if report != nil {
		s.afterCompletion(userID, report)
	}
	return report, nil
}

// AbandonSession moves an in-progress session to abandoned. No report is
// generated. An expired session auto-completes instead.
func (s *ExamService) AbandonSession(sessionID string, userID uint) error {
	now := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		session, err := s.lockOwnedSession(tx, sessionID, userID)
		if err != nil {
			return err
		}
		if session.Status != model.ExamInProgress {
			return util.ErrInvalidState
		}
		if session.IsTimeExpired(s.plan.Duration, now) {
			return util.ErrSessionExpired
		}

		session.Status = model.ExamAbandoned
		session.EndedAt = &now
		return s.Sessions.Save(tx, session)
	})
	if errors.Is(err, util.ErrSessionExpired) {
		if _, cerr := s.autoComplete(sessionID); cerr != nil {
			return cerr
		}
	}
	return err
}

// GetSession loads a session the caller owns, auto-completing it first if its
// time budget ran out.
func (s *ExamService) GetSession(sessionID string, userID uint) (*model.ExamSession, error) {
	session, err := s.findOwnedSession(sessionID, userID)
	if err != nil {
		return nil, err
	}

	if session.Status == model.ExamInProgress && session.IsTimeExpired(s.plan.Duration, time.Now()) {
		if _, err := s.autoComplete(session.ID); err != nil {
			return nil, err
		}
		return s.findOwnedSession(sessionID, userID)
	}
	return session, nil
}

// SessionQuestion is one row of the session's question sheet in display order.
type SessionQuestion struct {
	Index            int    `json:"index"`
	QuestionID       uint   `json:"questionId"`
	Text             string `json:"text"`
	OptionA          string `json:"optionA"`
	OptionB          string `json:"optionB"`
	OptionC          string `json:"optionC"`
	OptionD          string `json:"optionD"`
	SelectedAnswer   string `json:"selectedAnswer"`
	IsCorrect        bool   `json:"isCorrect"`
	IsFlagged        bool   `json:"isFlagged"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	DomainName       string `json:"domainName"`
	TaskName         string `json:"taskName"`
}

func (s *ExamService) GetSessionQuestions(sessionID string, userID uint) ([]SessionQuestion, error) {
	session, err := s.GetSession(sessionID, userID)
	if err != nil {
		return nil, err
	}

	answers, err := s.Sessions.ListAnswers(session.ID)
	if err != nil {
		return nil, err
	}
	questionIDs := make([]uint, len(answers))
	for i, a := range answers {
		questionIDs[i] = a.QuestionID
	}
	lookups, err := s.Catalog.LoadLookups(questionIDs)
	if err != nil {
		return nil, err
	}

	out := make([]SessionQuestion, 0, len(answers))
	for _, a := range answers {
		q, ok := lookups.Questions[a.QuestionID]
		if !ok {
			continue
		}
		task := lookups.Tasks[q.TaskID]
		out = append(out, SessionQuestion{
			Index:            a.QuestionIndex,
			QuestionID:       a.QuestionID,
			Text:             q.Text,
			OptionA:          q.OptionA,
			OptionB:          q.OptionB,
			OptionC:          q.OptionC,
			OptionD:          q.OptionD,
			SelectedAnswer:   a.SelectedAnswer,
			IsCorrect:        a.IsCorrect,
			IsFlagged:        a.IsFlagged,
			TimeSpentSeconds: a.TimeSpentSeconds,
			DomainName:       lookups.Domains[task.DomainID].Name,
			TaskName:         task.Name,
		})
	}
	return out, nil
}

// ResumeState points the client back at where the user left off.
type ResumeState struct {
	Session         *model.ExamSession `json:"session"`
	Questions       []SessionQuestion  `json:"questions"`
	CurrentQuestion *SessionQuestion   `json:"currentQuestion"` // nil when done or session not in progress
}

// ResumeSession returns the full sheet plus the first unanswered-or-flagged
// question.
func (s *ExamService) ResumeSession(sessionID string, userID uint) (*ResumeState, error) {
	session, err := s.GetSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	questions, err := s.GetSessionQuestions(sessionID, userID)
	if err != nil {
		return nil, err
	}

	state := &ResumeState{Session: session, Questions: questions}
	if session.Status != model.ExamInProgress {
		return state, nil
	}
	for i := range questions {
		if questions[i].SelectedAnswer == "" || questions[i].IsFlagged {
			state.CurrentQuestion = &questions[i]
			break
		}
	}
	return state, nil
}

func (s *ExamService) ListSessions(userID uint, status model.ExamStatus, page, limit int) ([]model.ExamSession, int64, error) {
	return s.Sessions.ListByUser(userID, status, page, limit)
}

func (s *ExamService) GetReport(sessionID string, userID uint) (*model.ExamReport, error) {
	if _, err := s.GetSession(sessionID, userID); err != nil {
		return nil, err
	}
	report, err := s.Reports.FindBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// RemainingTime exposes the wall-clock countdown for a session the caller owns.
func (s *ExamService) RemainingTime(session *model.ExamSession) time.Duration {
	return session.RemainingTime(s.plan.Duration, time.Now())
}

func (s *ExamService) Plan() exam.Plan {
	return s.plan
}

func (s *ExamService) findOwnedSession(sessionID string, userID uint) (*model.ExamSession, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrForbidden
	}
	return session, nil
}

func (s *ExamService) lockOwnedSession(tx *gorm.DB, sessionID string, userID uint) (*model.ExamSession, error) {
	session, err := s.Sessions.FindByIDForUpdate(tx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrForbidden
	}
	return session, nil
}
