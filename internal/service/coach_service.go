package service

import (
	"errors"
	"fmt"
	"time"

	"pmp_prep_backend/internal/exam"
	"pmp_prep_backend/internal/model"
	"pmp_prep_backend/internal/repository"
	"pmp_prep_backend/internal/util"
	"pmp_prep_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// CoachService runs the behavior state machine alongside answer submission.
// It is a best-effort side channel: the exam service logs and drops any error
// it returns, an answer is never rejected because coaching broke.
type CoachService struct {
	Behavior *repository.BehaviorRepository
	Sessions *repository.ExamSessionRepository
	DB       *gorm.DB

	plan  exam.Plan
	coach *exam.Coach
}

func NewCoachService(behavior *repository.BehaviorRepository, sessions *repository.ExamSessionRepository, db *gorm.DB, plan exam.Plan) *CoachService {
	return &CoachService{
		Behavior: behavior,
		Sessions: sessions,
		DB:       db,
		plan:     plan,
		coach:    exam.NewCoach(plan),
	}
}

// ProcessAnswerEvent updates the session's behavior profile from one answer
// event. The profile is created lazily on the first event. A panic inside the
// state machine is converted to an error so the caller can swallow it.
func (s *CoachService) ProcessAnswerEvent(session *model.ExamSession, ev exam.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("behavior coach panic: %v", r)
		}
	}()

	return s.DB.Transaction(func(tx *gorm.DB) error {
		profile, ferr := s.Behavior.FindBySessionIDForUpdate(tx, session.ID)
		created := false
		if ferr != nil {
			if !errors.Is(ferr, gorm.ErrRecordNotFound) {
				return ferr
			}
			profile = s.newProfile(session)
			created = true
		}

		remaining := session.RemainingTime(s.plan.Duration, ev.Timestamp)
		alerts := s.coach.ProcessEvent(profile, ev, exam.Progress{
			AnsweredCount:    session.CurrentQuestionIndex,
			TotalQuestions:   session.QuestionsCount,
			RemainingSeconds: int(remaining.Seconds()),
		})
		for _, a := range alerts {
			monitoring.CoachingAlerts.WithLabelValues(string(a.Severity)).Inc()
		}

		if created {
			return s.Behavior.Create(tx, profile)
		}
		return s.Behavior.Save(tx, profile)
	})
}

func (s *CoachService) newProfile(session *model.ExamSession) *model.ExamBehaviorProfile {
	return &model.ExamBehaviorProfile{
		SessionID:       session.ID,
		UserID:          session.UserID,
		CurrentPattern:  model.PatternNormal,
		PaceTrajectory:  model.PaceOnTrack,
		EngagementScore: 100,
		FocusScore:      100,
	}
}

// CurrentMetrics is the live coaching snapshot for an in-progress session.
type CurrentMetrics struct {
	Pattern              model.BehaviorPattern `json:"pattern"`
	EngagementScore      float64               `json:"engagementScore"`
	FocusScore           float64               `json:"focusScore"`
	PaceTrajectory       model.PaceTrajectory  `json:"paceTrajectory"`
	TimeRemainingSeconds int                   `json:"timeRemainingSeconds"`
	QuestionsCompleted   int                   `json:"questionsCompleted"`
	AvgSecondsPerAnswer  float64               `json:"avgSecondsPerAnswer"`
}

func (s *CoachService) GetCurrentMetrics(session *model.ExamSession) (*CurrentMetrics, error) {
	profile, err := s.Behavior.FindBySessionID(session.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// no events yet: neutral snapshot
			profile = s.newProfile(session)
		} else {
			return nil, err
		}
	}

	remaining := session.RemainingTime(s.plan.Duration, time.Now())
	return &CurrentMetrics{
		Pattern:              profile.CurrentPattern,
		EngagementScore:      profile.EngagementScore,
		FocusScore:           profile.FocusScore,
		PaceTrajectory:       profile.PaceTrajectory,
		TimeRemainingSeconds: int(remaining.Seconds()),
		QuestionsCompleted:   session.CurrentQuestionIndex,
		AvgSecondsPerAnswer:  profile.AvgSecondsPerQuestion,
	}, nil
}

func (s *CoachService) GetBehaviorSummary(session *model.ExamSession) (*model.ExamBehaviorProfile, error) {
	profile, err := s.Behavior.FindBySessionID(session.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// GenerateGameTape builds the chronological post-exam replay from answers and
// coaching history.
func (s *CoachService) GenerateGameTape(session *model.ExamSession) ([]exam.TapeEvent, error) {
	answers, err := s.Sessions.ListAnswers(session.ID)
	if err != nil {
		return nil, err
	}

	var history model.CoachingHistory
	profile, err := s.Behavior.FindBySessionID(session.ID)
	if err == nil {
		history = profile.CoachingHistory
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return exam.BuildGameTape(answers, history), nil
}
