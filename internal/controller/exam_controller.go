package controller

import (
	"errors"
	"fmt"
	"strconv"

	"pmp_prep_backend/internal/model"
	"pmp_prep_backend/internal/service"
	"pmp_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// respondExamError maps the service sentinels onto HTTP statuses shared by
// every session endpoint.
func respondExamError(ctx *gin.Context, err error) {
	var incomplete *util.IncompleteError
	switch {
	case errors.Is(err, util.ErrSessionNotFound), errors.Is(err, util.ErrQuestionNotFound), errors.Is(err, util.ErrReportNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrForbidden):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrActiveSessionExists):
		util.Conflict(ctx, "an exam session is already in progress")
	case errors.Is(err, util.ErrInvalidState):
		util.UnprocessableEntity(ctx, "session is not in progress")
	case errors.Is(err, util.ErrSessionExpired):
		util.Gone(ctx, "session time budget has expired")
	case errors.As(err, &incomplete):
		util.UnprocessableEntity(ctx, incomplete.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

type CreateSessionRequest struct {
	AdaptiveDifficulty *bool `json:"adaptiveDifficulty"`
}

// CreateSession godoc
// @Summary Start a full mock exam
// @Description Allocates a weighted question set and opens a timed session
// @Tags exam
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateSessionRequest false "options"
// @Success 201 {object} util.Response{data=object}
// @Failure 409 {object} util.Response "active session exists"
// @Failure 500 {object} util.Response "question pool too small"
// @Router /api/exam/sessions [post]
func (c *ExamController) CreateSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && ctx.Request.ContentLength > 0 {
		util.BadRequest(ctx, err.Error())
		return
	}
	adaptive := true
	if req.AdaptiveDifficulty != nil {
		adaptive = *req.AdaptiveDifficulty
	}

	session, err := c.ExamService.CreateSession(ctx.Request.Context(), claims.UserID, adaptive)
	if err != nil {
		respondExamError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"session":          session,
		"remainingSeconds": int(c.ExamService.RemainingTime(session).Seconds()),
	})
}

// ListSessions godoc
// @Summary List the caller's exam sessions
// @Tags exam
// @Produce json
// @Security BearerAuth
// @Param status query string false "filter by status"
// @Param page query int false "page, 1-based"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response{data=object}
// @Router /api/exam/sessions [get]
func (c *ExamController) ListSessions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	status := model.ExamStatus(ctx.Query("status"))

	sessions, total, err := c.ExamService.ListSessions(claims.UserID, status, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"sessions": sessions,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetSession godoc
// @Summary Session status and countdown
// @Tags exam
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/exam/sessions/{id} [get]
func (c *ExamController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.ExamService.GetSession(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondExamError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"session":          session,
		"remainingSeconds": int(c.ExamService.RemainingTime(session).Seconds()),
	})
}

// GetSessionQuestions godoc
// @Summary Question sheet for a session
// @Tags exam
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=[]service.SessionQuestion}
// @Router /api/exam/sessions/{id}/questions [get]
func (c *ExamController) GetSessionQuestions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	questions, err := c.ExamService.GetSessionQuestions(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondExamError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// ResumeSession godoc
// @Summary Resume an interrupted session
// @Description Returns the sheet plus the first unanswered or flagged question
// @Tags exam
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=service.ResumeState}
// @Router /api/exam/sessions/{id}/resume [get]
func (c *ExamController) ResumeSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	state, err := c.ExamService.ResumeSession(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondExamError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

type SubmitAnswerRequest struct {
	QuestionID       uint   `json:"questionId" binding:"required"`
	SelectedAnswer   string `json:"selectedAnswer" binding:"omitempty,oneof=A B C D a b c d"`
	TimeSpentSeconds int    `json:"timeSpentSeconds" binding:"gte=0"`
	IsFlagged        bool   `json:"isFlagged"`
}

// SubmitAnswer godoc
// @Summary Submit or revise an answer
// @Description Idempotent per question. An empty selectedAnswer records a skip.
// @Tags exam
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param body body SubmitAnswerRequest true "answer"
// @Success 200 {object} util.Response{data=object}
// @Failure 410 {object} util.Response "time budget expired"
// @Failure 422 {object} util.Response "session not in progress"
// @Router /api/exam/sessions/{id}/answers [post]
func (c *ExamController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.ExamService.SubmitAnswer(
		ctx.Param("id"),
		claims.UserID,
		req.QuestionID,
		req.SelectedAnswer,
		req.TimeSpentSeconds,
		req.IsFlagged,
	)
	if err != nil {
		respondExamError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"questionIndex": answer.QuestionIndex,
		"answered":      answer.IsAnswered(),
		"flagged":       answer.IsFlagged,
	})
}

type CompleteSessionRequest struct {
	Force bool `json:"force"`
}

// CompleteSession godoc
// @Summary Finish the exam and score it
// @Description Rejects with the outstanding count unless force is set
// @Tags exam
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param body body CompleteSessionRequest false "options"
// @Success 200 {object} util.Response{data=service.CompletionResult}
// @Failure 422 {object} util.Response "unanswered questions remain"
// @Router /api/exam/sessions/{id}/complete [post]
func (c *ExamController) CompleteSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req CompleteSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && ctx.Request.ContentLength > 0 {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ExamService.CompleteSession(ctx.Param("id"), claims.UserID, req.Force)
	if err != nil {
		respondExamError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// AbandonSession godoc
// @Summary Abandon an in-progress session
// @Tags exam
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response
// @Router /api/exam/sessions/{id}/abandon [post]
func (c *ExamController) AbandonSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	if err := c.ExamService.AbandonSession(ctx.Param("id"), claims.UserID); err != nil {
		respondExamError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"status": string(model.ExamAbandoned)})
}

// GetReport godoc
// @Summary Score report for a completed session
// @Tags exam
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=model.ExamReport}
// @Failure 404 {object} util.Response
// @Router /api/exam/sessions/{id}/report [get]
func (c *ExamController) GetReport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	report, err := c.ExamService.GetReport(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondExamError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// GetPlan godoc
// @Summary Exam blueprint constants
// @Tags exam
// @Produce json
// @Success 200 {object} util.Response{data=object}
// @Router /api/exam/plan [get]
func (c *ExamController) GetPlan(ctx *gin.Context) {
	plan := c.ExamService.Plan()
	util.Success(ctx, gin.H{
		"totalQuestions":  plan.TotalQuestions,
		"durationMinutes": int(plan.Duration.Minutes()),
		"passingScore":    plan.PassingScore,
		"targetPace":      fmt.Sprintf("%.1fs/question", plan.TargetSecondsPerQuestion()),
	})
}
