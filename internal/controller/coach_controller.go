package controller

import (
	"errors"

	"pmp_prep_backend/internal/service"
	"pmp_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CoachController struct {
	ExamService  *service.ExamService
	CoachService *service.CoachService
}

func NewCoachController(examService *service.ExamService, coachService *service.CoachService) *CoachController {
	return &CoachController{ExamService: examService, CoachService: coachService}
}

// GetMetrics godoc
// @Summary Live behavior metrics for a session
// @Description Current pattern, engagement and focus scores, and pace trajectory
// @Tags coach
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=service.CurrentMetrics}
// @Failure 404 {object} util.Response
// @Router /api/exam/sessions/{id}/coach/metrics [get]
func (c *CoachController) GetMetrics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.ExamService.GetSession(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondExamError(ctx, err)
		return
	}

	metrics, err := c.CoachService.GetCurrentMetrics(session)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, metrics)
}

// GetSummary godoc
// @Summary Full behavior profile for a session
// @Tags coach
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=model.ExamBehaviorProfile}
// @Failure 404 {object} util.Response "no answers observed yet"
// @Router /api/exam/sessions/{id}/coach/summary [get]
func (c *CoachController) GetSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.ExamService.GetSession(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondExamError(ctx, err)
		return
	}

	profile, err := c.CoachService.GetBehaviorSummary(session)
	if err != nil {
		if errors.Is(err, util.ErrProfileNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// GetGameTape godoc
// @Summary Chronological replay of the session
// @Description Answer events interleaved with the coaching alerts they triggered
// @Tags coach
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=[]exam.TapeEvent}
// @Router /api/exam/sessions/{id}/coach/game-tape [get]
func (c *CoachController) GetGameTape(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.ExamService.GetSession(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondExamError(ctx, err)
		return
	}

	tape, err := c.CoachService.GenerateGameTape(session)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tape)
}
