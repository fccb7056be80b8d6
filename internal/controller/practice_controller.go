package controller

import (
	"errors"
	"strconv"

	"pmp_prep_backend/internal/service"
	"pmp_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService    *service.PracticeService
	PerformanceService *service.PerformanceService
}

func NewPracticeController(practiceService *service.PracticeService, performanceService *service.PerformanceService) *PracticeController {
	return &PracticeController{
		PracticeService:    practiceService,
		PerformanceService: performanceService,
	}
}

type PracticeAttemptRequest struct {
	SelectedAnswer   string `json:"selectedAnswer" binding:"required,oneof=A B C D a b c d"`
	TimeSpentSeconds int    `json:"timeSpentSeconds" binding:"gte=0"`
}

// SubmitAttempt godoc
// @Summary Answer a single practice question
// @Description Grades immediately and returns the explanation
// @Tags practice
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "question id"
// @Param body body PracticeAttemptRequest true "attempt"
// @Success 200 {object} util.Response{data=service.PracticeResult}
// @Failure 404 {object} util.Response "question not found"
// @Router /api/practice/questions/{id}/answer [post]
func (c *PracticeController) SubmitAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	questionID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req PracticeAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.PracticeService.SubmitAttempt(claims.UserID, uint(questionID), req.SelectedAnswer, req.TimeSpentSeconds)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListAttempts godoc
// @Summary Practice history
// @Tags practice
// @Produce json
// @Security BearerAuth
// @Param page query int false "page, 1-based"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response{data=object}
// @Router /api/practice/attempts [get]
func (c *PracticeController) ListAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	attempts, total, err := c.PracticeService.ListAttempts(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"attempts": attempts,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetPerformance godoc
// @Summary Per-domain blended performance
// @Description Exam history weighted 0.7 against practice history at 0.3
// @Tags practice
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/performance [get]
func (c *PracticeController) GetPerformance(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	perf, err := c.PerformanceService.GetUserDomainPerformance(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, perf)
}
