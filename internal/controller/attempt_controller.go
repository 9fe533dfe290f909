package controller

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/scoring"
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/util"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AttemptController struct {
	AttemptService *service.AttemptService
	ReportService  *service.ReportService
}

func NewAttemptController(attemptService *service.AttemptService, reportService *service.ReportService) *AttemptController {
	return &AttemptController{AttemptService: attemptService, ReportService: reportService}
}

// SubmitAttemptRequest 直接交卷请求；answers 以摊平后的题目位置为键
type SubmitAttemptRequest struct {
	Answers            map[string]json.RawMessage `json:"answers" binding:"required"`
	TimeSpentInSeconds int                        `json:"timeSpentInSeconds"`
}

// SubmitAttempt godoc
// @Summary 提交答卷并评分
// @Description 评分、扣减考试名额并落库，返回成绩与逐题结果
// @Tags 考试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param body body SubmitAttemptRequest true "答卷"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "答案格式错误"
// @Failure 403 {object} util.Response "无资格或次数用尽"
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/attempt [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answers := make(map[int]json.RawMessage, len(req.Answers))
	for key, raw := range req.Answers {
		pos, err := strconv.Atoi(key)
		if err != nil {
			util.BadRequest(ctx, "answer keys must be question positions")
			return
		}
		answers[pos] = raw
	}

	attempt, outcome, err := c.AttemptService.Submit(&service.SubmitInput{
		UserID:           claims.UserID,
		QuizID:           util.MustParseUint(ctx.Param("id")),
		Answers:          answers,
		TimeSpentSeconds: req.TimeSpentInSeconds,
	})
	if err != nil {
		c.submitError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"attempt": attempt,
		"outcome": outcome,
	})
}

func (c *AttemptController) submitError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound):
		util.NotFound(ctx, "quiz not found")
	case errors.Is(err, util.ErrQuizNotPublished),
		errors.Is(err, util.ErrQuizNotYetAvailable),
		errors.Is(err, util.ErrQuizNoLongerOpen),
		errors.Is(err, util.ErrQuizNotAssigned),
		errors.Is(err, util.ErrAttemptLimitReached):
		util.Forbidden(ctx, err.Error())
	case errors.Is(err, scoring.ErrMalformedAnswer),
		errors.Is(err, scoring.ErrInconsistentAnswerMap),
		errors.Is(err, scoring.ErrQuizWithoutQuestions):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// ListQuizAttempts godoc
// @Summary 本人在某试卷下的历次成绩
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=[]model.Attempt}
// @Router /api/quizzes/{id}/attempts [get]
func (c *AttemptController) ListQuizAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	attempts, err := c.AttemptService.ListForQuiz(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// ListMyAttempts godoc
// @Summary 本人的全部考试记录
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/attempts [get]
func (c *AttemptController) ListMyAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, limit := parsePaging(ctx)
	attempts, total, err := c.AttemptService.ListForUser(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: attempts, Total: total, Page: page, Limit: limit})
}

// GetAttemptReport godoc
// @Summary 一次考试的逐题报表
// @Description 判分明细取落库结果，题干与解析取当前试卷内容
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Success 200 {object} util.Response{data=service.AttemptReport}
// @Failure 403 {object} util.Response "只能查看本人的报表"
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id}/report [get]
func (c *AttemptController) GetAttemptReport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.ReportService.BuildReport(
		util.MustParseUint(ctx.Param("id")),
		claims.UserID,
		claims.Role == model.Admin,
	)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(ctx, "attempt not found")
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx, "")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, report)
}

// ListAttemptsForQuizAdmin godoc
// @Summary 某试卷的全部考试记录（管理端）
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param page query int false "页码"
// @Param limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/quizzes/{id}/attempts [get]
func (c *AttemptController) ListAttemptsForQuizAdmin(ctx *gin.Context) {
	page, limit := parsePaging(ctx)
	attempts, total, err := c.AttemptService.ListByQuizForAdmin(util.MustParseUint(ctx.Param("id")), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: attempts, Total: total, Page: page, Limit: limit})
}
