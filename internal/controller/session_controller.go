package controller

import (
	"edu_quiz_backend/internal/scoring"
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// StartSession godoc
// @Summary 开始或恢复考试会话
// @Description 存在可用会话时恢复（保留乱序与已答题），否则开新会话
// @Tags 考试会话
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.Snapshot}
// @Failure 403 {object} util.Response "无资格或次数用尽"
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id}/session [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	snap, err := c.SessionService.Start(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// SaveAnswer godoc
// @Summary 保存一题作答
// @Description answer 为 null 时清除该题作答；skip 为 true 标记跳过
// @Tags 考试会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param body body service.AnswerInput true "作答"
// @Success 200 {object} util.Response{data=service.Snapshot}
// @Failure 400 {object} util.Response "位置越界"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/quizzes/{id}/session/answer [put]
func (c *SessionController) SaveAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.AnswerInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snap, err := c.SessionService.SaveAnswer(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")), &input)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// Heartbeat godoc
// @Summary 会话心跳
// @Description 返回权威剩余时间；计时到点时自动交卷并返回已提交状态
// @Tags 考试会话
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.Snapshot}
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/quizzes/{id}/session [get]
func (c *SessionController) Heartbeat(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	snap, err := c.SessionService.Heartbeat(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// SubmitSession godoc
// @Summary 交卷
// @Description 在提交锁内评分落库；成功后会话被清除，重复提交返回 409
// @Tags 考试会话
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 403 {object} util.Response "次数用尽"
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "已有提交在途"
// @Router /api/quizzes/{id}/session/submit [post]
func (c *SessionController) SubmitSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SessionService.Submit(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// AbandonSession godoc
// @Summary 放弃会话
// @Description 丢弃当前会话，不评分也不占用考试名额
// @Tags 考试会话
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/quizzes/{id}/session [delete]
func (c *SessionController) AbandonSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.SessionService.Abandon(ctx.Request.Context(), claims.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *SessionController) sessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, "exam session not found")
	case errors.Is(err, util.ErrQuizNotFound):
		util.NotFound(ctx, "quiz not found")
	case errors.Is(err, util.ErrSubmitInFlight):
		util.Conflict(ctx, err.Error())
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
