package controller

import (
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// GetTopicProgress godoc
// @Summary 主题完成度
// @Description 每份试卷取历史最好成绩；全部启用试卷及格即主题完成
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param topicId path int true "主题ID"
// @Success 200 {object} util.Response{data=service.TopicProgressView}
// @Failure 404 {object} util.Response
// @Router /api/topic-progress/topic/{topicId} [get]
func (c *ProgressController) GetTopicProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.ProgressService.GetTopicProgress(claims.UserID, util.MustParseUint(ctx.Param("topicId")))
	if err != nil {
		if errors.Is(err, util.ErrTopicNotFound) {
			util.NotFound(ctx, "topic not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// ListMyProgress godoc
// @Summary 本人全部主题进度
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.TopicProgressView}
// @Router /api/topic-progress [get]
func (c *ProgressController) ListMyProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	views, err := c.ProgressService.ListUserProgress(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}
