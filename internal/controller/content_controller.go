package controller

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentController 学科与主题目录
type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

func isAdmin(ctx *gin.Context) bool {
	claims := util.GetUserFromContext(ctx)
	return claims != nil && claims.Role == model.Admin
}

// ListSubjects godoc
// @Summary 学科列表
// @Description 学生只看到启用的学科与主题；管理员可见全部
// @Tags 目录
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Subject}
// @Router /api/subjects [get]
func (c *ContentController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.ContentService.ListSubjects(isAdmin(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}

// SubjectRequest 学科创建/更新请求
type SubjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl"`
	Order       int    `json:"order"`
	Active      *bool  `json:"active"`
}

// CreateSubject godoc
// @Summary 创建学科
// @Tags 目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SubjectRequest true "学科信息"
// @Success 201 {object} util.Response{data=model.Subject}
// @Failure 400 {object} util.Response
// @Router /api/admin/subjects [post]
func (c *ContentController) CreateSubject(ctx *gin.Context) {
	var req SubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	subject := &model.Subject{
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		Order:       req.Order,
		Active:      true,
	}
	if req.Active != nil {
		subject.Active = *req.Active
	}

	if err := c.ContentService.CreateSubject(subject); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, subject)
}

// UpdateSubject godoc
// @Summary 更新学科
// @Tags 目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "学科ID"
// @Param body body SubjectRequest true "学科信息"
// @Success 200 {object} util.Response{data=model.Subject}
// @Failure 404 {object} util.Response
// @Router /api/admin/subjects/{id} [put]
func (c *ContentController) UpdateSubject(ctx *gin.Context) {
	subject, err := c.ContentService.GetSubject(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.NotFound(ctx, "subject not found")
		return
	}

	var req SubjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	subject.Name = req.Name
	subject.Description = req.Description
	subject.IconURL = req.IconURL
	subject.Order = req.Order
	if req.Active != nil {
		subject.Active = *req.Active
	}

	if err := c.ContentService.UpdateSubject(subject); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subject)
}

// DeleteSubject godoc
// @Summary 删除学科
// @Tags 目录
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "学科ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/subjects/{id} [delete]
func (c *ContentController) DeleteSubject(ctx *gin.Context) {
	if err := c.ContentService.DeleteSubject(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrSubjectNotFound) {
			util.NotFound(ctx, "subject not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// ListTopics godoc
// @Summary 学科下的主题列表
// @Tags 目录
// @Produce json
// @Security ApiKeyAuth
// @Param subjectId path int true "学科ID"
// @Success 200 {object} util.Response{data=[]model.Topic}
// @Failure 404 {object} util.Response
// @Router /api/subjects/{subjectId}/topics [get]
func (c *ContentController) ListTopics(ctx *gin.Context) {
	topics, err := c.ContentService.ListTopics(util.MustParseUint(ctx.Param("subjectId")), isAdmin(ctx))
	if err != nil {
		if errors.Is(err, util.ErrSubjectNotFound) {
			util.NotFound(ctx, "subject not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, topics)
}

// TopicRequest 主题创建/更新请求
type TopicRequest struct {
	SubjectID   uint   `json:"subjectId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Active      *bool  `json:"active"`
}

// CreateTopic godoc
// @Summary 创建主题
// @Tags 目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body TopicRequest true "主题信息"
// @Success 201 {object} util.Response{data=model.Topic}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/topics [post]
func (c *ContentController) CreateTopic(ctx *gin.Context) {
	var req TopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	topic := &model.Topic{
		SubjectID:   req.SubjectID,
		Name:        req.Name,
		Description: req.Description,
		Order:       req.Order,
		Active:      true,
	}
	if req.Active != nil {
		topic.Active = *req.Active
	}

	if err := c.ContentService.CreateTopic(topic); err != nil {
		if errors.Is(err, util.ErrSubjectNotFound) {
			util.NotFound(ctx, "subject not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, topic)
}

// UpdateTopic godoc
// @Summary 更新主题
// @Tags 目录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "主题ID"
// @Param body body TopicRequest true "主题信息"
// @Success 200 {object} util.Response{data=model.Topic}
// @Failure 404 {object} util.Response
// @Router /api/admin/topics/{id} [put]
func (c *ContentController) UpdateTopic(ctx *gin.Context) {
	topic, err := c.ContentService.GetTopic(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.NotFound(ctx, "topic not found")
		return
	}

	var req TopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	topic.SubjectID = req.SubjectID
	topic.Name = req.Name
	topic.Description = req.Description
	topic.Order = req.Order
	if req.Active != nil {
		topic.Active = *req.Active
	}

	if err := c.ContentService.UpdateTopic(topic); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, topic)
}

// DeleteTopic godoc
// @Summary 删除主题
// @Tags 目录
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "主题ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/topics/{id} [delete]
func (c *ContentController) DeleteTopic(ctx *gin.Context) {
	if err := c.ContentService.DeleteTopic(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrTopicNotFound) {
			util.NotFound(ctx, "topic not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
