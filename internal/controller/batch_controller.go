package controller

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// BatchController 批次（班级）管理
type BatchController struct {
	BatchService *service.BatchService
}

func NewBatchController(batchService *service.BatchService) *BatchController {
	return &BatchController{BatchService: batchService}
}

// ListBatches godoc
// @Summary 批次列表
// @Tags 批次管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Batch}
// @Router /api/admin/batches [get]
func (c *BatchController) ListBatches(ctx *gin.Context) {
	batches, err := c.BatchService.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, batches)
}

// BatchRequest 批次创建/更新请求
type BatchRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// CreateBatch godoc
// @Summary 创建批次
// @Tags 批次管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body BatchRequest true "批次信息"
// @Success 201 {object} util.Response{data=model.Batch}
// @Failure 400 {object} util.Response
// @Router /api/admin/batches [post]
func (c *BatchController) CreateBatch(ctx *gin.Context) {
	var req BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	batch := &model.Batch{Name: req.Name, Description: req.Description, Active: true}
	if req.Active != nil {
		batch.Active = *req.Active
	}

	if err := c.BatchService.Create(batch); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, batch)
}

// UpdateBatch godoc
// @Summary 更新批次
// @Tags 批次管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "批次ID"
// @Param body body BatchRequest true "批次信息"
// @Success 200 {object} util.Response{data=model.Batch}
// @Failure 404 {object} util.Response
// @Router /api/admin/batches/{id} [put]
func (c *BatchController) UpdateBatch(ctx *gin.Context) {
	batch, err := c.BatchService.Get(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.NotFound(ctx, "batch not found")
		return
	}

	var req BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	batch.Name = req.Name
	batch.Description = req.Description
	if req.Active != nil {
		batch.Active = *req.Active
	}

	if err := c.BatchService.Update(batch); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, batch)
}

// DeleteBatch godoc
// @Summary 删除批次
// @Tags 批次管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "批次ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/batches/{id} [delete]
func (c *BatchController) DeleteBatch(ctx *gin.Context) {
	if err := c.BatchService.Delete(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrBatchNotFound) {
			util.NotFound(ctx, "batch not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// AssignUserRequest 用户批次指派
type AssignUserRequest struct {
	BatchIDs []uint `json:"batchIds" binding:"required"`
}

// AssignUser godoc
// @Summary 指派用户批次
// @Description 整体替换该用户的批次归属
// @Tags 批次管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Param body body AssignUserRequest true "批次ID列表"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{userId}/batches [put]
func (c *BatchController) AssignUser(ctx *gin.Context) {
	var req AssignUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.BatchService.AssignUser(util.MustParseUint(ctx.Param("userId")), req.BatchIDs); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, "user not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
