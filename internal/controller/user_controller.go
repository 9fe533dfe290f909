package controller

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// UserController 管理端用户管理
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// ListUsers godoc
// @Summary 用户列表
// @Tags 用户管理
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页条数"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, limit := parsePaging(ctx)
	users, total, err := c.UserService.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}

// GetUser godoc
// @Summary 用户详情
// @Tags 用户管理
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{userId} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.UserService.Get(util.MustParseUint(ctx.Param("userId")))
	if err != nil {
		util.NotFound(ctx, "user not found")
		return
	}
	util.Success(ctx, user)
}

// SetDisabledRequest 停用/启用
type SetDisabledRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// SetDisabled godoc
// @Summary 停用或启用用户
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Param body body SetDisabledRequest true "停用标志"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{userId}/disabled [put]
func (c *UserController) SetDisabled(ctx *gin.Context) {
	var req SetDisabledRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.SetDisabled(util.MustParseUint(ctx.Param("userId")), *req.Disabled); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, "user not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// SetRoleRequest 角色调整
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student admin"`
}

// SetRole godoc
// @Summary 调整用户角色
// @Tags 用户管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "用户ID"
// @Param body body SetRoleRequest true "角色"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/users/{userId}/role [put]
func (c *UserController) SetRole(ctx *gin.Context) {
	var req SetRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.SetRole(util.MustParseUint(ctx.Param("userId")), model.UserRole(req.Role)); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, "user not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
