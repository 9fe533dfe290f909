package controller

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/scoring"
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/util"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type QuizController struct {
	QuizService    *service.QuizService
	StorageService *service.StorageService
}

func NewQuizController(quizService *service.QuizService, storageService *service.StorageService) *QuizController {
	return &QuizController{QuizService: quizService, StorageService: storageService}
}

// QuizRequest 试卷创建/更新请求
type QuizRequest struct {
	TopicID          uint       `json:"topicId" binding:"required"`
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	DurationMinutes  int        `json:"durationMinutes"`
	MaxAttempts      int        `json:"maxAttempts"`
	StartAt          *time.Time `json:"startAt"`
	EndAt            *time.Time `json:"endAt"`
	PassingThreshold float64    `json:"passingThreshold"`
	OpenToAll        *bool      `json:"openToAll"`
	Published        *bool      `json:"published"`
	Active           *bool      `json:"active"`
	BatchIDs         []uint     `json:"batchIds"`
}

func (r *QuizRequest) apply(quiz *model.Quiz) {
	quiz.TopicID = r.TopicID
	quiz.Title = r.Title
	quiz.Description = r.Description
	quiz.DurationMinutes = r.DurationMinutes
	quiz.MaxAttempts = r.MaxAttempts
	quiz.StartAt = r.StartAt
	quiz.EndAt = r.EndAt
	quiz.PassingThreshold = r.PassingThreshold
	if quiz.MaxAttempts <= 0 {
		quiz.MaxAttempts = 1
	}
	if r.OpenToAll != nil {
		quiz.OpenToAll = *r.OpenToAll
	}
	if r.Published != nil {
		quiz.Published = *r.Published
	}
	if r.Active != nil {
		quiz.Active = *r.Active
	}
}

// CreateQuiz godoc
// @Summary 创建试卷
// @Tags 试卷管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body QuizRequest true "试卷信息"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz := &model.Quiz{OpenToAll: true, Active: true}
	req.apply(quiz)

	if err := c.QuizService.CreateQuiz(quiz, req.BatchIDs); err != nil {
		if errors.Is(err, util.ErrTopicNotFound) {
			util.NotFound(ctx, "topic not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary 更新试卷
// @Tags 试卷管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param body body QuizRequest true "试卷信息"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/admin/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	quiz, err := c.QuizService.GetQuiz(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.NotFound(ctx, "quiz not found")
		return
	}

	var req QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.apply(quiz)

	if err := c.QuizService.UpdateQuiz(quiz, req.BatchIDs); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// GetQuiz godoc
// @Summary 试卷详情（管理端，含答案键）
// @Tags 试卷管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/admin/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quiz, err := c.QuizService.GetQuiz(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.NotFound(ctx, "quiz not found")
		return
	}
	util.Success(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary 删除试卷及其题目
// @Tags 试卷管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	if err := c.QuizService.DeleteQuiz(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx, "quiz not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// ListQuizzesForStudent godoc
// @Summary 主题下学生可见的试卷
// @Description 仅返回已发布、在开放窗口内且对该学生开放的试卷，附剩余可考次数
// @Tags 试卷
// @Produce json
// @Security ApiKeyAuth
// @Param topicId path int true "主题ID"
// @Success 200 {object} util.Response{data=[]service.QuizView}
// @Router /api/topics/{topicId}/quizzes [get]
func (c *QuizController) ListQuizzesForStudent(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	views, err := c.QuizService.ListForStudent(util.MustParseUint(ctx.Param("topicId")), claims.UserID, time.Now())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// GetQuizForStudent godoc
// @Summary 试卷详情（学生端，不含题目与答案键）
// @Tags 试卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuizForStudent(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.QuizService.StudentQuizView(util.MustParseUint(ctx.Param("id")), claims.UserID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizNotFound):
			util.NotFound(ctx, "quiz not found")
		case errors.Is(err, util.ErrQuizNotPublished),
			errors.Is(err, util.ErrQuizNotYetAvailable),
			errors.Is(err, util.ErrQuizNoLongerOpen),
			errors.Is(err, util.ErrQuizNotAssigned):
			util.Forbidden(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// AddQuestion godoc
// @Summary 向试卷添加题目
// @Description 答案键在入库前按题型校验，坏键直接拒绝
// @Tags 试卷管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "试卷ID"
// @Param body body service.QuestionInput true "题目信息"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response "答案键无效"
// @Failure 404 {object} util.Response
// @Router /api/admin/quizzes/{id}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	var input service.QuestionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.AddQuestion(util.MustParseUint(ctx.Param("id")), &input)
	if err != nil {
		c.questionError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 试卷管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param body body service.QuestionInput true "题目信息"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response "答案键无效"
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	var input service.QuestionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.UpdateQuestion(util.MustParseUint(ctx.Param("id")), &input)
	if err != nil {
		c.questionError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 试卷管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	if err := c.QuizService.DeleteQuestion(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx, "question not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

func (c *QuizController) questionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound):
		util.NotFound(ctx, "quiz not found")
	case errors.Is(err, util.ErrQuestionNotFound):
		util.NotFound(ctx, "question not found")
	case errors.Is(err, scoring.ErrInvalidQuestionKey),
		errors.Is(err, scoring.ErrUnknownQuestionType):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// UploadQuestionImage godoc
// @Summary 上传题图
// @Description 图片用于 image_based 与 hotspot 题型的题面展示
// @Tags 试卷管理
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "图片文件"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/admin/questions/image [post]
func (c *QuizController) UploadQuestionImage(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	// 深度校验消费了文件头，重新定位后再上传
	if _, err := file.Seek(0, 0); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ext := filepath.Ext(header.Filename)
	filename := fmt.Sprintf("questions/%s/%s%s", time.Now().Format(util.DateFormat), uuid.New().String(), ext)

	url, err := c.StorageService.Upload(ctx.Request.Context(), filename, file, header.Size, mimeType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

func parsePaging(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
