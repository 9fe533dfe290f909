package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrInvalidCredentials   = errors.New("邮箱或密码错误")
	ErrAccountDisabled      = errors.New("账号已被停用")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrSubjectNotFound      = errors.New("subject not found")
	ErrTopicNotFound        = errors.New("topic not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuizNotPublished     = errors.New("quiz not published or not accessible")
	ErrQuizNotYetAvailable  = errors.New("quiz not yet available")
	ErrQuizNoLongerOpen     = errors.New("quiz no longer available")
	ErrQuizNotAssigned     = errors.New("quiz not assigned to your batch")
	ErrAttemptLimitReached = errors.New("maximum attempts reached")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrSubmitInFlight       = errors.New("a submission is already being processed")
	ErrSessionNotFound      = errors.New("exam session not found")
	ErrBatchNotFound        = errors.New("batch not found")
	ErrQuestionNotFound     = errors.New("question not found")
)
