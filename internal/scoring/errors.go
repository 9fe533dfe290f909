package scoring

import "errors"

var (
	ErrUnknownQuestionType   = errors.New("unknown question type")
	ErrInvalidQuestionKey    = errors.New("question answer key does not match its type")
	ErrMalformedAnswer       = errors.New("submitted answer has a malformed shape")
	ErrInconsistentAnswerMap = errors.New("answer references a question position outside the quiz")
	ErrQuizWithoutQuestions  = errors.New("quiz has no questions")
)
