package scoring

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// fiveQuestionSheet: marks {1,1,2,2,4}, total 10.
func fiveQuestionSheet() QuizSheet {
	return QuizSheet{
		PassingThreshold: 60,
		Questions: []Question{
			{Type: SingleChoice, Marks: 1, NegativeMarks: 0, Options: []string{"a", "b"}, CorrectIndex: 0},
			{Type: TrueFalse, Marks: 1, NegativeMarks: 1, CorrectIndex: 1},
			{Type: MultiChoice, Marks: 2, NegativeMarks: 1, Options: []string{"a", "b", "c"}, CorrectIndexes: []int{0, 1}},
			{Type: FillInBlank, Marks: 2, NegativeMarks: 0, AcceptedAnswers: []string{"mutex"}},
			{Type: Reorder, Marks: 4, NegativeMarks: 2, CorrectOrder: []string{"1", "2", "3"}},
		},
	}
}

func TestAggregate_EndToEnd(t *testing.T) {
	// 第1、3、5题答对，第2题答错，第4题未作答
	answers := map[int]json.RawMessage{
		0: json.RawMessage(`0`),
		1: json.RawMessage(`0`),
		2: json.RawMessage(`[1,0]`),
		4: json.RawMessage(`["1","2","3"]`),
	}

	out, err := Aggregate(fiveQuestionSheet(), answers, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.TotalMarks != 10 {
		t.Fatalf("expected totalMarks=10, got %v", out.TotalMarks)
	}
	// 1 + 2 + 4 对，第2题倒扣1
	if want := 1.0 + 2 + 4 - 1; out.MarksObtained != want {
		t.Fatalf("expected marksObtained=%v, got %v", want, out.MarksObtained)
	}
	if want := out.MarksObtained / 10 * 100; out.Percentage != want {
		t.Fatalf("expected percentage=%v, got %v", want, out.Percentage)
	}
	if out.CorrectCount != 3 || out.IncorrectCount != 1 || out.UnattemptedCount != 1 {
		t.Fatalf("bad partition: %+v", out)
	}
	if !out.Passed {
		t.Fatalf("60%% threshold with %v%% should pass", out.Percentage)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	answers := map[int]json.RawMessage{
		0: json.RawMessage(`1`),
		2: json.RawMessage(`[0,1]`),
		3: json.RawMessage(`" Mutex "`),
	}

	first, err := Aggregate(fiveQuestionSheet(), answers, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Aggregate(fiveQuestionSheet(), answers, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregation is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAggregate_PositionOutOfRangeFailsClosed(t *testing.T) {
	answers := map[int]json.RawMessage{
		7: json.RawMessage(`0`),
	}
	_, err := Aggregate(fiveQuestionSheet(), answers, Options{})
	if !errors.Is(err, ErrInconsistentAnswerMap) {
		t.Fatalf("expected ErrInconsistentAnswerMap, got %v", err)
	}

	_, err = Aggregate(fiveQuestionSheet(), map[int]json.RawMessage{-1: json.RawMessage(`0`)}, Options{})
	if !errors.Is(err, ErrInconsistentAnswerMap) {
		t.Fatalf("expected ErrInconsistentAnswerMap for negative position, got %v", err)
	}
}

func TestAggregate_MalformedAnswerFailsClosed(t *testing.T) {
	answers := map[int]json.RawMessage{
		0: json.RawMessage(`"not an index"`),
	}
	_, err := Aggregate(fiveQuestionSheet(), answers, Options{})
	if !errors.Is(err, ErrMalformedAnswer) {
		t.Fatalf("expected ErrMalformedAnswer, got %v", err)
	}
}

func TestAggregate_NegativeTotalPolicy(t *testing.T) {
	sheet := QuizSheet{
		PassingThreshold: 50,
		Questions: []Question{
			{Type: SingleChoice, Marks: 1, NegativeMarks: 3, Options: []string{"a", "b"}, CorrectIndex: 0},
			{Type: SingleChoice, Marks: 1, NegativeMarks: 3, Options: []string{"a", "b"}, CorrectIndex: 0},
		},
	}
	answers := map[int]json.RawMessage{
		0: json.RawMessage(`1`),
		1: json.RawMessage(`1`),
	}

	unfloored, err := Aggregate(sheet, answers, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unfloored.MarksObtained != -6 {
		t.Fatalf("default policy keeps the negative total, got %v", unfloored.MarksObtained)
	}

	floored, err := Aggregate(sheet, answers, Options{FloorNegativeTotal: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if floored.MarksObtained != 0 || floored.Percentage != 0 {
		t.Fatalf("floored policy clamps at zero, got %+v", floored)
	}
}

func TestAggregate_SectionsFlattenInOrder(t *testing.T) {
	sheet := QuizSheet{
		PassingThreshold: 40,
		Sections: []Section{
			{Name: "Physics", Questions: []Question{
				{Type: TrueFalse, Marks: 1, CorrectIndex: 0},
			}},
			{Name: "Chemistry", Questions: []Question{
				{Type: SingleChoice, Marks: 2, Options: []string{"a", "b"}, CorrectIndex: 1},
				{Type: FillInBlank, Marks: 3, AcceptedAnswers: []string{"helium"}},
			}},
		},
	}

	// 位置 1 对应第二节的第一题
	answers := map[int]json.RawMessage{
		1: json.RawMessage(`1`),
		2: json.RawMessage(`"helium"`),
	}
	out, err := Aggregate(sheet, answers, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalMarks != 6 || out.MarksObtained != 5 || out.CorrectCount != 2 {
		t.Fatalf("got %+v", out)
	}
	if !out.PerQuestion[1].IsCorrect || out.PerQuestion[0].IsAttempted {
		t.Fatalf("flatten order broken: %+v", out.PerQuestion)
	}
}

func TestAggregate_TotalMarksCountsUnattempted(t *testing.T) {
	out, err := Aggregate(fiveQuestionSheet(), nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalMarks != 10 || out.MarksObtained != 0 || out.UnattemptedCount != 5 {
		t.Fatalf("got %+v", out)
	}
	if out.Passed {
		t.Fatalf("empty submission must not pass")
	}
}

func TestAggregate_EmptyQuiz(t *testing.T) {
	_, err := Aggregate(QuizSheet{PassingThreshold: 50}, nil, Options{})
	if !errors.Is(err, ErrQuizWithoutQuestions) {
		t.Fatalf("expected ErrQuizWithoutQuestions, got %v", err)
	}
}
