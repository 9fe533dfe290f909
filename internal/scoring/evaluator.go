package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Result 单题评分结果
type Result struct {
	IsCorrect   bool    `json:"isCorrect"`
	IsAttempted bool    `json:"isAttempted"`
	MarksDelta  float64 `json:"marksDelta"`
}

// Evaluate grades one question against the raw submitted answer. It is a
// pure function: no storage, no clock. A nil or JSON-null answer means the
// question was not attempted and is never penalized. A payload whose shape
// does not match the question type is an ErrMalformedAnswer, not a zero score.
func Evaluate(q Question, raw json.RawMessage) (Result, error) {
	if !isAttempted(raw) {
		return Result{}, nil
	}

	switch q.Type {
	case SingleChoice, TrueFalse:
		return evaluateSingleChoice(q, raw)
	case MultiChoice:
		return evaluateMultiChoice(q, raw)
	case FillInBlank:
		return evaluateFillInBlank(q, raw)
	case MatchPairs:
		return evaluateMatchPairs(q, raw)
	case Reorder:
		return evaluateReorder(q, raw)
	case ImageBased:
		// 有选项 → 按选择题；无选项 → 按填空题
		if len(q.Options) > 0 {
			if len(q.CorrectIndexes) > 0 {
				return evaluateMultiChoice(q, raw)
			}
			return evaluateSingleChoice(q, raw)
		}
		return evaluateFillInBlank(q, raw)
	case Hotspot:
		return evaluateHotspot(q, raw)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownQuestionType, q.Type)
	}
}

func isAttempted(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func scored(q Question, correct bool) Result {
	r := Result{IsCorrect: correct, IsAttempted: true}
	if correct {
		r.MarksDelta = q.Marks
	} else {
		r.MarksDelta = -q.NegativeMarks
	}
	return r
}

func evaluateSingleChoice(q Question, raw json.RawMessage) (Result, error) {
	var idx int
	if err := json.Unmarshal(raw, &idx); err != nil {
		return Result{}, fmt.Errorf("%w: expected option index", ErrMalformedAnswer)
	}
	return scored(q, idx == q.CorrectIndex), nil
}

func evaluateMultiChoice(q Question, raw json.RawMessage) (Result, error) {
	var idxs []int
	if err := json.Unmarshal(raw, &idxs); err != nil {
		return Result{}, fmt.Errorf("%w: expected option index list", ErrMalformedAnswer)
	}
	if len(idxs) == 0 {
		// 空列表视为未作答
		return Result{}, nil
	}

	// 严格集合相等：子集、超集与完全不相交一视同仁，都算错
	submitted := make(map[int]struct{}, len(idxs))
	for _, i := range idxs {
		submitted[i] = struct{}{}
	}
	if len(submitted) != len(q.CorrectIndexes) {
		return scored(q, false), nil
	}
	for _, i := range q.CorrectIndexes {
		if _, ok := submitted[i]; !ok {
			return scored(q, false), nil
		}
	}
	return scored(q, true), nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func evaluateFillInBlank(q Question, raw json.RawMessage) (Result, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return Result{}, fmt.Errorf("%w: expected answer text", ErrMalformedAnswer)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, nil
	}
	got := normalizeText(text)
	for _, accepted := range q.AcceptedAnswers {
		if normalizeText(accepted) == got {
			return scored(q, true), nil
		}
	}
	return scored(q, false), nil
}

// evaluateMatchPairs 按比例给分：marks * 对的连线数 / 总连线数。
// 只有全部连错才触发倒扣，部分正确不再追加罚分。
func evaluateMatchPairs(q Question, raw json.RawMessage) (Result, error) {
	var submitted map[string]string
	if err := json.Unmarshal(raw, &submitted); err != nil {
		return Result{}, fmt.Errorf("%w: expected left-to-right pair map", ErrMalformedAnswer)
	}
	if len(submitted) == 0 {
		return Result{}, nil
	}

	total := len(q.Pairs)
	correct := 0
	for _, p := range q.Pairs {
		if right, ok := submitted[p.Left]; ok && normalizeText(right) == normalizeText(p.Right) {
			correct++
		}
	}

	r := Result{IsAttempted: true, IsCorrect: correct == total}
	switch {
	case correct == 0:
		r.MarksDelta = -q.NegativeMarks
	default:
		r.MarksDelta = q.Marks * float64(correct) / float64(total)
	}
	return r, nil
}

func evaluateReorder(q Question, raw json.RawMessage) (Result, error) {
	var order []string
	if err := json.Unmarshal(raw, &order); err != nil {
		return Result{}, fmt.Errorf("%w: expected ordered element list", ErrMalformedAnswer)
	}
	if len(order) == 0 {
		return Result{}, nil
	}
	if len(order) != len(q.CorrectOrder) {
		return scored(q, false), nil
	}
	for i, el := range order {
		if el != q.CorrectOrder[i] {
			return scored(q, false), nil
		}
	}
	return scored(q, true), nil
}

// evaluateHotspot 每个热区只要有任意一次点击落在其矩形内即算命中；
// 落在所有热区之外的点击不计罚分。
func evaluateHotspot(q Question, raw json.RawMessage) (Result, error) {
	var points []Point
	if err := json.Unmarshal(raw, &points); err != nil {
		return Result{}, fmt.Errorf("%w: expected click point list", ErrMalformedAnswer)
	}
	if len(points) == 0 {
		return Result{}, nil
	}

	allFound := true
	for _, region := range q.Regions {
		found := false
		for _, p := range points {
			if regionContains(region, p) {
				found = true
				break
			}
		}
		if !found {
			allFound = false
			break
		}
	}
	return scored(q, allFound), nil
}

func regionContains(r Region, p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}
