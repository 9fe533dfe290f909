package scoring

// QuestionType 题型（封闭集合，新增题型需要代码改动）
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	TrueFalse    QuestionType = "true_false"
	MultiChoice  QuestionType = "multi_choice"
	FillInBlank  QuestionType = "fill_in_blank"
	MatchPairs   QuestionType = "match_pairs"
	Reorder      QuestionType = "reorder"
	ImageBased   QuestionType = "image_based"
	Hotspot      QuestionType = "hotspot"
)

// Pair 连线题的一对：Left 为题干侧，Right 为标准答案侧
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Region 图片热区（百分比坐标的外接矩形）
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point 学生在图片上的一次点击（百分比坐标）
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Question is the single tagged-variant definition shared by grading,
// session rendering and reporting. Only the fields matching Type carry
// meaning; the rest stay at their zero value.
type Question struct {
	Type          QuestionType `json:"type"`
	Marks         float64      `json:"marks"`
	NegativeMarks float64      `json:"negativeMarks"`

	Options []string `json:"options,omitempty"`

	// single_choice / true_false
	CorrectIndex int `json:"correctIndex,omitempty"`
	// multi_choice
	CorrectIndexes []int `json:"correctIndexes,omitempty"`
	// fill_in_blank
	AcceptedAnswers []string `json:"acceptedAnswers,omitempty"`
	// match_pairs
	Pairs []Pair `json:"pairs,omitempty"`
	// reorder
	CorrectOrder []string `json:"correctOrder,omitempty"`
	// hotspot
	Regions []Region `json:"regions,omitempty"`
}

// ValidateKey 校验答案键与题型是否匹配（录题时调用，评分阶段假定已通过）
func (q Question) ValidateKey() error {
	if q.Marks <= 0 {
		return ErrInvalidQuestionKey
	}
	if q.NegativeMarks < 0 {
		return ErrInvalidQuestionKey
	}
	switch q.Type {
	case SingleChoice:
		if len(q.Options) == 0 || q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return ErrInvalidQuestionKey
		}
	case TrueFalse:
		if q.CorrectIndex != 0 && q.CorrectIndex != 1 {
			return ErrInvalidQuestionKey
		}
	case MultiChoice:
		if len(q.Options) == 0 || len(q.CorrectIndexes) == 0 {
			return ErrInvalidQuestionKey
		}
		for _, i := range q.CorrectIndexes {
			if i < 0 || i >= len(q.Options) {
				return ErrInvalidQuestionKey
			}
		}
	case FillInBlank:
		if len(q.AcceptedAnswers) == 0 {
			return ErrInvalidQuestionKey
		}
	case MatchPairs:
		if len(q.Pairs) == 0 {
			return ErrInvalidQuestionKey
		}
	case Reorder:
		if len(q.CorrectOrder) < 2 {
			return ErrInvalidQuestionKey
		}
	case ImageBased:
		// 图片题按有无选项退化为选择题或填空题
		if len(q.Options) > 0 {
			if len(q.CorrectIndexes) == 0 && (q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options)) {
				return ErrInvalidQuestionKey
			}
		} else if len(q.AcceptedAnswers) == 0 {
			return ErrInvalidQuestionKey
		}
	case Hotspot:
		if len(q.Regions) == 0 {
			return ErrInvalidQuestionKey
		}
		for _, r := range q.Regions {
			if r.Width <= 0 || r.Height <= 0 {
				return ErrInvalidQuestionKey
			}
		}
	default:
		return ErrUnknownQuestionType
	}
	return nil
}
