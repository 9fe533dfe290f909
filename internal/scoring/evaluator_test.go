package scoring

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustEvaluate(t *testing.T, q Question, raw string) Result {
	t.Helper()
	var payload json.RawMessage
	if raw != "" {
		payload = json.RawMessage(raw)
	}
	res, err := Evaluate(q, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

func singleChoiceQ() Question {
	return Question{
		Type:          SingleChoice,
		Marks:         4,
		NegativeMarks: 1,
		Options:       []string{"a", "b", "c", "d"},
		CorrectIndex:  2,
	}
}

func TestEvaluate_UnattemptedNeverPenalized(t *testing.T) {
	questions := []Question{
		singleChoiceQ(),
		{Type: TrueFalse, Marks: 1, NegativeMarks: 1, CorrectIndex: 1},
		{Type: MultiChoice, Marks: 2, NegativeMarks: 1, Options: []string{"a", "b", "c"}, CorrectIndexes: []int{0, 2}},
		{Type: FillInBlank, Marks: 2, NegativeMarks: 1, AcceptedAnswers: []string{"go"}},
		{Type: MatchPairs, Marks: 3, NegativeMarks: 1, Pairs: []Pair{{Left: "l", Right: "r"}}},
		{Type: Reorder, Marks: 2, NegativeMarks: 1, CorrectOrder: []string{"a", "b"}},
		{Type: Hotspot, Marks: 2, NegativeMarks: 1, Regions: []Region{{X: 0, Y: 0, Width: 10, Height: 10}}},
	}
	for _, q := range questions {
		for _, raw := range []string{"", "null"} {
			res := mustEvaluate(t, q, raw)
			if res.IsAttempted || res.IsCorrect || res.MarksDelta != 0 {
				t.Fatalf("type %s raw %q: expected zero unattempted result, got %+v", q.Type, raw, res)
			}
		}
	}
}

func TestEvaluate_SingleChoice(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		correct bool
		delta   float64
	}{
		{name: "correct index", raw: "2", correct: true, delta: 4},
		{name: "wrong index", raw: "1", correct: false, delta: -1},
		{name: "out of range index is just wrong", raw: "9", correct: false, delta: -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := mustEvaluate(t, singleChoiceQ(), tc.raw)
			if !res.IsAttempted || res.IsCorrect != tc.correct || res.MarksDelta != tc.delta {
				t.Fatalf("got %+v", res)
			}
		})
	}
}

func TestEvaluate_MultiChoiceExactSetOnly(t *testing.T) {
	q := Question{
		Type:           MultiChoice,
		Marks:          4,
		NegativeMarks:  2,
		Options:        []string{"a", "b", "c", "d"},
		CorrectIndexes: []int{0, 2},
	}
	tests := []struct {
		name    string
		raw     string
		correct bool
	}{
		{name: "exact set any order", raw: "[2,0]", correct: true},
		{name: "strict subset", raw: "[0]", correct: false},
		{name: "strict superset", raw: "[0,2,3]", correct: false},
		{name: "disjoint set", raw: "[1,3]", correct: false},
		{name: "duplicates do not fake the count", raw: "[0,0]", correct: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := mustEvaluate(t, q, tc.raw)
			if res.IsCorrect != tc.correct {
				t.Fatalf("expected correct=%v, got %+v", tc.correct, res)
			}
			// 近错与全错同罚：只要不对就扣同样的负分
			if !tc.correct && res.MarksDelta != -2 {
				t.Fatalf("expected delta=-2, got %v", res.MarksDelta)
			}
		})
	}
}

func TestEvaluate_FillInBlankNormalization(t *testing.T) {
	q := Question{
		Type:            FillInBlank,
		Marks:           2,
		NegativeMarks:   1,
		AcceptedAnswers: []string{"Goroutine", "green thread"},
	}
	tests := []struct {
		raw     string
		correct bool
	}{
		{raw: `"goroutine"`, correct: true},
		{raw: `"  GOROUTINE  "`, correct: true},
		{raw: `"Green Thread"`, correct: true},
		{raw: `"thread"`, correct: false},
	}
	for _, tc := range tests {
		res := mustEvaluate(t, q, tc.raw)
		if res.IsCorrect != tc.correct {
			t.Fatalf("raw %s: expected correct=%v, got %+v", tc.raw, tc.correct, res)
		}
	}

	res := mustEvaluate(t, q, `"   "`)
	if res.IsAttempted {
		t.Fatalf("blank-only text should count as unattempted, got %+v", res)
	}
}

func TestEvaluate_MatchPairsProportional(t *testing.T) {
	q := Question{
		Type:          MatchPairs,
		Marks:         6,
		NegativeMarks: 2,
		Pairs: []Pair{
			{Left: "TCP", Right: "transport"},
			{Left: "IP", Right: "network"},
			{Left: "HTTP", Right: "application"},
		},
	}

	t.Run("two of three pairs earn proportional marks without penalty", func(t *testing.T) {
		res := mustEvaluate(t, q, `{"TCP":"transport","IP":"network","HTTP":"session"}`)
		if res.IsCorrect {
			t.Fatalf("partially correct must not be fully correct: %+v", res)
		}
		if want := 6.0 * 2 / 3; res.MarksDelta != want {
			t.Fatalf("expected delta=%v, got %v", want, res.MarksDelta)
		}
	})

	t.Run("all pairs correct case-insensitive", func(t *testing.T) {
		res := mustEvaluate(t, q, `{"TCP":" Transport ","IP":"NETWORK","HTTP":"application"}`)
		if !res.IsCorrect || res.MarksDelta != 6 {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("zero pairs correct is the only negative case", func(t *testing.T) {
		res := mustEvaluate(t, q, `{"TCP":"network","IP":"transport","HTTP":"link"}`)
		if res.IsCorrect || res.MarksDelta != -2 {
			t.Fatalf("got %+v", res)
		}
	})
}

func TestEvaluate_ReorderAdjacentSwapIsIncorrect(t *testing.T) {
	q := Question{
		Type:          Reorder,
		Marks:         3,
		NegativeMarks: 1,
		CorrectOrder:  []string{"fetch", "decode", "execute", "writeback"},
	}

	res := mustEvaluate(t, q, `["fetch","decode","execute","writeback"]`)
	if !res.IsCorrect || res.MarksDelta != 3 {
		t.Fatalf("exact order should be correct, got %+v", res)
	}

	// 任意相邻交换都判错
	for i := 0; i < 3; i++ {
		swapped := []string{"fetch", "decode", "execute", "writeback"}
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		raw, _ := json.Marshal(swapped)
		res := mustEvaluate(t, q, string(raw))
		if res.IsCorrect || res.MarksDelta != -1 {
			t.Fatalf("swap at %d: expected fully incorrect, got %+v", i, res)
		}
	}
}

func TestEvaluate_Hotspot(t *testing.T) {
	q := Question{
		Type:          Hotspot,
		Marks:         4,
		NegativeMarks: 1,
		Regions: []Region{
			{X: 10, Y: 10, Width: 20, Height: 20}, // A
			{X: 60, Y: 60, Width: 10, Height: 10}, // B
		},
	}

	t.Run("only region A found", func(t *testing.T) {
		res := mustEvaluate(t, q, `[{"x":15,"y":15}]`)
		if res.IsCorrect || res.MarksDelta != -1 {
			t.Fatalf("got %+v", res)
		}
	})

	t.Run("both regions found with extra outside clicks", func(t *testing.T) {
		res := mustEvaluate(t, q, `[{"x":1,"y":1},{"x":65,"y":65},{"x":99,"y":2},{"x":12,"y":28}]`)
		if !res.IsCorrect || res.MarksDelta != 4 {
			t.Fatalf("extra clicks must not penalize, got %+v", res)
		}
	})

	t.Run("region edge counts as inside", func(t *testing.T) {
		res := mustEvaluate(t, q, `[{"x":30,"y":30},{"x":60,"y":70}]`)
		if !res.IsCorrect {
			t.Fatalf("got %+v", res)
		}
	})
}

func TestEvaluate_ImageBasedDelegation(t *testing.T) {
	single := Question{Type: ImageBased, Marks: 2, NegativeMarks: 1, Options: []string{"a", "b"}, CorrectIndex: 1}
	if res := mustEvaluate(t, single, "1"); !res.IsCorrect {
		t.Fatalf("image question with options should grade as single choice, got %+v", res)
	}

	multi := Question{Type: ImageBased, Marks: 2, NegativeMarks: 1, Options: []string{"a", "b", "c"}, CorrectIndexes: []int{0, 1}}
	if res := mustEvaluate(t, multi, "[1,0]"); !res.IsCorrect {
		t.Fatalf("image question with index set should grade as multi choice, got %+v", res)
	}

	blank := Question{Type: ImageBased, Marks: 2, NegativeMarks: 1, AcceptedAnswers: []string{"ohm"}}
	if res := mustEvaluate(t, blank, `" Ohm "`); !res.IsCorrect {
		t.Fatalf("image question without options should grade as fill in blank, got %+v", res)
	}
}

func TestEvaluate_MalformedShapes(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		raw  string
	}{
		{name: "single choice given list", q: singleChoiceQ(), raw: `[1]`},
		{name: "multi choice given string", q: Question{Type: MultiChoice, Marks: 1, Options: []string{"a"}, CorrectIndexes: []int{0}}, raw: `"a"`},
		{name: "fill in blank given number", q: Question{Type: FillInBlank, Marks: 1, AcceptedAnswers: []string{"x"}}, raw: `3`},
		{name: "match pairs given list", q: Question{Type: MatchPairs, Marks: 1, Pairs: []Pair{{Left: "l", Right: "r"}}}, raw: `["l"]`},
		{name: "hotspot given scalar", q: Question{Type: Hotspot, Marks: 1, Regions: []Region{{Width: 1, Height: 1}}}, raw: `5`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.q, json.RawMessage(tc.raw))
			if !errors.Is(err, ErrMalformedAnswer) {
				t.Fatalf("expected ErrMalformedAnswer, got %v", err)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	bad := []Question{
		{Type: SingleChoice, Marks: 1, Options: []string{"a"}, CorrectIndex: 5},
		{Type: MultiChoice, Marks: 1, Options: []string{"a"}},
		{Type: FillInBlank, Marks: 1},
		{Type: Reorder, Marks: 1, CorrectOrder: []string{"only"}},
		{Type: Hotspot, Marks: 1, Regions: []Region{{Width: 0, Height: 5}}},
		{Type: SingleChoice, Marks: 0, Options: []string{"a"}, CorrectIndex: 0},
		{Type: "essay", Marks: 1},
	}
	for _, q := range bad {
		if err := q.ValidateKey(); err == nil {
			t.Fatalf("expected key validation to fail for %+v", q)
		}
	}

	if err := singleChoiceQ().ValidateKey(); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
}
