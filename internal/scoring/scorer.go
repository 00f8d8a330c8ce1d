package scoring

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"quiz-result-service/internal/domain"
)

// Result is the numeric outcome of scoring one complete answer set.
type Result struct {
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"maxScore"`
	Percentage int     `json:"percentage"`
}

// Score computes score, maxScore and percentage for a complete answer set.
// Partial answer sets fail with *domain.IncompleteSubmissionError before any
// points are computed. Point values are summed exactly and the percentage is
// rounded half up once at the end.
func Score(quiz domain.Quiz, answers domain.AnswerMap) (Result, error) {
	if missing := answers.Missing(quiz); len(missing) > 0 {
		return Result{}, &domain.IncompleteSubmissionError{Missing: missing}
	}
	for _, a := range answers.List(quiz) {
		if _, ok := quiz.Question(a.QuestionID); !ok {
			return Result{}, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, a.QuestionID)
		}
	}

	weighted := quiz.Weighted()
	score := new(big.Rat)
	maxScore := new(big.Rat)
	for _, q := range quiz.Questions {
		optionID := answers[q.ID]
		opt, ok := q.Option(optionID)
		if !ok {
			return Result{}, fmt.Errorf("%w: %s on question %s", domain.ErrOptionNotFound, optionID, q.ID)
		}
		awarded, best := questionPoints(q, opt, weighted)
		score.Add(score, awarded)
		maxScore.Add(maxScore, best)
	}

	s, _ := score.Float64()
	m, _ := maxScore.Float64()
	return Result{
		Score:      s,
		MaxScore:   m,
		Percentage: Percentage(score, maxScore),
	}, nil
}

// questionPoints returns (awarded, obtainable) for one answered question.
func questionPoints(q domain.Question, selected domain.Option, weighted bool) (*big.Rat, *big.Rat) {
	if !weighted {
		weight := big.NewRat(int64(q.Weight()), 1)
		if selected.Correct {
			return weight, weight
		}
		return new(big.Rat), weight
	}

	best := new(big.Rat)
	for _, opt := range q.Options {
		if v := optionValue(opt); v.Cmp(best) > 0 {
			best = v
		}
	}
	return optionValue(selected), best
}

// optionValue is the option's point value floored at zero; unset values count as zero.
// The value is read through its shortest decimal form so 0.35 is 35/100, not
// the nearest binary fraction.
func optionValue(opt domain.Option) *big.Rat {
	if opt.Value == nil {
		return new(big.Rat)
	}
	v := *opt.Value
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return new(big.Rat)
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(v)
	}
	return r
}

// Percentage returns round_half_up(100*score/max) clamped to [0,100].
// A zero maximum yields 0.
func Percentage(score, max *big.Rat) int {
	if max.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Rat).Quo(score, max)
	ratio.Mul(ratio, big.NewRat(100, 1))
	ratio.Add(ratio, big.NewRat(1, 2))
	if ratio.Sign() <= 0 {
		return 0
	}

	// truncation equals floor for positive values
	p := new(big.Int).Quo(ratio.Num(), ratio.Denom()).Int64()
	if p > 100 {
		return 100
	}
	return int(p)
}
