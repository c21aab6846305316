// Package grading scores a learner's answers against a quiz's questions.
//
// Score is a pure function: it does no I/O, keeps no state between calls and
// is safe for concurrent use. A malformed answer only costs the learner the
// question it belongs to; the only error is a question set the caller built
// wrongly.
package grading

import (
	"github.com/shopspring/decimal"

	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
)

const DefaultPassingScore = 70

type options struct {
	passingScore int
}

type Option func(o *options)

// WithPassingScore sets the minimum score percentage, inclusive, for a pass.
// Values outside 0-100 are not rejected.
func WithPassingScore(p int) Option {
	return func(o *options) {
		o.passingScore = p
	}
}

var half = decimal.NewFromFloat(0.5)

// Score grades answers against questions. Answers are correlated with questions by id;
// answers for unknown ids are ignored and questions without an answer are incorrect.
func Score(questions []domain.Question, answers []domain.Answer, opts ...Option) (*domain.ScoringResult, error) {
	o := options{passingScore: DefaultPassingScore}
	for _, opt := range opts {
		opt(&o)
	}

	byID := make(map[int]domain.RawAnswer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a.Answer
	}

	res := &domain.ScoringResult{
		TotalQuestions: len(questions),
		Results:        make([]domain.QuestionResult, 0, len(questions)),
	}

	for i, q := range questions {
		if q.Type == "" {
			return nil, errors.InvalidArgument("question at index %d (id=%d) has no type", i, q.ID)
		}

		qr := domain.QuestionResult{
			QuestionID: q.ID,
			MaxPoints:  q.MaxPoints(),
		}

		if raw, ok := byID[q.ID]; ok && !raw.IsNone() && evaluate(q, raw) {
			qr.IsCorrect = true
			qr.PointsEarned = qr.MaxPoints
			res.CorrectAnswers++
		}

		res.TotalPoints += qr.MaxPoints
		res.EarnedPoints += qr.PointsEarned
		res.Results = append(res.Results, qr)
	}

	res.ScorePercent = percent(res.EarnedPoints, res.TotalPoints)
	res.Passed = res.ScorePercent >= o.passingScore

	return res, nil
}

// percent returns earned/total as a whole percentage, rounding halves up.
// The ratio is a float64 so scores agree with clients computing it the same
// way: 29/200 is 14.499999999999998 there and rounds to 14, not 15.
func percent(earned, total int) int {
	if total <= 0 {
		return 0
	}

	p := decimal.NewFromFloat(float64(earned) / float64(total) * 100).
		Add(half).
		Floor()

	return int(p.IntPart())
}
