package grading_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
	"github.com/victornm/quizgrade/internal/grading"
)

func TestScore(t *testing.T) {
	type (
		inputs struct {
			questions []domain.Question
			answers   []domain.Answer
			opts      []grading.Option
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, res *domain.ScoringResult)
	}{
		"multiple choice with the correct index earns its points": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{multipleChoice(1, 2, []string{"A", "B", "C"}, 1)},
					answers:   []domain.Answer{{QuestionID: 1, Answer: domain.IntAnswer(1)}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, []domain.QuestionResult{
					{QuestionID: 1, IsCorrect: true, PointsEarned: 2, MaxPoints: 2},
				}, res.Results)
				require.Equal(t, 100, res.ScorePercent)
				require.True(t, res.Passed)
			},
		},

		"fill blank is case insensitive and trimmed by default": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{fillBlank(2, 1, false, "Paris")},
					answers:   []domain.Answer{{QuestionID: 2, Answer: domain.StringAnswer("  paris ")}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.True(t, res.Results[0].IsCorrect)
			},
		},

		"fill blank honors case sensitivity": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{fillBlank(2, 1, true, "Paris")},
					answers:   []domain.Answer{{QuestionID: 2, Answer: domain.StringAnswer("paris")}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.False(t, res.Results[0].IsCorrect)
				require.Equal(t, 0, res.Results[0].PointsEarned)
			},
		},

		"matching with every pair correct": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{matching(3, 3, map[int]int{0: 1, 1: 0})},
					answers:   []domain.Answer{{QuestionID: 3, Answer: domain.StringAnswer("1-B, 2-A")}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, domain.QuestionResult{QuestionID: 3, IsCorrect: true, PointsEarned: 3, MaxPoints: 3}, res.Results[0])
			},
		},

		"matching with a missing pair is incorrect": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{matching(3, 3, map[int]int{0: 1, 1: 0})},
					answers:   []domain.Answer{{QuestionID: 3, Answer: domain.StringAnswer("1-B")}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.False(t, res.Results[0].IsCorrect)
			},
		},

		"weighted quiz with one of two questions correct": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{
						trueFalse(1, 2, true),
						trueFalse(2, 3, false),
					},
					answers: []domain.Answer{
						{QuestionID: 1, Answer: domain.BoolAnswer(true)},
						{QuestionID: 2, Answer: domain.BoolAnswer(true)},
					},
					opts: []grading.Option{grading.WithPassingScore(70)},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, 40, res.ScorePercent)
				require.False(t, res.Passed)
				require.Equal(t, 1, res.CorrectAnswers)
				require.Equal(t, 2, res.EarnedPoints)
				require.Equal(t, 5, res.TotalPoints)
			},
		},

		"empty quiz scores zero and fails the default threshold": {
			arrange: func() inputs {
				return inputs{}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, &domain.ScoringResult{Results: []domain.QuestionResult{}}, res)
			},
		},

		"empty quiz passes a zero threshold": {
			arrange: func() inputs {
				return inputs{opts: []grading.Option{grading.WithPassingScore(0)}}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, 0, res.ScorePercent)
				require.True(t, res.Passed)
			},
		},

		"score equal to the threshold passes": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{trueFalse(1, 1, true), trueFalse(2, 1, true)},
					answers:   []domain.Answer{{QuestionID: 1, Answer: domain.BoolAnswer(true)}},
					opts:      []grading.Option{grading.WithPassingScore(50)},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, 50, res.ScorePercent)
				require.True(t, res.Passed)
			},
		},

		"unanswered and null answers are never correct": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{essay(1, 1), essay(2, 1), essay(3, 1)},
					answers: []domain.Answer{
						{QuestionID: 2, Answer: domain.RawAnswer{}},
						{QuestionID: 3, Answer: domain.StringAnswer("An answer")},
					},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, []domain.QuestionResult{
					{QuestionID: 1, IsCorrect: false, PointsEarned: 0, MaxPoints: 1},
					{QuestionID: 2, IsCorrect: false, PointsEarned: 0, MaxPoints: 1},
					{QuestionID: 3, IsCorrect: true, PointsEarned: 1, MaxPoints: 1},
				}, res.Results)
				require.Equal(t, 33, res.ScorePercent)
			},
		},

		"answers for unknown questions are ignored": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{trueFalse(1, 1, true)},
					answers: []domain.Answer{
						{QuestionID: 1, Answer: domain.BoolAnswer(true)},
						{QuestionID: 99, Answer: domain.BoolAnswer(true)},
					},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Len(t, res.Results, 1)
				require.Equal(t, 1, res.CorrectAnswers)
				require.Equal(t, 100, res.ScorePercent)
			},
		},

		"the last answer for a duplicated question id wins": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{trueFalse(1, 1, true)},
					answers: []domain.Answer{
						{QuestionID: 1, Answer: domain.BoolAnswer(true)},
						{QuestionID: 1, Answer: domain.BoolAnswer(false)},
					},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.False(t, res.Results[0].IsCorrect)
			},
		},

		"zero points count as one": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{trueFalse(1, 0, true)},
					answers:   []domain.Answer{{QuestionID: 1, Answer: domain.BoolAnswer(true)}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, 1, res.Results[0].MaxPoints)
				require.Equal(t, 1, res.TotalPoints)
			},
		},

		"negative points are not clamped": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{trueFalse(1, -2, true), trueFalse(2, 1, true)},
					answers:   []domain.Answer{{QuestionID: 1, Answer: domain.BoolAnswer(true)}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, -1, res.TotalPoints)
				require.Equal(t, -2, res.EarnedPoints)
				require.Equal(t, 0, res.ScorePercent, "non-positive total scores zero")
			},
		},

		"unsupported question types are incorrect": {
			arrange: func() inputs {
				return inputs{
					questions: []domain.Question{{ID: 1, Type: "drag-drop", Points: 4}},
					answers:   []domain.Answer{{QuestionID: 1, Answer: domain.StringAnswer("anything")}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, domain.QuestionResult{QuestionID: 1, MaxPoints: 4}, res.Results[0])
				require.Equal(t, 4, res.TotalPoints)
			},
		},

		"halves round up": {
			arrange: func() inputs {
				qs := make([]domain.Question, 0, 8)
				for i := 1; i <= 8; i++ {
					qs = append(qs, trueFalse(i, 1, true))
				}
				// 5/8 = 62.5%
				as := make([]domain.Answer, 0, 5)
				for i := 1; i <= 5; i++ {
					as = append(as, domain.Answer{QuestionID: i, Answer: domain.BoolAnswer(true)})
				}
				return inputs{questions: qs, answers: as}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, 63, res.ScorePercent)
			},
		},
		"ratio just below a half rounds down": {
			arrange: func() inputs {
				// 29/200 is 14.499999999999998% in floating point.
				return inputs{
					questions: []domain.Question{trueFalse(1, 29, true), trueFalse(2, 171, true)},
					answers:   []domain.Answer{{QuestionID: 1, Answer: domain.BoolAnswer(true)}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, 29, res.EarnedPoints)
				require.Equal(t, 200, res.TotalPoints)
				require.Equal(t, 14, res.ScorePercent)
			},
		},
		"another ratio just below a half rounds down": {
			arrange: func() inputs {
				// 57/200 is 28.499999999999996% in floating point.
				return inputs{
					questions: []domain.Question{trueFalse(1, 57, true), trueFalse(2, 143, true)},
					answers:   []domain.Answer{{QuestionID: 1, Answer: domain.BoolAnswer(true)}},
				}
			},
			assert: func(t *testing.T, res *domain.ScoringResult) {
				require.Equal(t, 28, res.ScorePercent)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			res, err := grading.Score(in.questions, in.answers, in.opts...)
			require.NoError(t, err)

			require.Len(t, res.Results, len(in.questions))
			require.Equal(t, len(in.questions), res.TotalQuestions)

			var earned, total int
			for _, r := range res.Results {
				earned += r.PointsEarned
				total += r.MaxPoints
			}
			require.Equal(t, total, res.TotalPoints, "points should be conserved")
			require.Equal(t, earned, res.EarnedPoints, "points should be conserved")

			tt.assert(t, res)
		})
	}
}

func TestScore_MissingTypeIsAnError(t *testing.T) {
	res, err := grading.Score([]domain.Question{
		trueFalse(1, 1, true),
		{ID: 2, Text: "No type"},
	}, nil)

	require.Nil(t, res)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.CodeInvalidArgument))
}

func TestScore_Deterministic(t *testing.T) {
	questions := []domain.Question{
		multipleChoice(1, 2, []string{"A", "B", "C"}, 1),
		fillBlank(2, 1, false, "Paris", "Paname"),
		matching(3, 3, map[int]int{0: 1, 1: 0}),
		essay(4, 5),
	}
	answers := []domain.Answer{
		{QuestionID: 1, Answer: domain.StringAnswer("B")},
		{QuestionID: 2, Answer: domain.StringAnswer("paname")},
		{QuestionID: 3, Answer: domain.StringAnswer("2-A,1-B")},
	}

	first, err := grading.Score(questions, answers)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			again, err := grading.Score(questions, answers)
			assert.NoError(t, err)
			assert.Equal(t, first, again)
		}()
	}
	wg.Wait()

	require.Equal(t, 55, first.ScorePercent)
	require.False(t, first.Passed)
}

func multipleChoice(id, points int, options []string, correct int) domain.Question {
	return domain.Question{
		ID:     id,
		Type:   domain.QuestionTypeMultipleChoice,
		Text:   "Pick one",
		Points: points,
		MultipleChoice: &domain.MultipleChoice{
			Options:       options,
			CorrectAnswer: correct,
		},
	}
}

func trueFalse(id, points int, correct bool) domain.Question {
	return domain.Question{
		ID:        id,
		Type:      domain.QuestionTypeTrueFalse,
		Text:      "True or false",
		Points:    points,
		TrueFalse: &domain.TrueFalse{CorrectAnswer: correct},
	}
}

func fillBlank(id, points int, caseSensitive bool, correct ...string) domain.Question {
	return domain.Question{
		ID:     id,
		Type:   domain.QuestionTypeFillBlank,
		Text:   "Fill the blank",
		Points: points,
		FillBlank: &domain.FillBlank{
			CorrectAnswers: correct,
			CaseSensitive:  caseSensitive,
		},
	}
}

func matching(id, points int, correct map[int]int) domain.Question {
	return domain.Question{
		ID:     id,
		Type:   domain.QuestionTypeMatching,
		Text:   "Match the items",
		Points: points,
		Matching: &domain.Matching{
			LeftItems:      []string{"X", "Y"},
			RightItems:     []string{"P", "Q"},
			CorrectMatches: correct,
		},
	}
}

func essay(id, points int) domain.Question {
	return domain.Question{
		ID:     id,
		Type:   domain.QuestionTypeEssay,
		Text:   "Discuss",
		Points: points,
		Essay:  &domain.Essay{},
	}
}
