package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
	"github.com/victornm/quizgrade/internal/storage"
)

func TestSQLite_Quiz(t *testing.T) {
	ctx := context.Background()
	s := makeSQLite(t)

	passing, limit := 80, 15
	want := &domain.Quiz{
		ID:                 "quiz-1",
		LessonID:           3,
		Title:              "Capitals",
		Questions:          []domain.Question{trueFalse(1, true), fillBlank(2, "Paris")},
		TimeLimit:          &limit,
		PassingScore:       &passing,
		AllowRetries:       true,
		ShowCorrectAnswers: true,
		CreateTime:         time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
	}
	require.NoError(t, s.InsertQuiz(ctx, want))

	got, err := s.GetQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	require.Equal(t, want, got)

	err = s.InsertQuiz(ctx, want)
	require.True(t, errors.Is(err, errors.CodeAlreadyExists), "duplicate quiz id should conflict: %v", err)

	_, err = s.GetQuiz(ctx, "missing")
	require.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestSQLite_Attempts(t *testing.T) {
	ctx := context.Background()
	s := makeSQLite(t)

	require.NoError(t, s.InsertQuiz(ctx, &domain.Quiz{
		ID:         "quiz-1",
		Title:      "Capitals",
		Questions:  []domain.Question{trueFalse(1, true)},
		CreateTime: time.Now(),
	}))

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	spent := 42
	attempts := []*domain.Attempt{
		attempt("a1", "req-1", "alice", base, true),
		attempt("a2", "", "alice", base.Add(time.Minute), false),
		attempt("a3", "", "bob", base.Add(2*time.Minute), true),
	}
	attempts[1].TimeSpent = &spent

	for _, a := range attempts {
		require.NoError(t, s.InsertAttempt(ctx, a))
	}

	alice, err := s.ListAttempts(ctx, "quiz-1", "alice")
	require.NoError(t, err)
	require.Equal(t, []domain.Attempt{*attempts[1], *attempts[0]}, alice, "should list newest first")

	all, err := s.ListAttempts(ctx, "quiz-1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	none, err := s.ListAttempts(ctx, "quiz-2", "")
	require.NoError(t, err)
	require.Empty(t, none)

	replay := attempt("a4", "req-1", "alice", base, true)
	err = s.InsertAttempt(ctx, replay)
	require.True(t, errors.Is(err, errors.CodeAlreadyExists), "request id should be unique: %v", err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), storage.Config{Driver: "oracle"})
	require.Error(t, err)
}

func makeSQLite(t *testing.T) storage.Store {
	var c storage.Config
	c.Driver = storage.DriverSQLite
	c.SQLite.DSN = ":memory:"

	s, err := storage.Open(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s
}

func attempt(id, requestID, learner string, at time.Time, correct bool) *domain.Attempt {
	score := 0
	if correct {
		score = 100
	}

	return &domain.Attempt{
		ID:        id,
		RequestID: requestID,
		QuizID:    "quiz-1",
		LearnerID: learner,
		Answers:   []domain.Answer{{QuestionID: 1, Answer: domain.BoolAnswer(correct)}},
		Result: domain.ScoringResult{
			ScorePercent:   score,
			TotalQuestions: 1,
			CorrectAnswers: score / 100,
			EarnedPoints:   score / 100,
			TotalPoints:    1,
			Passed:         correct,
			Results: []domain.QuestionResult{
				{QuestionID: 1, IsCorrect: correct, PointsEarned: score / 100, MaxPoints: 1},
			},
		},
		CompleteTime: at,
	}
}

func trueFalse(id int, correct bool) domain.Question {
	return domain.Question{
		ID:        id,
		Type:      domain.QuestionTypeTrueFalse,
		Text:      "True or false",
		Points:    1,
		TrueFalse: &domain.TrueFalse{CorrectAnswer: correct},
	}
}

func fillBlank(id int, correct ...string) domain.Question {
	return domain.Question{
		ID:          id,
		Type:        domain.QuestionTypeFillBlank,
		Text:        "Capital of France",
		Points:      2,
		Explanation: "Paris has been the capital since 987.",
		FillBlank:   &domain.FillBlank{CorrectAnswers: correct},
	}
}
