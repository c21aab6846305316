package attempt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
	"github.com/victornm/quizgrade/internal/event"
	"github.com/victornm/quizgrade/internal/grading"
	"github.com/victornm/quizgrade/internal/telemetry"
)

type Quizzes interface {
	GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
}

type Repository interface {
	InsertAttempt(ctx context.Context, a *domain.Attempt) error
	ListAttempts(ctx context.Context, quizID, learnerID string) ([]domain.Attempt, error)
}

type Config struct {
	EventBus   *event.Bus
	Quizzes    Quizzes
	Repository Repository
	// DefaultPassingScore applies to quizzes that do not set their own.
	DefaultPassingScore int
}

type Service struct {
	eb             *event.Bus
	quizzes        Quizzes
	repo           Repository
	defaultPassing int
}

func NewService(c Config) *Service {
	passing := c.DefaultPassingScore
	if passing == 0 {
		passing = grading.DefaultPassingScore
	}

	return &Service{
		eb:             c.EventBus,
		quizzes:        c.Quizzes,
		repo:           c.Repository,
		defaultPassing: passing,
	}
}

type SubmitAttemptRequest struct {
	// RequestID makes a submission idempotent, a replay fails with AlreadyExists.
	RequestID  string
	QuizID     string
	LearnerID  string
	Answers    []domain.Answer
	TimeSpent  *int
	SubmitTime time.Time
}

type SubmitAttemptResponse struct {
	Attempt domain.Attempt
	Quiz    domain.Quiz
}

// SubmitAttempt grades the answers of a learner against a stored quiz and records the attempt.
func (s *Service) SubmitAttempt(ctx context.Context, req SubmitAttemptRequest) (*SubmitAttemptResponse, error) {
	if req.LearnerID == "" {
		return nil, errors.InvalidArgument("learnerId is required")
	}

	q, res, err := s.grade(ctx, req.QuizID, req.Answers)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate attempt ID: %w", err)
	}

	if req.SubmitTime.IsZero() {
		req.SubmitTime = time.Now()
	}

	a := domain.Attempt{
		ID:           id.String(),
		RequestID:    req.RequestID,
		QuizID:       q.ID,
		LearnerID:    req.LearnerID,
		Answers:      req.Answers,
		Result:       *res,
		TimeSpent:    req.TimeSpent,
		CompleteTime: req.SubmitTime.UTC(),
	}

	if err := s.repo.InsertAttempt(ctx, &a); err != nil {
		return nil, err
	}

	telemetry.ObserveAttempt(res.ScorePercent, res.Passed)
	slog.InfoContext(ctx, "attempt: graded",
		"quiz", a.QuizID,
		"learner", a.LearnerID,
		"score", res.ScorePercent,
		"passed", res.Passed,
	)

	s.eb.Publish(ctx, domain.EventAttemptGraded{
		Attempt: a,
	})

	return &SubmitAttemptResponse{
		Attempt: a,
		Quiz:    *q,
	}, nil
}

type PreviewAttemptRequest struct {
	QuizID  string
	Answers []domain.Answer
}

// PreviewAttempt grades answers without recording an attempt.
func (s *Service) PreviewAttempt(ctx context.Context, req PreviewAttemptRequest) (*domain.ScoringResult, error) {
	_, res, err := s.grade(ctx, req.QuizID, req.Answers)
	if err != nil {
		return nil, err
	}

	return res, nil
}

type ListAttemptsRequest struct {
	QuizID string
	// LearnerID narrows the history to one learner when set.
	LearnerID string
}

// ListAttempts returns the attempts of a quiz, newest first.
func (s *Service) ListAttempts(ctx context.Context, req ListAttemptsRequest) ([]domain.Attempt, error) {
	return s.repo.ListAttempts(ctx, req.QuizID, req.LearnerID)
}

func (s *Service) grade(ctx context.Context, quizID string, answers []domain.Answer) (*domain.Quiz, *domain.ScoringResult, error) {
	q, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}

	passing := s.defaultPassing
	if q.PassingScore != nil {
		passing = *q.PassingScore
	}

	start := time.Now()
	res, err := grading.Score(q.Questions, answers, grading.WithPassingScore(passing))
	telemetry.ObserveGrading(time.Since(start))

	// Stored quizzes are validated, so a grading error means the stored data is broken.
	if err != nil {
		return nil, nil, errors.Internal(fmt.Errorf("grade quiz %s: %w", quizID, err))
	}

	return q, res, nil
}
