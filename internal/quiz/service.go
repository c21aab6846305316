package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/quizgrade/internal/domain"
)

type Repository interface {
	InsertQuiz(ctx context.Context, q *domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
}

type Config struct {
	Repository Repository
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(c Config) *Service {
	return &Service{
		repo: c.Repository,
		now:  time.Now,
	}
}

// CreateQuizRequest represents a request to create a new quiz.
type CreateQuizRequest struct {
	LessonID    int
	Title       string
	Description string
	// Questions in the order they are presented and graded.
	Questions          []domain.Question
	TimeLimit          *int
	PassingScore       *int
	AllowRetries       bool
	ShuffleQuestions   bool
	ShowCorrectAnswers bool
}

// CreateQuiz validates and stores a new quiz.
func (s *Service) CreateQuiz(ctx context.Context, req CreateQuizRequest) (*domain.Quiz, error) {
	q := &domain.Quiz{
		LessonID:           req.LessonID,
		Title:              req.Title,
		Description:        req.Description,
		Questions:          req.Questions,
		TimeLimit:          req.TimeLimit,
		PassingScore:       req.PassingScore,
		AllowRetries:       req.AllowRetries,
		ShuffleQuestions:   req.ShuffleQuestions,
		ShowCorrectAnswers: req.ShowCorrectAnswers,
	}

	if err := Validate(q); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate quiz ID: %w", err)
	}

	q.ID = id.String()
	q.CreateTime = s.now().UTC()

	if err := s.repo.InsertQuiz(ctx, q); err != nil {
		return nil, err
	}

	return q, nil
}

type GetQuizRequest struct {
	QuizID string
}

// GetQuiz returns the quiz including its grading data.
func (s *Service) GetQuiz(ctx context.Context, req GetQuizRequest) (*domain.Quiz, error) {
	return s.repo.GetQuiz(ctx, req.QuizID)
}

// LearnerView returns a copy of q without anything that gives the answers away.
func LearnerView(q domain.Quiz) domain.Quiz {
	qs := make([]domain.Question, 0, len(q.Questions))
	for _, src := range q.Questions {
		dst := src
		dst.Explanation = ""

		switch {
		case src.MultipleChoice != nil:
			dst.MultipleChoice = &domain.MultipleChoice{
				Options:       src.MultipleChoice.Options,
				AllowMultiple: src.MultipleChoice.AllowMultiple,
			}
		case src.TrueFalse != nil:
			dst.TrueFalse = &domain.TrueFalse{}
		case src.FillBlank != nil:
			dst.FillBlank = &domain.FillBlank{}
		case src.Matching != nil:
			dst.Matching = &domain.Matching{
				LeftItems:  src.Matching.LeftItems,
				RightItems: src.Matching.RightItems,
			}
		case src.Essay != nil:
			dst.Essay = &domain.Essay{MaxWords: src.Essay.MaxWords}
		}

		qs = append(qs, dst)
	}

	q.Questions = qs
	return q
}
