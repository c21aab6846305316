package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/quizgrade/internal/attempt"
	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
	"github.com/victornm/quizgrade/internal/event"
	"github.com/victornm/quizgrade/internal/grading"
	"github.com/victornm/quizgrade/internal/leaderboard"
	"github.com/victornm/quizgrade/internal/quiz"
)

type Config struct {
	Router       gin.IRouter
	EventBus     *event.Bus
	Quiz         *quiz.Service
	Attempt      *attempt.Service
	Leaderboard  *leaderboard.Service
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	qs *quiz.Service
	as *attempt.Service
	ls *leaderboard.Service

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		qs:     c.Quiz,
		as:     c.Attempt,
		ls:     c.Leaderboard,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
	}

	// HTTP APIs
	c.Router.POST("/grade", a.Grade)
	c.Router.POST("/quizzes", a.CreateQuiz)
	c.Router.GET("/quizzes/:quizId", a.GetQuiz)
	c.Router.POST("/quizzes/:quizId/attempts", a.SubmitAttempt)
	c.Router.GET("/quizzes/:quizId/attempts", a.ListAttempts)
	c.Router.POST("/quizzes/:quizId/preview", a.PreviewAttempt)
	c.Router.GET("/quizzes/:quizId/leaderboard", a.GetLeaderboard)

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameAttemptGraded, func(ctx context.Context, e event.Event) error {
		return a.PublishAttemptGraded(ctx, e.(domain.EventAttemptGraded))
	})

	c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
		return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
	})

	return a
}

type GradeRequest struct {
	Questions    []domain.Question `json:"questions"`
	Answers      []domain.Answer   `json:"answers"`
	PassingScore *int              `json:"passingScore"`
}

// Grade scores answers against questions sent along in the request, nothing is stored.
func (a *API) Grade(c *gin.Context) {
	var req GradeRequest
	if !bind(c, &req) {
		return
	}

	var opts []grading.Option
	if req.PassingScore != nil {
		opts = append(opts, grading.WithPassingScore(*req.PassingScore))
	}

	res, err := grading.Score(req.Questions, req.Answers, opts...)
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

type CreateQuizRequest struct {
	LessonID           int               `json:"lessonId"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Questions          []domain.Question `json:"questions"`
	TimeLimit          *int              `json:"timeLimit"`
	PassingScore       *int              `json:"passingScore"`
	AllowRetries       *bool             `json:"allowRetries"`
	ShuffleQuestions   bool              `json:"shuffleQuestions"`
	ShowCorrectAnswers *bool             `json:"showCorrectAnswers"`
}

func (a *API) CreateQuiz(c *gin.Context) {
	var req CreateQuizRequest
	if !bind(c, &req) {
		return
	}

	q, err := a.qs.CreateQuiz(c.Request.Context(), quiz.CreateQuizRequest{
		LessonID:           req.LessonID,
		Title:              req.Title,
		Description:        req.Description,
		Questions:          req.Questions,
		TimeLimit:          req.TimeLimit,
		PassingScore:       req.PassingScore,
		AllowRetries:       boolOr(req.AllowRetries, true),
		ShuffleQuestions:   req.ShuffleQuestions,
		ShowCorrectAnswers: boolOr(req.ShowCorrectAnswers, true),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, q)
}

// GetQuiz serves the quiz the way a learner sees it, without any answers.
func (a *API) GetQuiz(c *gin.Context) {
	q, err := a.qs.GetQuiz(c.Request.Context(), quiz.GetQuizRequest{
		QuizID: c.Param("quizId"),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, newLearnerQuiz(quiz.LearnerView(*q)))
}

type SubmitAttemptRequest struct {
	RequestID string          `json:"requestId"`
	LearnerID string          `json:"learnerId"`
	Answers   []domain.Answer `json:"answers"`
	TimeSpent *int            `json:"timeSpent"`
}

type SubmitAttemptResponse struct {
	domain.Attempt
	Feedback []Feedback `json:"feedback,omitempty"`
}

type Feedback struct {
	QuestionID  int    `json:"questionId"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

func (a *API) SubmitAttempt(c *gin.Context) {
	var req SubmitAttemptRequest
	if !bind(c, &req) {
		return
	}

	resp, err := a.as.SubmitAttempt(c.Request.Context(), attempt.SubmitAttemptRequest{
		RequestID: req.RequestID,
		QuizID:    c.Param("quizId"),
		LearnerID: req.LearnerID,
		Answers:   req.Answers,
		TimeSpent: req.TimeSpent,
	})
	if errors.Is(err, errors.CodeAlreadyExists) {
		abort(c, errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("attempt is already submitted: request=%s", req.RequestID),
			errors.WithCause(err),
		))
		return
	}
	if err != nil {
		abort(c, err)
		return
	}

	out := SubmitAttemptResponse{Attempt: resp.Attempt}
	if resp.Quiz.ShowCorrectAnswers {
		out.Feedback = feedback(resp.Quiz, resp.Attempt.Result)
	}

	c.JSON(http.StatusCreated, out)
}

func feedback(q domain.Quiz, res domain.ScoringResult) []Feedback {
	explanations := make(map[int]string, len(q.Questions))
	for _, qs := range q.Questions {
		explanations[qs.ID] = qs.Explanation
	}

	fs := make([]Feedback, 0, len(res.Results))
	for _, r := range res.Results {
		fs = append(fs, Feedback{
			QuestionID:  r.QuestionID,
			IsCorrect:   r.IsCorrect,
			Explanation: explanations[r.QuestionID],
		})
	}

	return fs
}

func (a *API) ListAttempts(c *gin.Context) {
	attempts, err := a.as.ListAttempts(c.Request.Context(), attempt.ListAttemptsRequest{
		QuizID:    c.Param("quizId"),
		LearnerID: c.Query("learnerId"),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}

type PreviewAttemptRequest struct {
	Answers []domain.Answer `json:"answers"`
}

func (a *API) PreviewAttempt(c *gin.Context) {
	var req PreviewAttemptRequest
	if !bind(c, &req) {
		return
	}

	res, err := a.as.PreviewAttempt(c.Request.Context(), attempt.PreviewAttemptRequest{
		QuizID:  c.Param("quizId"),
		Answers: req.Answers,
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (a *API) GetLeaderboard(c *gin.Context) {
	l, err := a.ls.GetLeaderboard(c.Request.Context(), leaderboard.GetLeaderboardRequest{
		QuizID: c.Param("quizId"),
	})
	if err != nil {
		abort(c, err)
		return
	}

	c.JSON(http.StatusOK, newLeaderboard(*l))
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request body: %v", err),
			errors.WithCause(err),
		))
		return false
	}

	return true
}

func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"path", c.FullPath(),
			"error", err,
		)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), ErrorResponse{
		Code:    e.Code.String(),
		Message: e.Message,
	})
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
