package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
)

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS quizzes (
	quiz_id              TEXT PRIMARY KEY,
	lesson_id            INTEGER NOT NULL DEFAULT 0,
	title                TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	questions            JSONB NOT NULL,
	time_limit           INTEGER,
	passing_score        INTEGER,
	allow_retries        BOOLEAN NOT NULL DEFAULT TRUE,
	shuffle_questions    BOOLEAN NOT NULL DEFAULT FALSE,
	show_correct_answers BOOLEAN NOT NULL DEFAULT TRUE,
	create_time          TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	attempt_id      TEXT PRIMARY KEY,
	request_id      TEXT UNIQUE,
	quiz_id         TEXT NOT NULL REFERENCES quizzes (quiz_id) ON DELETE CASCADE,
	learner_id      TEXT NOT NULL,
	answers         JSONB NOT NULL,
	result          JSONB NOT NULL,
	score           INTEGER NOT NULL,
	total_questions INTEGER NOT NULL,
	correct_answers INTEGER NOT NULL,
	passed          BOOLEAN NOT NULL,
	time_spent      INTEGER,
	complete_time   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS attempts_quiz_learner_idx ON attempts (quiz_id, learner_id, complete_time DESC);
`

const codeUniqueViolation = "23505"

type Postgres struct {
	db *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := db.Exec(ctx, schemaPostgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (s *Postgres) Close() {
	s.db.Close()
}

func (s *Postgres) InsertQuiz(ctx context.Context, q *domain.Quiz) error {
	const stmt = `
INSERT INTO quizzes (quiz_id, lesson_id, title, description, questions, time_limit, passing_score,
	allow_retries, shuffle_questions, show_correct_answers, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = s.db.Exec(ctx, stmt, q.ID, q.LessonID, q.Title, q.Description, questions, q.TimeLimit, q.PassingScore,
		q.AllowRetries, q.ShuffleQuestions, q.ShowCorrectAnswers, q.CreateTime)
	if err := pgError(err); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}

	return nil
}

func (s *Postgres) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	const stmt = `
SELECT quiz_id, lesson_id, title, description, questions, time_limit, passing_score,
	allow_retries, shuffle_questions, show_correct_answers, create_time
FROM quizzes
WHERE quiz_id = $1;`

	var (
		q         domain.Quiz
		questions []byte
	)
	err := s.db.QueryRow(ctx, stmt, quizID).Scan(&q.ID, &q.LessonID, &q.Title, &q.Description, &questions, &q.TimeLimit,
		&q.PassingScore, &q.AllowRetries, &q.ShuffleQuestions, &q.ShowCorrectAnswers, &q.CreateTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFound("quiz not found: quiz=%s", quizID)
	}
	if err != nil {
		return nil, fmt.Errorf("select quiz: %w", err)
	}

	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: quiz=%s: %w", quizID, err)
	}

	return &q, nil
}

func (s *Postgres) InsertAttempt(ctx context.Context, a *domain.Attempt) error {
	const stmt = `
INSERT INTO attempts (attempt_id, request_id, quiz_id, learner_id, answers, result, score,
	total_questions, correct_answers, passed, time_spent, complete_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	answers, result, err := marshalAttempt(a)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, stmt, a.ID, nullString(a.RequestID), a.QuizID, a.LearnerID, answers, result,
		a.Result.ScorePercent, a.Result.TotalQuestions, a.Result.CorrectAnswers, a.Result.Passed, a.TimeSpent, a.CompleteTime)
	if err := pgError(err); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	return nil
}

func (s *Postgres) ListAttempts(ctx context.Context, quizID, learnerID string) ([]domain.Attempt, error) {
	const stmt = `
SELECT attempt_id, request_id, quiz_id, learner_id, answers, result, time_spent, complete_time
FROM attempts
WHERE quiz_id = $1 AND ($2 = '' OR learner_id = $2)
ORDER BY complete_time DESC, attempt_id DESC;`

	rows, err := s.db.Query(ctx, stmt, quizID, learnerID)
	if err != nil {
		return nil, fmt.Errorf("select attempts: %w", err)
	}

	attempts, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Attempt, error) {
		var (
			a               domain.Attempt
			requestID       *string
			answers, result []byte
		)
		if err := r.Scan(&a.ID, &requestID, &a.QuizID, &a.LearnerID, &answers, &result, &a.TimeSpent, &a.CompleteTime); err != nil {
			return domain.Attempt{}, err
		}
		a.RequestID = derefString(requestID)
		if err := unmarshalAttempt(&a, answers, result); err != nil {
			return domain.Attempt{}, err
		}
		return a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect attempts: %w", err)
	}

	return attempts, nil
}

func pgError(err error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return errors.New(errors.CodeAlreadyExists, errors.WithCause(err))
	}

	return err
}

func marshalAttempt(a *domain.Attempt) (answers, result []byte, err error) {
	answers, err = json.Marshal(a.Answers)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal answers: %w", err)
	}

	result, err = json.Marshal(a.Result)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}

	return answers, result, nil
}

func unmarshalAttempt(a *domain.Attempt, answers, result []byte) error {
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return fmt.Errorf("unmarshal answers: attempt=%s: %w", a.ID, err)
	}

	if err := json.Unmarshal(result, &a.Result); err != nil {
		return fmt.Errorf("unmarshal result: attempt=%s: %w", a.ID, err)
	}

	return nil
}
