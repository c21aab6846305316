package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
)

const schemaSQLite = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS quizzes (
	quiz_id              TEXT PRIMARY KEY,
	lesson_id            INTEGER NOT NULL DEFAULT 0,
	title                TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	questions            TEXT NOT NULL,
	time_limit           INTEGER,
	passing_score        INTEGER,
	allow_retries        INTEGER NOT NULL DEFAULT 1,
	shuffle_questions    INTEGER NOT NULL DEFAULT 0,
	show_correct_answers INTEGER NOT NULL DEFAULT 1,
	create_time          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	attempt_id      TEXT PRIMARY KEY,
	request_id      TEXT UNIQUE,
	quiz_id         TEXT NOT NULL REFERENCES quizzes (quiz_id) ON DELETE CASCADE,
	learner_id      TEXT NOT NULL,
	answers         TEXT NOT NULL,
	result          TEXT NOT NULL,
	score           INTEGER NOT NULL,
	total_questions INTEGER NOT NULL,
	correct_answers INTEGER NOT NULL,
	passed          INTEGER NOT NULL,
	time_spent      INTEGER,
	complete_time   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS attempts_quiz_learner_idx ON attempts (quiz_id, learner_id, complete_time DESC);
`

const defaultSQLiteDSN = "file:quizgrade.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"

// SQLite is a single-file store for local development, offline use and tests.
// Times are stored as unix nanoseconds in UTC.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = defaultSQLiteDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// A single connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() {
	s.db.Close()
}

func (s *SQLite) InsertQuiz(ctx context.Context, q *domain.Quiz) error {
	const stmt = `
INSERT INTO quizzes (quiz_id, lesson_id, title, description, questions, time_limit, passing_score,
	allow_retries, shuffle_questions, show_correct_answers, create_time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, stmt, q.ID, q.LessonID, q.Title, q.Description, string(questions), q.TimeLimit,
		q.PassingScore, q.AllowRetries, q.ShuffleQuestions, q.ShowCorrectAnswers, q.CreateTime.UnixNano())
	if err := sqliteError(err); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}

	return nil
}

func (s *SQLite) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error) {
	const stmt = `
SELECT quiz_id, lesson_id, title, description, questions, time_limit, passing_score,
	allow_retries, shuffle_questions, show_correct_answers, create_time
FROM quizzes
WHERE quiz_id = ?;`

	var (
		q          domain.Quiz
		questions  string
		createTime int64
	)
	err := s.db.QueryRowContext(ctx, stmt, quizID).Scan(&q.ID, &q.LessonID, &q.Title, &q.Description, &questions,
		&q.TimeLimit, &q.PassingScore, &q.AllowRetries, &q.ShuffleQuestions, &q.ShowCorrectAnswers, &createTime)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("quiz not found: quiz=%s", quizID)
	}
	if err != nil {
		return nil, fmt.Errorf("select quiz: %w", err)
	}

	q.CreateTime = time.Unix(0, createTime).UTC()
	if err := json.Unmarshal([]byte(questions), &q.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: quiz=%s: %w", quizID, err)
	}

	return &q, nil
}

func (s *SQLite) InsertAttempt(ctx context.Context, a *domain.Attempt) error {
	const stmt = `
INSERT INTO attempts (attempt_id, request_id, quiz_id, learner_id, answers, result, score,
	total_questions, correct_answers, passed, time_spent, complete_time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	answers, result, err := marshalAttempt(a)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, stmt, a.ID, nullString(a.RequestID), a.QuizID, a.LearnerID, string(answers), string(result),
		a.Result.ScorePercent, a.Result.TotalQuestions, a.Result.CorrectAnswers, a.Result.Passed, a.TimeSpent,
		a.CompleteTime.UnixNano())
	if err := sqliteError(err); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	return nil
}

func (s *SQLite) ListAttempts(ctx context.Context, quizID, learnerID string) ([]domain.Attempt, error) {
	const stmt = `
SELECT attempt_id, request_id, quiz_id, learner_id, answers, result, time_spent, complete_time
FROM attempts
WHERE quiz_id = ? AND (? = '' OR learner_id = ?)
ORDER BY complete_time DESC, attempt_id DESC;`

	rows, err := s.db.QueryContext(ctx, stmt, quizID, learnerID, learnerID)
	if err != nil {
		return nil, fmt.Errorf("select attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var (
			a               domain.Attempt
			requestID       sql.NullString
			answers, result string
			completeTime    int64
		)
		if err := rows.Scan(&a.ID, &requestID, &a.QuizID, &a.LearnerID, &answers, &result, &a.TimeSpent, &completeTime); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}

		a.RequestID = requestID.String
		a.CompleteTime = time.Unix(0, completeTime).UTC()
		if err := unmarshalAttempt(&a, []byte(answers), []byte(result)); err != nil {
			return nil, err
		}

		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}

	return attempts, nil
}

func sqliteError(err error) error {
	var sqErr *sqlite.Error
	if !stderrors.As(err, &sqErr) {
		return err
	}

	switch sqErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT:
		return errors.New(errors.CodeAlreadyExists, errors.WithCause(err))
	}

	return err
}
