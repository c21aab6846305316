// Package storage persists quizzes and graded attempts.
package storage

import (
	"context"
	"fmt"

	"github.com/victornm/quizgrade/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string

	Postgres struct {
		Addr string
		User string
		Pass string
		Name string
	}

	SQLite struct {
		DSN string
	}
}

// Store is implemented by every storage driver.
type Store interface {
	InsertQuiz(ctx context.Context, q *domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
	InsertAttempt(ctx context.Context, a *domain.Attempt) error
	ListAttempts(ctx context.Context, quizID, learnerID string) ([]domain.Attempt, error)
	Close()
}

// Open connects to the configured driver and makes sure the schema exists.
func Open(ctx context.Context, c Config) (Store, error) {
	switch c.Driver {
	case DriverPostgres:
		p := c.Postgres
		return OpenPostgres(ctx, fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, p.Pass, p.Addr, p.Name))
	case DriverSQLite:
		return OpenSQLite(ctx, c.SQLite.DSN)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", c.Driver)
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
