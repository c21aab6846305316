package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
	"github.com/victornm/quizgrade/internal/event"
)

const (
	defaultPublishInterval = 200 * time.Millisecond
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
	// PublishInterval is the minimum time between two leaderboard.updated events of a quiz.
	PublishInterval time.Duration
}

type Service struct {
	eb       *event.Bus
	redis    redis.UniversalClient
	prefix   string
	interval time.Duration
}

func NewService(c Config) *Service {
	s := &Service{
		eb:       c.EventBus,
		redis:    c.Redis,
		prefix:   c.Prefix,
		interval: c.PublishInterval,
	}

	if s.interval <= 0 {
		s.interval = defaultPublishInterval
	}

	s.eb.Subscribe(domain.EventNameAttemptGraded, func(ctx context.Context, e event.Event) error {
		return s.UpdateLeaderboard(ctx, e.(domain.EventAttemptGraded))
	})

	return s
}

type GetLeaderboardRequest struct {
	QuizID string
}

// GetLeaderboard returns the best score of every learner who attempted a quiz.
func (s *Service) GetLeaderboard(ctx context.Context, req GetLeaderboardRequest) (*domain.Leaderboard, error) {
	res, err := s.redis.ZRevRangeWithScores(ctx, s.getLeaderboardKey(req.QuizID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	if len(res) == 0 {
		return nil, errors.NotFound("leaderboard not found: quiz=%s", req.QuizID)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(res))
	for _, z := range res {
		entries = append(entries, domain.LeaderboardEntry{
			LearnerID: z.Member.(string),
			Score:     int(z.Score),
		})
	}

	return &domain.Leaderboard{
		QuizID:  req.QuizID,
		Entries: entries,
	}, nil
}

// UpdateLeaderboard records the attempt's score if it beats the learner's best for the quiz.
func (s *Service) UpdateLeaderboard(ctx context.Context, e domain.EventAttemptGraded) error {
	a := e.Attempt

	// GT only ever raises a member's score, new members are always added.
	if err := s.redis.ZAddGT(ctx, s.getLeaderboardKey(a.QuizID), redis.Z{
		Score:  float64(a.Result.ScorePercent),
		Member: a.LearnerID,
	}).Err(); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	return s.schedulePublishLeaderboard(ctx, a)
}

// schedulePublishLeaderboard publishes the leaderboard at most once per interval.
// Many attempts of a quiz can be graded in a short time, and learners only need the latest board.
func (s *Service) schedulePublishLeaderboard(ctx context.Context, a domain.Attempt) error {
	// Whoever sets the key publishes, other instances skip until it expires.
	ok, err := s.redis.SetNX(ctx, s.getLeaderboardTimeKey(a.QuizID), a.CompleteTime.UnixMilli(), s.interval).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}

	if !ok {
		return nil
	}

	return s.publishLeaderboard(ctx, a)
}

func (s *Service) publishLeaderboard(ctx context.Context, a domain.Attempt) error {
	l, err := s.GetLeaderboard(ctx, GetLeaderboardRequest{
		QuizID: a.QuizID,
	})
	if err != nil {
		return fmt.Errorf("get leaderboard failed: quiz=%s: %w", a.QuizID, err)
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{
		Leaderboard: *l,
	})

	return nil
}

func (s *Service) getLeaderboardKey(quiz string) string {
	return fmt.Sprintf("%s:quiz:%s:leaderboard", s.prefix, quiz)
}

func (s *Service) getLeaderboardTimeKey(quiz string) string {
	return fmt.Sprintf("%s:quiz:%s:time", s.prefix, quiz)
}
