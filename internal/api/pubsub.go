package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/quizgrade/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	AttemptGraded struct {
		QuizID    string `json:"quizId"`
		AttemptID string `json:"attemptId"`
		Score     int    `json:"score"`
		Passed    bool   `json:"passed"`
	}

	Leaderboard struct {
		QuizID  string             `json:"quizId"`
		Entries []LeaderboardEntry `json:"entries"`
	}

	LeaderboardEntry struct {
		LearnerID string `json:"learnerId"`
		Score     int    `json:"score"`
	}
)

func newLeaderboard(l domain.Leaderboard) Leaderboard {
	data := Leaderboard{
		QuizID:  l.QuizID,
		Entries: make([]LeaderboardEntry, 0, len(l.Entries)),
	}

	for _, entry := range l.Entries {
		data.Entries = append(data.Entries, LeaderboardEntry{
			LearnerID: entry.LearnerID,
			Score:     entry.Score,
		})
	}

	return data
}

// PublishAttemptGraded notifies the learner that their attempt has been graded.
func (a *API) PublishAttemptGraded(ctx context.Context, e domain.EventAttemptGraded) error {
	at := e.Attempt

	return a.publishNotification(ctx, at.LearnerID, e.Name(), AttemptGraded{
		QuizID:    at.QuizID,
		AttemptID: at.ID,
		Score:     at.Result.ScorePercent,
		Passed:    at.Result.Passed,
	})
}

// PublishLeaderboardUpdated sends the new leaderboard to every learner on it.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	data := newLeaderboard(e.Leaderboard)

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, entry := range data.Entries {
		entry := entry
		eg.Go(func() error {
			return a.publishNotification(ctx, entry.LearnerID, e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, learner, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, fmt.Sprintf("%s:learner:%s", a.prefix, learner), b).Err()
}
