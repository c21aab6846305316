package domain

const (
	EventNameAttemptGraded      = "attempt.graded"
	EventNameLeaderboardUpdated = "leaderboard.updated"
)

type EventAttemptGraded struct {
	Attempt Attempt
}

func (EventAttemptGraded) Name() string { return EventNameAttemptGraded }

type EventLeaderboardUpdated struct {
	Leaderboard Leaderboard
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }
