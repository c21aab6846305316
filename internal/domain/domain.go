package domain

import (
	"time"
)

// Quiz is an ordered set of questions with the settings used when grading them.
type Quiz struct {
	ID          string     `json:"id"`
	LessonID    int        `json:"lessonId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	// TimeLimit is in minutes, nil means unlimited.
	TimeLimit          *int      `json:"timeLimit,omitempty"`
	PassingScore       *int      `json:"passingScore,omitempty"`
	AllowRetries       bool      `json:"allowRetries"`
	ShuffleQuestions   bool      `json:"shuffleQuestions"`
	ShowCorrectAnswers bool      `json:"showCorrectAnswers"`
	CreateTime         time.Time `json:"createTime"`
}

// Answer is a learner's submission for one question.
type Answer struct {
	QuestionID int       `json:"questionId"`
	Answer     RawAnswer `json:"answer"`
}

// ScoringResult is the outcome of grading one set of answers against a quiz.
type ScoringResult struct {
	ScorePercent   int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	CorrectAnswers int              `json:"correctAnswers"`
	EarnedPoints   int              `json:"earnedPoints"`
	TotalPoints    int              `json:"totalPoints"`
	Passed         bool             `json:"passed"`
	Results        []QuestionResult `json:"detailedResults"`
}

type QuestionResult struct {
	QuestionID   int  `json:"questionId"`
	IsCorrect    bool `json:"isCorrect"`
	PointsEarned int  `json:"pointsEarned"`
	MaxPoints    int  `json:"maxPoints"`
}

// Attempt is a graded submission of a learner for a quiz.
type Attempt struct {
	ID        string        `json:"id"`
	RequestID string        `json:"requestId,omitempty"`
	QuizID    string        `json:"quizId"`
	LearnerID string        `json:"learnerId"`
	Answers   []Answer      `json:"answers"`
	Result    ScoringResult `json:"result"`
	// TimeSpent is in seconds.
	TimeSpent    *int      `json:"timeSpent,omitempty"`
	CompleteTime time.Time `json:"completeTime"`
}

// Leaderboard represents the best score of each learner within a quiz.
// The list is sorted by score in descending order.
type Leaderboard struct {
	QuizID  string
	Entries []LeaderboardEntry
}

type LeaderboardEntry struct {
	LearnerID string
	Score     int
}
