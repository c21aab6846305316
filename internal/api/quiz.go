package api

import (
	"math/rand"

	"github.com/victornm/quizgrade/internal/domain"
)

type (
	LearnerQuiz struct {
		ID           string            `json:"id"`
		LessonID     int               `json:"lessonId"`
		Title        string            `json:"title"`
		Description  string            `json:"description,omitempty"`
		Questions    []LearnerQuestion `json:"questions"`
		TimeLimit    *int              `json:"timeLimit,omitempty"`
		PassingScore *int              `json:"passingScore,omitempty"`
		AllowRetries bool              `json:"allowRetries"`
	}

	// LearnerQuestion carries what is needed to answer a question, never how it is graded.
	LearnerQuestion struct {
		ID            int                 `json:"id"`
		Type          domain.QuestionType `json:"type"`
		Question      string              `json:"question"`
		Points        int                 `json:"points"`
		Options       []string            `json:"options,omitempty"`
		AllowMultiple bool                `json:"allowMultiple,omitempty"`
		LeftItems     []string            `json:"leftItems,omitempty"`
		RightItems    []string            `json:"rightItems,omitempty"`
		MaxWords      *int                `json:"maxWords,omitempty"`
	}
)

// newLearnerQuiz converts a learner view of q. Questions are served in a
// random order when the quiz asks for it; grading goes by question id.
func newLearnerQuiz(q domain.Quiz) LearnerQuiz {
	lq := LearnerQuiz{
		ID:           q.ID,
		LessonID:     q.LessonID,
		Title:        q.Title,
		Description:  q.Description,
		Questions:    make([]LearnerQuestion, 0, len(q.Questions)),
		TimeLimit:    q.TimeLimit,
		PassingScore: q.PassingScore,
		AllowRetries: q.AllowRetries,
	}

	for _, qs := range q.Questions {
		lqs := LearnerQuestion{
			ID:       qs.ID,
			Type:     qs.Type,
			Question: qs.Text,
			Points:   qs.MaxPoints(),
		}

		switch {
		case qs.MultipleChoice != nil:
			lqs.Options = qs.MultipleChoice.Options
			lqs.AllowMultiple = qs.MultipleChoice.AllowMultiple
		case qs.Matching != nil:
			lqs.LeftItems = qs.Matching.LeftItems
			lqs.RightItems = qs.Matching.RightItems
		case qs.Essay != nil:
			lqs.MaxWords = qs.Essay.MaxWords
		}

		lq.Questions = append(lq.Questions, lqs)
	}

	if q.ShuffleQuestions {
		rand.Shuffle(len(lq.Questions), func(i, j int) {
			lq.Questions[i], lq.Questions[j] = lq.Questions[j], lq.Questions[i]
		})
	}

	return lq
}
