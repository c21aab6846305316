package domain

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeFillBlank      QuestionType = "fill-blank"
	QuestionTypeMatching       QuestionType = "matching"
	QuestionTypeEssay          QuestionType = "essay"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice,
		QuestionTypeTrueFalse,
		QuestionTypeFillBlank,
		QuestionTypeMatching,
		QuestionTypeEssay:
		return true
	}

	return false
}

// Question is one quiz item. Type selects which of the variant payloads is set.
type Question struct {
	ID          int
	Type        QuestionType
	Text        string
	Points      int
	Explanation string

	MultipleChoice *MultipleChoice
	TrueFalse      *TrueFalse
	FillBlank      *FillBlank
	Matching       *Matching
	Essay          *Essay
}

type MultipleChoice struct {
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	// AllowMultiple is stored for authoring only, grading compares a single answer.
	AllowMultiple bool `json:"allowMultiple"`
}

type TrueFalse struct {
	CorrectAnswer bool `json:"correctAnswer"`
}

type FillBlank struct {
	CorrectAnswers []string `json:"correctAnswers"`
	CaseSensitive  bool     `json:"caseSensitive"`
}

type Matching struct {
	LeftItems  []string `json:"leftItems"`
	RightItems []string `json:"rightItems"`
	// CorrectMatches maps a zero-based left index to a zero-based right index.
	CorrectMatches map[int]int `json:"correctMatches"`
}

type Essay struct {
	MaxWords *int   `json:"maxWords,omitempty"`
	Rubric   string `json:"rubric,omitempty"`
}

// MaxPoints is the weight of the question. A zero weight counts as 1.
func (q Question) MaxPoints() int {
	if q.Points == 0 {
		return 1
	}

	return q.Points
}

type questionJSON struct {
	ID          int          `json:"id"`
	Type        QuestionType `json:"type"`
	Text        string       `json:"question"`
	Points      int          `json:"points"`
	Explanation string       `json:"explanation,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	base := questionJSON{
		ID:          q.ID,
		Type:        q.Type,
		Text:        q.Text,
		Points:      q.Points,
		Explanation: q.Explanation,
	}

	switch q.Type {
	case QuestionTypeMultipleChoice:
		return json.Marshal(struct {
			questionJSON
			*MultipleChoice
		}{base, q.MultipleChoice})
	case QuestionTypeTrueFalse:
		return json.Marshal(struct {
			questionJSON
			*TrueFalse
		}{base, q.TrueFalse})
	case QuestionTypeFillBlank:
		return json.Marshal(struct {
			questionJSON
			*FillBlank
		}{base, q.FillBlank})
	case QuestionTypeMatching:
		return json.Marshal(struct {
			questionJSON
			*Matching
		}{base, q.Matching})
	case QuestionTypeEssay:
		return json.Marshal(struct {
			questionJSON
			*Essay
		}{base, q.Essay})
	default:
		return json.Marshal(base)
	}
}

// UnmarshalJSON decodes the flat wire format, where the "type" field decides
// which variant fields are read. Unknown types keep no payload.
func (q *Question) UnmarshalJSON(b []byte) error {
	var base questionJSON
	if err := json.Unmarshal(b, &base); err != nil {
		return err
	}

	*q = Question{
		ID:          base.ID,
		Type:        base.Type,
		Text:        base.Text,
		Points:      base.Points,
		Explanation: base.Explanation,
	}

	var payload any
	switch q.Type {
	case QuestionTypeMultipleChoice:
		q.MultipleChoice = new(MultipleChoice)
		payload = q.MultipleChoice
	case QuestionTypeTrueFalse:
		q.TrueFalse = new(TrueFalse)
		payload = q.TrueFalse
	case QuestionTypeFillBlank:
		q.FillBlank = new(FillBlank)
		payload = q.FillBlank
	case QuestionTypeMatching:
		q.Matching = new(Matching)
		payload = q.Matching
	case QuestionTypeEssay:
		q.Essay = new(Essay)
		payload = q.Essay
	default:
		return nil
	}

	if err := json.Unmarshal(b, payload); err != nil {
		return fmt.Errorf("question %d: %s: %w", q.ID, q.Type, err)
	}

	return nil
}
