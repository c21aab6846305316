package quiz

import (
	"fmt"
	"strings"

	"github.com/victornm/quizgrade/internal/domain"
	"github.com/victornm/quizgrade/internal/errors"
)

// Validate checks that q can be stored and graded. Violations are reported as
// invalid argument errors naming the offending field.
func Validate(q *domain.Quiz) error {
	if strings.TrimSpace(q.Title) == "" {
		return errors.InvalidArgument("title is required")
	}

	if len(q.Questions) == 0 {
		return errors.InvalidArgument("questions: at least one question is required")
	}

	if q.TimeLimit != nil && *q.TimeLimit < 0 {
		return errors.InvalidArgument("timeLimit: must not be negative")
	}

	if q.PassingScore != nil && (*q.PassingScore < 0 || *q.PassingScore > 100) {
		return errors.InvalidArgument("passingScore: must be between 0 and 100")
	}

	seen := make(map[int]struct{}, len(q.Questions))
	for i, qs := range q.Questions {
		if _, ok := seen[qs.ID]; ok {
			return errors.InvalidArgument("questions[%d].id: duplicate id %d", i, qs.ID)
		}
		seen[qs.ID] = struct{}{}

		if err := validateQuestion(qs); err != nil {
			return errors.InvalidArgument("questions[%d].%s", i, err)
		}
	}

	return nil
}

type fieldError struct {
	field string
	msg   string
}

func (e fieldError) Error() string {
	return e.field + ": " + e.msg
}

func validateQuestion(q domain.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fieldError{"question", "is required"}
	}

	if q.Points < 0 {
		return fieldError{"points", "must not be negative"}
	}

	switch q.Type {
	case domain.QuestionTypeMultipleChoice:
		return validateMultipleChoice(q.MultipleChoice)
	case domain.QuestionTypeTrueFalse:
		if q.TrueFalse == nil {
			return fieldError{"correctAnswer", "is required"}
		}
	case domain.QuestionTypeFillBlank:
		return validateFillBlank(q.FillBlank)
	case domain.QuestionTypeMatching:
		return validateMatching(q.Matching)
	case domain.QuestionTypeEssay:
		if q.Essay != nil && q.Essay.MaxWords != nil && *q.Essay.MaxWords < 1 {
			return fieldError{"maxWords", "must be positive"}
		}
	default:
		return fieldError{"type", fmt.Sprintf("unsupported question type %q", q.Type)}
	}

	return nil
}

func validateMultipleChoice(mc *domain.MultipleChoice) error {
	if mc == nil || len(mc.Options) < 2 {
		return fieldError{"options", "at least two options are required"}
	}

	if blank(mc.Options) {
		return fieldError{"options", "must not be empty"}
	}

	if mc.CorrectAnswer < 0 || mc.CorrectAnswer >= len(mc.Options) {
		return fieldError{"correctAnswer", "must be an index into options"}
	}

	return nil
}

func validateFillBlank(fb *domain.FillBlank) error {
	if fb == nil || len(fb.CorrectAnswers) == 0 {
		return fieldError{"correctAnswers", "at least one answer is required"}
	}

	if blank(fb.CorrectAnswers) {
		return fieldError{"correctAnswers", "must not be empty"}
	}

	return nil
}

func validateMatching(m *domain.Matching) error {
	if m == nil || len(m.LeftItems) == 0 {
		return fieldError{"leftItems", "at least one item is required"}
	}

	if len(m.RightItems) == 0 {
		return fieldError{"rightItems", "at least one item is required"}
	}

	if blank(m.LeftItems) {
		return fieldError{"leftItems", "must not be empty"}
	}

	if blank(m.RightItems) {
		return fieldError{"rightItems", "must not be empty"}
	}

	if len(m.CorrectMatches) == 0 {
		return fieldError{"correctMatches", "at least one match is required"}
	}

	for left, right := range m.CorrectMatches {
		if left < 0 || left >= len(m.LeftItems) || right < 0 || right >= len(m.RightItems) {
			return fieldError{"correctMatches", "references an item that does not exist"}
		}
	}

	return nil
}

func blank(items []string) bool {
	for _, s := range items {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}
