package grading

import (
	"strings"
	"unicode"

	"github.com/victornm/quizgrade/internal/domain"
)

// evaluate reports whether raw is a correct answer to q.
// It never fails: a wrong shape, missing grading data or an unknown type is incorrect.
func evaluate(q domain.Question, raw domain.RawAnswer) bool {
	switch q.Type {
	case domain.QuestionTypeMultipleChoice:
		return q.MultipleChoice != nil && evaluateMultipleChoice(*q.MultipleChoice, raw)
	case domain.QuestionTypeTrueFalse:
		return q.TrueFalse != nil && evaluateTrueFalse(*q.TrueFalse, raw)
	case domain.QuestionTypeFillBlank:
		return q.FillBlank != nil && evaluateFillBlank(*q.FillBlank, raw)
	case domain.QuestionTypeMatching:
		return q.Matching != nil && evaluateMatching(*q.Matching, raw)
	case domain.QuestionTypeEssay:
		return evaluateEssay(raw)
	default:
		return false
	}
}

// evaluateMultipleChoice accepts either the option index or the option text.
// Multi-select is not graded, only the single correct index is compared.
func evaluateMultipleChoice(mc domain.MultipleChoice, raw domain.RawAnswer) bool {
	if i, ok := raw.AsInt(); ok {
		return i == mc.CorrectAnswer
	}

	if s, ok := raw.AsString(); ok {
		if mc.CorrectAnswer < 0 || mc.CorrectAnswer >= len(mc.Options) {
			return false
		}
		return s == mc.Options[mc.CorrectAnswer]
	}

	return false
}

func evaluateTrueFalse(tf domain.TrueFalse, raw domain.RawAnswer) bool {
	b, ok := raw.AsBool()
	return ok && b == tf.CorrectAnswer
}

func evaluateFillBlank(fb domain.FillBlank, raw domain.RawAnswer) bool {
	s, ok := raw.AsString()
	if !ok {
		return false
	}

	answer := normalizeBlank(s, fb.CaseSensitive)
	for _, c := range fb.CorrectAnswers {
		if answer == normalizeBlank(c, fb.CaseSensitive) {
			return true
		}
	}

	return false
}

func normalizeBlank(s string, caseSensitive bool) string {
	s = trim(s)
	if !caseSensitive {
		s = strings.ToLower(s)
	}
	return s
}

func evaluateMatching(m domain.Matching, raw domain.RawAnswer) (correct bool) {
	s, ok := raw.AsString()
	if !ok {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			correct = false
		}
	}()

	got := parseMatches(s)
	if len(got) != len(m.CorrectMatches) {
		return false
	}

	for left, right := range m.CorrectMatches {
		if r, ok := got[left]; !ok || r != right {
			return false
		}
	}

	return true
}

// evaluateEssay only checks that there is content. Essays need a human grader,
// a non-empty answer is provisionally awarded full points.
func evaluateEssay(raw domain.RawAnswer) bool {
	s, ok := raw.AsString()
	return ok && trim(s) != ""
}

// trim strips leading and trailing white space, including the U+FEFF byte
// order mark that editors and clipboards leave in front of pasted text.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}
