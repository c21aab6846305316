package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// maxExactInt is the largest integer a float64 holds without loss.
const maxExactInt = 1 << 53

type AnswerKind uint8

const (
	AnswerKindNone AnswerKind = iota
	AnswerKindInt
	AnswerKindBool
	AnswerKindString
)

// RawAnswer is the value a learner submitted for a question. Its expected kind
// depends on the question type; a none answer means unanswered.
type RawAnswer struct {
	kind AnswerKind
	i    int
	b    bool
	s    string
}

func IntAnswer(i int) RawAnswer       { return RawAnswer{kind: AnswerKindInt, i: i} }
func BoolAnswer(b bool) RawAnswer     { return RawAnswer{kind: AnswerKindBool, b: b} }
func StringAnswer(s string) RawAnswer { return RawAnswer{kind: AnswerKindString, s: s} }

func (a RawAnswer) Kind() AnswerKind { return a.kind }

func (a RawAnswer) IsNone() bool { return a.kind == AnswerKindNone }

func (a RawAnswer) AsInt() (int, bool) { return a.i, a.kind == AnswerKindInt }

func (a RawAnswer) AsBool() (bool, bool) { return a.b, a.kind == AnswerKindBool }

func (a RawAnswer) AsString() (string, bool) { return a.s, a.kind == AnswerKindString }

func (a RawAnswer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerKindInt:
		return []byte(strconv.Itoa(a.i)), nil
	case AnswerKindBool:
		return []byte(strconv.FormatBool(a.b)), nil
	case AnswerKindString:
		return json.Marshal(a.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON never fails. Anything that is not an integer, a boolean or a
// string decodes to an unanswered value, so a malformed submission costs the
// learner that question instead of rejecting the whole request.
func (a *RawAnswer) UnmarshalJSON(b []byte) error {
	*a = RawAnswer{}

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case 't', 'f':
		var v bool
		if json.Unmarshal(b, &v) == nil {
			*a = BoolAnswer(v)
		}
	case '"':
		var v string
		if json.Unmarshal(b, &v) == nil {
			*a = StringAnswer(v)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if v, err := strconv.Atoi(string(b)); err == nil {
			*a = IntAnswer(v)
			break
		}
		// Integral values written with a fraction or exponent, e.g. 1.0 or 1e0.
		var f float64
		if json.Unmarshal(b, &f) == nil && math.Abs(f) <= maxExactInt && f == math.Trunc(f) {
			*a = IntAnswer(int(f))
		}
	}

	return nil
}
