package onboarding

import (
	"encoding/json"
	"fmt"
	"strings"
)

// objectMarker is what a JS client produces when it stringifies an object
// by accident. Legacy rows contain it; it always renders as the placeholder.
const objectMarker = "[object Object]"

type AnswerKind int

const (
	AnswerAbsent AnswerKind = iota
	AnswerText
	AnswerMulti
)

// Answer is a single onboarding answer normalized at the storage boundary:
// absent, scalar text (free text or single choice), or a multi-choice list.
// Legacy shapes — JSON-array strings and {label, value} option objects —
// are folded into these variants on decode so nothing downstream has to
// type-sniff.
type Answer struct {
	kind AnswerKind
	text string
	list []string
}

func Absent() Answer {
	return Answer{}
}

// Text builds a scalar answer. An empty (post-trim) value is recorded as
// absent, matching how optional free-text questions store "no answer".
func Text(s string) Answer {
	if strings.TrimSpace(s) == "" {
		return Answer{}
	}
	return Answer{kind: AnswerText, text: s}
}

// Choice builds a single-choice answer. Stored identically to Text; the
// distinction lives in the question definition.
func Choice(v string) Answer {
	return Text(v)
}

// MultiChoice builds a list answer. An empty list is still a list answer,
// not absent: the inline follow-up records an empty selection as answered.
func MultiChoice(vs []string) Answer {
	if vs == nil {
		vs = []string{}
	}
	return Answer{kind: AnswerMulti, list: vs}
}

func (a Answer) Kind() AnswerKind { return a.kind }

func (a Answer) IsAbsent() bool { return a.kind == AnswerAbsent }

// Value returns the scalar form. Multi-choice answers return their first
// element so callers that expect a scalar degrade predictably.
func (a Answer) Value() string {
	switch a.kind {
	case AnswerText:
		return a.text
	case AnswerMulti:
		if len(a.list) > 0 {
			return a.list[0]
		}
	}
	return ""
}

// Values returns the list form; scalar answers become a one-element list.
func (a Answer) Values() []string {
	switch a.kind {
	case AnswerText:
		return []string{a.text}
	case AnswerMulti:
		return a.list
	}
	return nil
}

// Contains reports whether the answer carries v: list membership for
// multi-choice, equality for scalars. Used by visibility conditions.
func (a Answer) Contains(v string) bool {
	switch a.kind {
	case AnswerText:
		return a.text == v
	case AnswerMulti:
		for _, x := range a.list {
			if x == v {
				return true
			}
		}
	}
	return false
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerText:
		return json.Marshal(a.text)
	case AnswerMulti:
		return json.Marshal(a.list)
	}
	return []byte("null"), nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = normalizeRaw(raw)
	return nil
}

// normalizeRaw folds the shapes legacy clients stored — scalars, lists,
// JSON-encoded list strings, {label, value} objects — into an Answer.
func normalizeRaw(raw any) Answer {
	switch v := raw.(type) {
	case nil:
		return Absent()
	case string:
		if strings.HasPrefix(v, "[") {
			var items []any
			if err := json.Unmarshal([]byte(v), &items); err == nil {
				return listAnswer(items)
			}
		}
		return Text(v)
	case []any:
		return listAnswer(v)
	case map[string]any:
		return Text(elementString(v))
	default:
		return Text(fmt.Sprint(v))
	}
}

func listAnswer(items []any) Answer {
	values := make([]string, 0, len(items))
	for _, item := range items {
		s := elementString(item)
		if s == "" {
			continue
		}
		values = append(values, s)
	}
	return MultiChoice(values)
}

// elementString stringifies one list element, preferring a label field and
// then a value field when the element is an option object.
func elementString(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if label, ok := v["label"].(string); ok && label != "" {
			return label
		}
		if value, ok := v["value"].(string); ok && value != "" {
			return value
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// AnswerSet maps question ID to answer. Absent answers may be stored
// explicitly or simply missing; Get treats both the same.
type AnswerSet map[string]Answer

func (s AnswerSet) Get(id string) Answer {
	if s == nil {
		return Absent()
	}
	return s[id]
}

// Clone returns a shallow copy so flow mutations never alias caller state.
func (s AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
