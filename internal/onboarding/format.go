package onboarding

import (
	"fmt"
	"regexp"
	"strings"
)

// answerPlaceholder renders for absent or unrenderable answers.
const answerPlaceholder = "—"

var nonDigits = regexp.MustCompile(`\D`)

// FormatAnswer renders a stored answer as a human-readable label using the
// question's option table. It never fails: anything unrenderable becomes
// the placeholder.
func FormatAnswer(q Question, a Answer) string {
	switch a.Kind() {
	case AnswerAbsent:
		return answerPlaceholder
	case AnswerMulti:
		return formatList(q, a.Values())
	default:
		s := a.Value()
		if s == "" || s == objectMarker {
			return answerPlaceholder
		}
		return s
	}
}

// formatList maps each stored value to its display option: exact match
// against the value table first, then case-insensitive match against the
// labels, then the raw value itself. Empty and marker entries are dropped.
func formatList(q Question, values []string) string {
	labels := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || v == objectMarker {
			continue
		}
		labels = append(labels, lookupOption(q, v))
	}
	if len(labels) > 0 {
		return strings.Join(labels, ", ")
	}

	// Option lookup produced nothing; fall back to the raw values.
	raw := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" && v != objectMarker {
			raw = append(raw, v)
		}
	}
	if len(raw) > 0 {
		return strings.Join(raw, ", ")
	}
	return answerPlaceholder
}

func lookupOption(q Question, value string) string {
	for i, v := range q.Values {
		if v == value && i < len(q.Options) {
			return q.Options[i]
		}
	}
	for i, opt := range q.Options {
		if strings.EqualFold(opt, value) && i < len(q.Options) {
			return q.Options[i]
		}
	}
	return value
}

// NormalizePhone extracts digits from free-form input and returns the
// E.164 form. Exactly 10 digits are required; a leading country code is
// not accepted.
func NormalizePhone(input string) (string, error) {
	digits := nonDigits.ReplaceAllString(input, "")
	if len(digits) != 10 {
		return "", fmt.Errorf("phone must have exactly 10 digits, got %d", len(digits))
	}
	return "+1" + digits, nil
}

// FormatPhoneDisplay renders an E.164 number as "(555) 123-4567". Inputs
// that do not reduce to 10 digits come back unchanged.
func FormatPhoneDisplay(e164 string) string {
	digits := nonDigits.ReplaceAllString(e164, "")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if len(digits) != 10 {
		return e164
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}
