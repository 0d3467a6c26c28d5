package onboarding

import "strings"

// Status is the flow's lifecycle state. Validation failures do not change
// status; they surface as inline messages and leave the index alone.
type Status int

const (
	// StatusIdle: positioned on a question, waiting for an answer.
	StatusIdle Status = iota
	// StatusSubmitting: the last question was answered and the full set is
	// being persisted. FailSubmit returns to Idle with answers intact.
	StatusSubmitting
	// StatusDone: persisted. Terminal; further submissions are ignored.
	StatusDone
)

const (
	msgSelectOption   = "Please select at least one option"
	msgEnterResponse  = "Please enter a response"
	msgInvalidPhone   = "Please enter a valid 10-digit phone number"
	msgNamesRequired  = "Both names are required"
	msgAlreadyDone    = "Onboarding already submitted"
	msgMissingAnswers = "Missing answer for "
)

// Flow drives the onboarding questionnaire: it tracks a clamped position in
// the effective question sequence, validates and stores answers per input
// kind, and handles backward edits. The whole struct is cheap enough to
// rebuild per request, so a stateless handler can resume one from the
// client's answer map and index.
type Flow struct {
	answers AnswerSet
	index   int
	status  Status
}

func NewFlow() *Flow {
	return &Flow{answers: AnswerSet{}}
}

// ResumeFlow rebuilds a flow from client-held state. The index is clamped
// against the effective sequence on every read, so stale positions (from an
// answer edit that shrank the sequence) self-correct.
func ResumeFlow(answers AnswerSet, index int) *Flow {
	if answers == nil {
		answers = AnswerSet{}
	}
	return &Flow{answers: answers.Clone(), index: index}
}

func (f *Flow) Status() Status     { return f.status }
func (f *Flow) Answers() AnswerSet { return f.answers }

// Effective returns the currently visible question sequence.
func (f *Flow) Effective() []Question {
	return EffectiveQuestions(f.answers)
}

// Index returns the current position clamped to [0, len(effective)-1].
func (f *Flow) Index() int {
	return clampIndex(f.index, len(f.Effective()))
}

func clampIndex(i, length int) int {
	if length == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= length {
		return length - 1
	}
	return i
}

// Current returns the question at the clamped position.
func (f *Flow) Current() Question {
	effective := f.Effective()
	return effective[clampIndex(f.index, len(effective))]
}

func (f *Flow) IsLast() bool {
	return f.Index() == len(f.Effective())-1
}

// Progress reports the 1-based step and the effective sequence length.
func (f *Flow) Progress() (int, int) {
	effective := f.Effective()
	return clampIndex(f.index, len(effective)) + 1, len(effective)
}

// Submit validates value against the current question and records it.
// inline carries the inline follow-up's answer when the current screen
// showed one; pass Absent() otherwise. The returned string is an inline
// user message; empty means the answer was accepted and the flow advanced
// (or entered StatusSubmitting on the last question).
func (f *Flow) Submit(value Answer, inline Answer) string {
	if f.status != StatusIdle {
		return msgAlreadyDone
	}

	q := f.Current()
	normalized, msg := validateAnswer(q, value)
	if msg != "" {
		return msg
	}

	index := f.Index()
	f.answers[q.ID] = normalized

	// An inline follow-up answered on the same screen is captured under
	// its own question ID, then its standalone copy is skipped below.
	capturedInline := false
	if q.InlineFollowUp != nil && !inline.IsAbsent() && visible(*q.InlineFollowUp, f.answers) {
		f.answers[q.InlineFollowUp.ID] = inline
		capturedInline = true
	}

	effective := f.Effective()
	if index >= len(effective)-1 {
		f.index = len(effective) - 1
		f.status = StatusSubmitting
		return ""
	}

	next := index + 1
	if capturedInline && next < len(effective) && effective[next].ID == q.InlineFollowUp.ID {
		next++
	}
	f.index = clampIndex(next, len(effective))
	return ""
}

// validateAnswer normalizes a submitted value per the question's input
// kind, returning an inline message on rejection.
func validateAnswer(q Question, value Answer) (Answer, string) {
	switch q.Kind {
	case KindChips:
		if q.Multi {
			values := compactValues(value.Values())
			if len(values) == 0 {
				return Absent(), msgSelectOption
			}
			return MultiChoice(values), ""
		}
		v := value.Value()
		if v == "" || !contains(q.Values, v) {
			return Absent(), msgSelectOption
		}
		return Choice(v), ""
	case KindPhone:
		trimmed := strings.TrimSpace(value.Value())
		if trimmed == "" {
			if q.Optional {
				return Absent(), ""
			}
			return Absent(), msgEnterResponse
		}
		e164, err := NormalizePhone(trimmed)
		if err != nil {
			return Absent(), msgInvalidPhone
		}
		return Text(e164), ""
	default: // KindText, KindTextarea
		trimmed := strings.TrimSpace(value.Value())
		if trimmed == "" && !q.Optional {
			return Absent(), msgEnterResponse
		}
		return Text(trimmed), ""
	}
}

func compactValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// JumpTo relocates to an earlier effective position for editing. Answers
// recorded strictly after that position are discarded and must be
// re-answered; the answer at the position itself is kept for prefill.
func (f *Flow) JumpTo(index int) {
	if f.status == StatusDone {
		return
	}
	effective := f.Effective()
	if index < 0 || index >= len(effective) {
		return
	}
	for i := index + 1; i < len(effective); i++ {
		delete(f.answers, effective[i].ID)
	}
	f.index = index
	f.status = StatusIdle
}

// EditNames updates the paired first-two answers in place without the jump
// mechanism, leaving downstream answers untouched.
func (f *Flow) EditNames(primary, partner string) string {
	primary = strings.TrimSpace(primary)
	partner = strings.TrimSpace(partner)
	if primary == "" || partner == "" {
		return msgNamesRequired
	}
	f.answers["primary_name"] = Text(primary)
	f.answers["partner_name"] = Text(partner)
	return ""
}

// Complete marks the flow terminal after a successful persist.
func (f *Flow) Complete() {
	f.status = StatusDone
}

// FailSubmit returns a failed submission to the last question. Answers are
// untouched, so the user can retry.
func (f *Flow) FailSubmit() {
	if f.status == StatusSubmitting {
		f.status = StatusIdle
	}
}

// ValidateAll checks that every non-optional question in the effective
// sequence has an answer. Used before the completion insert; the returned
// message names the first missing question.
func ValidateAll(answers AnswerSet) string {
	for _, q := range EffectiveQuestions(answers) {
		if q.Optional {
			continue
		}
		if answers.Get(q.ID).IsAbsent() {
			return msgMissingAnswers + q.ID
		}
	}
	return ""
}
