package onboarding

import (
	"encoding/json"
	"testing"
)

func interestsQuestion(t *testing.T) Question {
	t.Helper()
	q, ok := QuestionByID("interests")
	if !ok {
		t.Fatal("interests question missing")
	}
	return q
}

func TestFormatMultiChoiceMapsValuesToLabels(t *testing.T) {
	q := interestsQuestion(t)
	got := FormatAnswer(q, MultiChoice([]string{"restaurants", "outdoors"}))
	if got != "Trying new restaurants, Outdoors" {
		t.Fatalf("FormatAnswer = %q", got)
	}
}

func TestFormatFallsBackToRawValues(t *testing.T) {
	q := interestsQuestion(t)
	got := FormatAnswer(q, MultiChoice([]string{"stargazing", "karaoke"}))
	if got != "stargazing, karaoke" {
		t.Fatalf("FormatAnswer = %q", got)
	}

	// Mixed known and unknown values keep their positions.
	got = FormatAnswer(q, MultiChoice([]string{"restaurants", "karaoke"}))
	if got != "Trying new restaurants, karaoke" {
		t.Fatalf("FormatAnswer = %q", got)
	}
}

func TestFormatMatchesLabelsCaseInsensitively(t *testing.T) {
	q := interestsQuestion(t)
	got := FormatAnswer(q, MultiChoice([]string{"OUTDOORS", "comedy"}))
	if got != "Outdoors, Comedy" {
		t.Fatalf("FormatAnswer = %q", got)
	}
}

func TestFormatPlaceholders(t *testing.T) {
	q := interestsQuestion(t)
	if got := FormatAnswer(q, Absent()); got != answerPlaceholder {
		t.Fatalf("absent = %q", got)
	}
	if got := FormatAnswer(q, Text(objectMarker)); got != answerPlaceholder {
		t.Fatalf("marker = %q", got)
	}
	if got := FormatAnswer(q, MultiChoice([]string{"", objectMarker})); got != answerPlaceholder {
		t.Fatalf("invalid list = %q", got)
	}
}

func TestFormatScalarPassthrough(t *testing.T) {
	q, _ := QuestionByID("city")
	if got := FormatAnswer(q, Text("Brooklyn, Williamsburg")); got != "Brooklyn, Williamsburg" {
		t.Fatalf("scalar = %q", got)
	}
}

func TestAnswerDecodesLegacyJSONArrayString(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`"[\"restaurants\",\"outdoors\"]"`), &a); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if a.Kind() != AnswerMulti {
		t.Fatalf("kind = %v", a.Kind())
	}
	got := FormatAnswer(interestsQuestion(t), a)
	if got != "Trying new restaurants, Outdoors" {
		t.Fatalf("FormatAnswer = %q", got)
	}
}

func TestAnswerKeepsUnparseableBracketString(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`"[not json"`), &a); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if a.Kind() != AnswerText || a.Value() != "[not json" {
		t.Fatalf("answer = %+v", a)
	}
}

func TestAnswerDecodesOptionObjects(t *testing.T) {
	var a Answer
	payload := `[{"label":"Outdoors"},{"value":"restaurants"},{"broken":true},null]`
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got := FormatAnswer(interestsQuestion(t), a)
	if got != "Outdoors, Trying new restaurants" {
		t.Fatalf("FormatAnswer = %q", got)
	}
}

func TestAnswerDecodesScalarAndNull(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`null`), &a); err != nil {
		t.Fatalf("Unmarshal null: %v", err)
	}
	if !a.IsAbsent() {
		t.Fatal("null should decode as absent")
	}
	if err := json.Unmarshal([]byte(`"weekly"`), &a); err != nil {
		t.Fatalf("Unmarshal string: %v", err)
	}
	if a.Value() != "weekly" {
		t.Fatalf("value = %q", a.Value())
	}
}

func TestAnswerJSONRoundTrip(t *testing.T) {
	set := AnswerSet{
		"interests": MultiChoice([]string{"restaurants"}),
		"city":      Text("Queens"),
		"skipped":   Absent(),
	}
	encoded, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded AnswerSet
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Get("interests").Contains("restaurants") {
		t.Fatal("interests lost in round trip")
	}
	if decoded.Get("city").Value() != "Queens" {
		t.Fatal("city lost in round trip")
	}
	if !decoded.Get("skipped").IsAbsent() {
		t.Fatal("absent answer should stay absent")
	}
}

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("(555) 123-4567")
	if err != nil || got != "+15551234567" {
		t.Fatalf("NormalizePhone = %q, %v", got, err)
	}
	for _, input := range []string{"", "555-1234", "+1 (555) 123-4567", "abc"} {
		if _, err := NormalizePhone(input); err == nil {
			t.Fatalf("expected rejection for %q", input)
		}
	}
}

func TestFormatPhoneDisplay(t *testing.T) {
	if got := FormatPhoneDisplay("+15551234567"); got != "(555) 123-4567" {
		t.Fatalf("FormatPhoneDisplay = %q", got)
	}
	if got := FormatPhoneDisplay("12345"); got != "12345" {
		t.Fatalf("short input should pass through, got %q", got)
	}
}
