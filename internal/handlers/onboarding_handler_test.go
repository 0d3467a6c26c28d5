package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jaryd-hermann/dateful/internal/models"
	"github.com/jaryd-hermann/dateful/internal/onboarding"
	"github.com/jaryd-hermann/dateful/internal/services"
)

type stubCompleter struct {
	couple      *models.Couple
	err         error
	lastUserID  int64
	lastAnswers onboarding.AnswerSet
}

func (s *stubCompleter) Complete(_ context.Context, userID int64, answers onboarding.AnswerSet) (*models.Couple, error) {
	s.lastUserID = userID
	s.lastAnswers = answers
	return s.couple, s.err
}

func onboardingTestApp(handler *OnboardingHandler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "5")
		c.Locals("role", models.RolePrimary)
		return c.Next()
	})
	app.Get("/api/onboarding/questions", handler.Questions)
	app.Post("/api/onboarding/step", handler.Step)
	app.Post("/api/onboarding/back", handler.Back)
	app.Post("/api/onboarding/complete", handler.Complete)
	return app
}

func TestQuestionsReturnsOrderedList(t *testing.T) {
	handler := NewOnboardingHandler(&stubCompleter{})
	app := onboardingTestApp(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/onboarding/questions", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Questions []onboarding.Question `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Questions) != len(onboarding.Questions()) {
		t.Fatalf("Expected %d questions, got %d", len(onboarding.Questions()), len(body.Questions))
	}
	if body.Questions[0].ID != "primary_name" {
		t.Errorf("Expected primary_name first, got %q", body.Questions[0].ID)
	}
}

func TestStepRejectsEmptyRequiredAnswer(t *testing.T) {
	handler := NewOnboardingHandler(&stubCompleter{})
	app := onboardingTestApp(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/step",
		strings.NewReader(`{"answers":{},"index":0,"value":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "Please enter a response" {
		t.Errorf("Unexpected message %q", body["error"])
	}
}

func TestStepAdvancesToNextQuestion(t *testing.T) {
	handler := NewOnboardingHandler(&stubCompleter{})
	app := onboardingTestApp(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/step",
		strings.NewReader(`{"answers":{},"index":0,"value":"Jordan"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Answers       onboarding.AnswerSet `json:"answers"`
		Index         int                  `json:"index"`
		ReadyToSubmit bool                 `json:"ready_to_submit"`
		Question      onboarding.Question  `json:"question"`
		History       []map[string]string  `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Index != 1 {
		t.Errorf("Expected index 1, got %d", body.Index)
	}
	if body.Question.ID != "partner_name" {
		t.Errorf("Expected partner_name next, got %q", body.Question.ID)
	}
	if body.Answers.Get("primary_name").Value() != "Jordan" {
		t.Errorf("Expected stored answer, got %q", body.Answers.Get("primary_name").Value())
	}
	if len(body.History) != 1 || body.History[0]["answer"] != "Jordan" {
		t.Errorf("Expected formatted history for the answered question, got %v", body.History)
	}
	if body.ReadyToSubmit {
		t.Error("First step should not be ready to submit")
	}
}

func TestStepHistoryFormatsChipsAndPhones(t *testing.T) {
	handler := NewOnboardingHandler(&stubCompleter{})
	app := onboardingTestApp(handler)

	payload := `{
		"answers": {
			"primary_name": "Jordan",
			"partner_name": "Alex",
			"partner_phone": "+15551234567",
			"city": "Brooklyn, Williamsburg"
		},
		"index": 4,
		"value": "borough"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/step", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		History []map[string]string `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	byID := map[string]string{}
	for _, entry := range body.History {
		byID[entry["id"]] = entry["answer"]
	}
	if byID["partner_phone"] != "(555) 123-4567" {
		t.Errorf("Expected display phone, got %q", byID["partner_phone"])
	}
	if byID["city"] != "Brooklyn, Williamsburg" {
		t.Errorf("Expected scalar passthrough, got %q", byID["city"])
	}
}

func TestBackTruncatesLaterAnswers(t *testing.T) {
	handler := NewOnboardingHandler(&stubCompleter{})
	app := onboardingTestApp(handler)

	payload := `{
		"answers": {"primary_name":"Jordan","partner_name":"Alex","partner_phone":"5551234567"},
		"index": 3,
		"to": 1
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/back", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Answers  onboarding.AnswerSet `json:"answers"`
		Index    int                  `json:"index"`
		Question onboarding.Question  `json:"question"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Index != 1 || body.Question.ID != "partner_name" {
		t.Errorf("Expected to land on partner_name, got index %d question %q", body.Index, body.Question.ID)
	}
	if !body.Answers.Get("partner_phone").IsAbsent() {
		t.Error("Answers past the jump target should be erased")
	}
	if body.Answers.Get("partner_name").IsAbsent() {
		t.Error("The answer at the jump target is kept for prefill")
	}
}

func TestCompleteMapsValidationError(t *testing.T) {
	completer := &stubCompleter{err: &services.ValidationError{Message: "Missing answer for: city"}}
	handler := NewOnboardingHandler(completer)
	app := onboardingTestApp(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/complete",
		strings.NewReader(`{"answers":{"primary_name":"Jordan"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "Missing answer for: city" {
		t.Errorf("Unexpected message %q", body["error"])
	}
}

func TestCompleteMapsConflict(t *testing.T) {
	handler := NewOnboardingHandler(&stubCompleter{err: services.ErrAlreadyOnboarded})
	app := onboardingTestApp(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/complete",
		strings.NewReader(`{"answers":{"primary_name":"Jordan"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", resp.StatusCode)
	}
}

func TestCompleteReturnsCoupleID(t *testing.T) {
	completer := &stubCompleter{couple: &models.Couple{ID: 7, PrimaryUserID: 5}}
	handler := NewOnboardingHandler(completer)
	app := onboardingTestApp(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/onboarding/complete",
		strings.NewReader(`{"answers":{"primary_name":"Jordan"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if completer.lastUserID != 5 {
		t.Errorf("Expected user 5, got %d", completer.lastUserID)
	}

	var body struct {
		Success  bool  `json:"success"`
		CoupleID int64 `json:"couple_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.CoupleID != 7 {
		t.Errorf("Unexpected body %+v", body)
	}
}
