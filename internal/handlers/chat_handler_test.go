package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jaryd-hermann/dateful/internal/models"
	"github.com/jaryd-hermann/dateful/internal/services"
	chatws "github.com/jaryd-hermann/dateful/internal/websocket"
)

type stubAssistant struct {
	reply       string
	err         error
	lastUserID  int64
	lastMessage string
	calls       int
}

func (s *stubAssistant) Respond(_ context.Context, userID int64, message string) (string, error) {
	s.calls++
	s.lastUserID = userID
	s.lastMessage = message
	return s.reply, s.err
}

func (s *stubAssistant) PartnerUserID(_ context.Context, _ int64) (int64, bool) {
	return 0, false
}

type stubChatUserStore struct {
	users map[int64]*models.User
}

func (s *stubChatUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

type stubConversationLister struct {
	turns      []models.ConversationTurn
	total      int
	err        error
	lastCouple int64
	lastLimit  int
	lastOffset int
}

func (s *stubConversationLister) ListByCouple(_ context.Context, coupleID int64, limit, offset int) ([]models.ConversationTurn, int, error) {
	s.lastCouple = coupleID
	s.lastLimit = limit
	s.lastOffset = offset
	return s.turns, s.total, s.err
}

func chatTestApp(handler *ChatHandler, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", models.RolePrimary)
		return c.Next()
	})
	app.Post("/api/chat/message", handler.SendMessage)
	app.Get("/api/chat/history", handler.GetHistory)
	return app
}

func TestSendMessageReturnsAssistantReply(t *testing.T) {
	assistant := &stubAssistant{reply: "How about a picnic in the park?"}
	handler := NewChatHandler(assistant, &stubChatUserStore{}, &stubConversationLister{}, chatws.NewHub(), "secret")
	app := chatTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/message",
		strings.NewReader(`{"message":"date ideas?"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["response"] != "How about a picnic in the park?" {
		t.Errorf("Unexpected response %q", body["response"])
	}
	if assistant.lastUserID != 42 || assistant.lastMessage != "date ideas?" {
		t.Errorf("Assistant called with %d %q", assistant.lastUserID, assistant.lastMessage)
	}
}

func TestSendMessageRequiresMessage(t *testing.T) {
	assistant := &stubAssistant{reply: "hi"}
	handler := NewChatHandler(assistant, &stubChatUserStore{}, &stubConversationLister{}, chatws.NewHub(), "secret")
	app := chatTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/message",
		strings.NewReader(`{"message":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
	if assistant.calls != 0 {
		t.Errorf("Assistant should not be called, got %d calls", assistant.calls)
	}
}

func TestSendMessageMapsOnboardingIncomplete(t *testing.T) {
	assistant := &stubAssistant{err: services.ErrOnboardingIncomplete}
	handler := NewChatHandler(assistant, &stubChatUserStore{}, &stubConversationLister{}, chatws.NewHub(), "secret")
	app := chatTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/chat/message",
		strings.NewReader(`{"message":"hello"}`))
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
	if body["error"] != "Complete onboarding first" {
		t.Errorf("Unexpected error message %q", body["error"])
	}
}

func TestGetHistoryPaginates(t *testing.T) {
	coupleID := int64(7)
	users := &stubChatUserStore{
		users: map[int64]*models.User{42: {ID: 42, CoupleID: &coupleID}},
	}
	conversations := &stubConversationLister{
		turns: []models.ConversationTurn{
			{ID: 1, CoupleID: 7, Role: models.TurnRoleUser, Content: "hi"},
			{ID: 2, CoupleID: 7, Role: models.TurnRoleAssistant, Content: "hello!"},
		},
		total: 45,
	}
	handler := NewChatHandler(&stubAssistant{}, users, conversations, chatws.NewHub(), "secret")
	app := chatTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?page=2&limit=10", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	if conversations.lastCouple != 7 || conversations.lastLimit != 10 || conversations.lastOffset != 10 {
		t.Errorf("Unexpected query: couple %d limit %d offset %d",
			conversations.lastCouple, conversations.lastLimit, conversations.lastOffset)
	}

	var body struct {
		Messages   []models.ConversationTurn `json:"messages"`
		Pagination models.PaginationMeta     `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(body.Messages))
	}
	if body.Pagination.Total != 45 || body.Pagination.TotalPages != 5 {
		t.Errorf("Unexpected pagination %+v", body.Pagination)
	}
}

func TestGetHistoryRequiresOnboarding(t *testing.T) {
	users := &stubChatUserStore{
		users: map[int64]*models.User{42: {ID: 42}},
	}
	handler := NewChatHandler(&stubAssistant{}, users, &stubConversationLister{}, chatws.NewHub(), "secret")
	app := chatTestApp(handler, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", resp.StatusCode)
	}
}
