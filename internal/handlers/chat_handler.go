package handlers

import (
	"context"
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jaryd-hermann/dateful/internal/models"
	"github.com/jaryd-hermann/dateful/internal/services"
	chatws "github.com/jaryd-hermann/dateful/internal/websocket"
	"github.com/jaryd-hermann/dateful/pkg/utils"
)

type assistantResponder interface {
	Respond(ctx context.Context, userID int64, message string) (string, error)
	PartnerUserID(ctx context.Context, userID int64) (int64, bool)
}

type chatUserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type conversationLister interface {
	ListByCouple(ctx context.Context, coupleID int64, limit, offset int) ([]models.ConversationTurn, int, error)
}

type ChatHandler struct {
	assistant        assistantResponder
	userRepo         chatUserStore
	conversationRepo conversationLister
	hub              *chatws.Hub
	jwtSecret        string
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func NewChatHandler(
	assistant assistantResponder,
	userRepo chatUserStore,
	conversationRepo conversationLister,
	hub *chatws.Hub,
	jwtSecret string,
) *ChatHandler {
	return &ChatHandler{
		assistant:        assistant,
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		hub:              hub,
		jwtSecret:        jwtSecret,
	}
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message required"})
	}

	reply, err := h.assistant.Respond(c.Context(), userID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message required"})
		case errors.Is(err, services.ErrOnboardingIncomplete):
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "Complete onboarding first"})
		case errors.Is(err, services.ErrNotConfigured):
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Agent not configured"})
		default:
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to get response from agent"})
		}
	}

	return c.JSON(fiber.Map{"response": reply})
}

func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to lookup user"})
	}
	if user.CoupleID == nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Complete onboarding first"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultPageLimit)
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	turns, total, err := h.conversationRepo.ListByCouple(
		c.Context(),
		*user.CoupleID,
		limit,
		(page-1)*limit,
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to load messages"})
	}

	return c.JSON(fiber.Map{
		"messages":   turns,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).
			JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.assistant)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
