package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jaryd-hermann/dateful/internal/models"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrOnboardingIncomplete = errors.New("onboarding incomplete")
	ErrNotConfigured        = errors.New("assistant not configured")
)

const (
	historyLimit = 20
	webMaxTokens = 1024
	smsMaxTokens = 256

	webFallbackReply = "Sorry, I could not respond."
	smsFallbackReply = "I'm not sure how to respond — try asking about date ideas!"
	smsSignupReply   = "Hi! I'm Dateful. It looks like you're not set up yet — sign up at dateful.chat to get started!"
)

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

type coupleReader interface {
	GetByID(ctx context.Context, id int64) (*models.Couple, error)
}

type turnStore interface {
	Create(ctx context.Context, turn *models.ConversationTurn) error
	ListRecent(ctx context.Context, coupleID int64, limit int) ([]models.ConversationTurn, error)
}

// AssistantService runs both chat surfaces: the authenticated web chat and
// inbound SMS. Each reply is grounded in the couple's stored profile plus
// the most recent conversation turns.
type AssistantService struct {
	users      userReader
	couples    coupleReader
	turns      turnStore
	completion CompletionService
}

func NewAssistantService(
	users userReader,
	couples coupleReader,
	turns turnStore,
	completion CompletionService,
) *AssistantService {
	return &AssistantService{
		users:      users,
		couples:    couples,
		turns:      turns,
		completion: completion,
	}
}

// Respond answers a web chat message for the given user. Both the user turn
// and the assistant turn are persisted; nothing is persisted when the
// completion provider fails.
func (s *AssistantService) Respond(ctx context.Context, userID int64, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrInvalidInput
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user.CoupleID == nil {
		return "", ErrOnboardingIncomplete
	}
	if s.completion == nil {
		return "", ErrNotConfigured
	}

	couple, err := s.couples.GetByID(ctx, *user.CoupleID)
	if err != nil {
		return "", fmt.Errorf("load couple: %w", err)
	}

	history, err := s.loadHistory(ctx, couple.ID)
	if err != nil {
		return "", err
	}

	reply, err := s.completion.Complete(
		ctx,
		webSystemPrompt(user.Name, couple),
		append(history, ChatTurn{Role: models.TurnRoleUser, Content: message}),
		webMaxTokens,
	)
	if err != nil {
		return "", fmt.Errorf("assistant completion: %w", err)
	}
	if reply == "" {
		reply = webFallbackReply
	}

	if err := s.persistExchange(ctx, couple.ID, &user.ID, message, reply, models.ChannelWeb, nil); err != nil {
		return "", err
	}
	return reply, nil
}

// RespondToSMS answers an inbound text. Unknown senders and senders who have
// not finished onboarding get a static signup nudge without touching the
// completion provider or the conversation log.
func (s *AssistantService) RespondToSMS(ctx context.Context, from, body, messageSID string) (string, error) {
	user, err := s.users.GetByPhone(ctx, from)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return smsSignupReply, nil
		}
		return "", fmt.Errorf("load user by phone: %w", err)
	}
	if user.CoupleID == nil || s.completion == nil {
		return smsSignupReply, nil
	}

	couple, err := s.couples.GetByID(ctx, *user.CoupleID)
	if err != nil {
		return "", fmt.Errorf("load couple: %w", err)
	}

	history, err := s.loadHistory(ctx, couple.ID)
	if err != nil {
		return "", err
	}

	reply, err := s.completion.Complete(
		ctx,
		smsSystemPrompt(user.Name, couple),
		append(history, ChatTurn{Role: models.TurnRoleUser, Content: body}),
		smsMaxTokens,
	)
	if err != nil {
		return "", fmt.Errorf("assistant completion: %w", err)
	}
	if reply == "" {
		reply = smsFallbackReply
	}

	var sid *string
	if messageSID != "" {
		sid = &messageSID
	}
	if err := s.persistExchange(ctx, couple.ID, &user.ID, body, reply, models.ChannelSMS, sid); err != nil {
		return "", err
	}
	return reply, nil
}

// PartnerUserID returns the other member of the caller's couple, when one
// is linked.
func (s *AssistantService) PartnerUserID(ctx context.Context, userID int64) (int64, bool) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil || user.CoupleID == nil {
		return 0, false
	}

	couple, err := s.couples.GetByID(ctx, *user.CoupleID)
	if err != nil {
		return 0, false
	}
	if couple.PrimaryUserID != userID {
		return couple.PrimaryUserID, true
	}
	if couple.PartnerUserID != nil && *couple.PartnerUserID != userID {
		return *couple.PartnerUserID, true
	}
	return 0, false
}

// loadHistory returns the couple's most recent turns in chronological order.
func (s *AssistantService) loadHistory(ctx context.Context, coupleID int64) ([]ChatTurn, error) {
	recent, err := s.turns.ListRecent(ctx, coupleID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	history := make([]ChatTurn, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		role := models.TurnRoleUser
		if recent[i].Role == models.TurnRoleAssistant {
			role = models.TurnRoleAssistant
		}
		history = append(history, ChatTurn{Role: role, Content: recent[i].Content})
	}
	return history, nil
}

func (s *AssistantService) persistExchange(
	ctx context.Context,
	coupleID int64,
	userID *int64,
	message string,
	reply string,
	channel string,
	messageSID *string,
) error {
	userTurn := &models.ConversationTurn{
		CoupleID:         coupleID,
		UserID:           userID,
		Role:             models.TurnRoleUser,
		Content:          message,
		Channel:          channel,
		ContextType:      models.ContextGeneral,
		TwilioMessageSID: messageSID,
	}
	if err := s.turns.Create(ctx, userTurn); err != nil {
		return fmt.Errorf("persist user turn: %w", err)
	}

	assistantTurn := &models.ConversationTurn{
		CoupleID:    coupleID,
		Role:        models.TurnRoleAssistant,
		Content:     reply,
		Channel:     channel,
		ContextType: models.ContextGeneral,
	}
	if err := s.turns.Create(ctx, assistantTurn); err != nil {
		return fmt.Errorf("persist assistant turn: %w", err)
	}
	return nil
}

func webSystemPrompt(name string, couple *models.Couple) string {
	var weeknights []string
	if couple.PreferredWeeknights != nil {
		weeknights = *couple.PreferredWeeknights
	}

	return fmt.Sprintf(`You are Dateful, a warm and knowledgeable date night planning assistant for %s.

## Couple Profile
- City: %s
- Neighborhood: %s
- Budget: %s
- Date frequency: %s
- Preferred days/times: %s
- Preferred weeknights (if weeknight): %s
- Interests: %s
- Food dislikes: %s
- Dietary restrictions: %s
- Anything else: %s

## Guidelines
- Be warm, conversational, and concise. Write like a friend texting.
- You're helping plan date nights. Stay on topic but be helpful.
- Keep responses brief (2-4 sentences typically).
- If they ask about features you don't have yet, acknowledge and suggest what you can help with now.
- Don't make up specific venue names or details—you can say you'll look into it.`,
		orDefault(name, "this couple"),
		orDefault(couple.City, "Unknown"),
		orDefault(couple.Neighborhood, "Unknown"),
		orDefault(couple.Budget, "$$"),
		orDefault(couple.Frequency, "biweekly"),
		joinOr(couple.PreferredDays, "not specified"),
		joinOr(weeknights, "not specified"),
		joinOr(couple.Interests, "general date activities"),
		derefOr(couple.FoodDislikes, "none specified"),
		derefOr(couple.DietaryRestrictions, "none"),
		derefOr(couple.AnythingElse, "nothing specified"),
	)
}

func smsSystemPrompt(name string, couple *models.Couple) string {
	return fmt.Sprintf(`You are Dateful, a warm date night planning assistant. You're texting with %s.

City: %s, Budget: %s, Interests: %s

Be warm, brief (1-3 sentences), and conversational. Write like a friend texting.`,
		orDefault(name, "a user"),
		orDefault(couple.City, "Unknown"),
		orDefault(couple.Budget, "$$"),
		joinOr(couple.Interests, "general"),
	)
}

func FormatChatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func derefOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

func joinOr(values []string, fallback string) string {
	joined := strings.Join(values, ", ")
	if joined == "" {
		return fallback
	}
	return joined
}
