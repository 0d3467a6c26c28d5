package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jaryd-hermann/dateful/internal/models"
	"github.com/jaryd-hermann/dateful/internal/onboarding"
	"github.com/jaryd-hermann/dateful/internal/services"
)

type onboardingCompleter interface {
	Complete(ctx context.Context, userID int64, answers onboarding.AnswerSet) (*models.Couple, error)
}

// OnboardingHandler drives the question flow statelessly: the client holds
// the answer set and current index, and each step call replays them through
// the flow engine.
type OnboardingHandler struct {
	service onboardingCompleter
}

func NewOnboardingHandler(service onboardingCompleter) *OnboardingHandler {
	return &OnboardingHandler{service: service}
}

type stepRequest struct {
	Answers onboarding.AnswerSet `json:"answers"`
	Index   int                  `json:"index"`
	Value   onboarding.Answer    `json:"value"`
	Inline  onboarding.Answer    `json:"inline"`
}

type jumpRequest struct {
	Answers onboarding.AnswerSet `json:"answers"`
	Index   int                  `json:"index"`
	To      int                  `json:"to"`
}

type editNamesRequest struct {
	Answers     onboarding.AnswerSet `json:"answers"`
	Index       int                  `json:"index"`
	PrimaryName string               `json:"primary_name"`
	PartnerName string               `json:"partner_name"`
}

type completeRequest struct {
	Answers onboarding.AnswerSet `json:"answers"`
}

func (h *OnboardingHandler) Questions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"questions": onboarding.Questions()})
}

func (h *OnboardingHandler) Step(c *fiber.Ctx) error {
	var req stepRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	flow := onboarding.ResumeFlow(req.Answers, req.Index)
	if msg := flow.Submit(req.Value, req.Inline); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	return c.JSON(flowState(flow))
}

func (h *OnboardingHandler) Back(c *fiber.Ctx) error {
	var req jumpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	flow := onboarding.ResumeFlow(req.Answers, req.Index)
	flow.JumpTo(req.To)
	return c.JSON(flowState(flow))
}

func (h *OnboardingHandler) EditNames(c *fiber.Ctx) error {
	var req editNamesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	flow := onboarding.ResumeFlow(req.Answers, req.Index)
	if msg := flow.EditNames(req.PrimaryName, req.PartnerName); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	return c.JSON(flowState(flow))
}

func (h *OnboardingHandler) Complete(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req completeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Answers == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Answers required"})
	}

	couple, err := h.service.Complete(c.Context(), userID, req.Answers)
	if err != nil {
		var validationErr *services.ValidationError
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &validationErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Message})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, services.ErrAlreadyOnboarded):
			return c.Status(fiber.StatusConflict).
				JSON(fiber.Map{"error": "Onboarding already completed"})
		case errors.As(err, &pgErr) && pgErr.Code == "23502":
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Missing required field: " + pgErr.ColumnName})
		case errors.As(err, &pgErr) && pgErr.Code == "23503":
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Referenced user or record not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to create couple profile"})
		}
	}

	return c.JSON(fiber.Map{"success": true, "couple_id": couple.ID})
}

func flowState(flow *onboarding.Flow) fiber.Map {
	step, total := flow.Progress()
	state := fiber.Map{
		"answers":         flow.Answers(),
		"index":           flow.Index(),
		"step":            step,
		"total":           total,
		"history":         answerHistory(flow),
		"ready_to_submit": flow.Status() == onboarding.StatusSubmitting,
	}
	if flow.Status() != onboarding.StatusSubmitting {
		state["question"] = flow.Current()
	}
	return state
}

// answerHistory renders the questions already passed as display strings, so
// the client can show the transcript without re-implementing option lookup.
func answerHistory(flow *onboarding.Flow) []fiber.Map {
	answers := flow.Answers()
	submitting := flow.Status() == onboarding.StatusSubmitting
	history := make([]fiber.Map, 0, flow.Index())
	for i, q := range flow.Effective() {
		if i >= flow.Index() && !submitting {
			break
		}
		answer := answers.Get(q.ID)
		display := onboarding.FormatAnswer(q, answer)
		if q.Kind == onboarding.KindPhone && !answer.IsAbsent() {
			display = onboarding.FormatPhoneDisplay(answer.Value())
		}
		history = append(history, fiber.Map{
			"id":       q.ID,
			"question": q.Prompt,
			"answer":   display,
		})
	}
	return history
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, errors.New("missing user id")
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}
