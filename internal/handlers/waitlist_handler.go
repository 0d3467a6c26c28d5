package handlers

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jaryd-hermann/dateful/internal/repository"
)

type waitlistStore interface {
	Insert(ctx context.Context, email string) error
	Update(ctx context.Context, email string, input repository.WaitlistUpdateInput) error
}

type WaitlistHandler struct {
	repo waitlistStore
}

func NewWaitlistHandler(repo waitlistStore) *WaitlistHandler {
	return &WaitlistHandler{repo: repo}
}

type waitlistJoinRequest struct {
	Email string `json:"email"`
}

type waitlistUpdateRequest struct {
	Email          string  `json:"email"`
	InUS           *bool   `json:"in_us"`
	DateFrequency  *string `json:"date_frequency"`
	WouldPayAmount *string `json:"would_pay_amount"`
}

func (h *WaitlistHandler) Join(c *fiber.Ctx) error {
	var req waitlistJoinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Valid email required"})
	}
	email := strings.ToLower(parsedEmail.Address)

	if err := h.repo.Insert(c.Context(), email); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return c.Status(fiber.StatusConflict).
					JSON(fiber.Map{"error": "You're already on the waitlist!"})
			case "42P01":
				return c.Status(fiber.StatusServiceUnavailable).
					JSON(fiber.Map{"error": "Server setup incomplete. Please try again later."})
			}
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to join waitlist"})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *WaitlistHandler) Update(c *fiber.Ctx) error {
	var req waitlistUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Valid email required"})
	}
	email := strings.ToLower(parsedEmail.Address)

	input := repository.WaitlistUpdateInput{
		InUS:           req.InUS,
		DateFrequency:  req.DateFrequency,
		WouldPayAmount: req.WouldPayAmount,
	}
	if err := h.repo.Update(c.Context(), email, input); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).
				JSON(fiber.Map{"error": "Waitlist entry not found."})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to update waitlist entry"})
	}

	return c.JSON(fiber.Map{"success": true})
}
