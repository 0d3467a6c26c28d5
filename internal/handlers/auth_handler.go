package handlers

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jaryd-hermann/dateful/internal/models"
	"github.com/jaryd-hermann/dateful/internal/onboarding"
	"github.com/jaryd-hermann/dateful/internal/services"
	"github.com/jaryd-hermann/dateful/pkg/utils"
)

type otpAuthService interface {
	Issue(ctx context.Context, phone string) (string, error)
	Verify(ctx context.Context, phone, email, password, code string) (*models.User, error)
}

type authUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type authCoupleStore interface {
	GetByID(ctx context.Context, id int64) (*models.Couple, error)
}

type AuthHandler struct {
	otp        otpAuthService
	userRepo   authUserStore
	coupleRepo authCoupleStore
	jwtSecret  string
}

func NewAuthHandler(
	otp otpAuthService,
	userRepo authUserStore,
	coupleRepo authCoupleStore,
	jwtSecret string,
) *AuthHandler {
	return &AuthHandler{
		otp:        otp,
		userRepo:   userRepo,
		coupleRepo: coupleRepo,
		jwtSecret:  jwtSecret,
	}
}

type sendOTPRequest struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Phone == "" || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Phone, email, and password are required"})
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email format"})
	}
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Password must be at least 8 characters"})
	}

	phone, err := normalizeRequestPhone(req.Phone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Please enter a valid 10-digit phone number"})
	}

	code, err := h.otp.Issue(c.Context(), phone)
	if err != nil {
		if errors.Is(err, services.ErrNotConfigured) {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Twilio not configured"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to send verification code"})
	}

	if c.Get("X-Dev-Mode") == "true" {
		return c.JSON(fiber.Map{"success": true, "dev_code": code})
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Phone == "" || req.Email == "" || req.Password == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Phone, email, password, and code are required"})
	}

	phone, err := normalizeRequestPhone(req.Phone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Please enter a valid 10-digit phone number"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.otp.Verify(c.Context(), phone, email, req.Password, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCode):
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "Invalid or expired code"})
		case errors.Is(err, services.ErrCodeExpired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Code has expired"})
		case errors.Is(err, services.ErrPhoneExists):
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "An account with this phone number already exists"})
		case errors.Is(err, services.ErrEmailExists):
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "An account with this email already exists"})
		default:
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to create account"})
		}
	}

	token, err := utils.GenerateToken(strconv.FormatInt(user.ID, 10), user.Role, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user":    userResponse(user),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	parsedEmail, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid email format"})
	}
	email := strings.ToLower(parsedEmail.Address)

	user, err := h.userRepo.GetByEmail(c.Context(), email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": "Invalid email or password"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to lookup user"})
	}

	// Partner accounts are SMS-only and carry no password.
	if user.PasswordHash == nil || !utils.CheckPassword(req.Password, *user.PasswordHash) {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"error": "Invalid email or password"})
	}

	token, err := utils.GenerateToken(strconv.FormatInt(user.ID, 10), user.Role, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  userResponse(user),
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
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

	resp := fiber.Map{
		"user":                userResponse(user),
		"onboarding_complete": false,
	}
	if user.CoupleID != nil {
		couple, err := h.coupleRepo.GetByID(c.Context(), *user.CoupleID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to lookup couple"})
		}
		if couple != nil {
			resp["couple"] = couple
			resp["onboarding_complete"] = couple.OnboardingComplete
		}
	}
	return c.JSON(resp)
}

func userResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":        user.ID,
		"email":     user.Email,
		"phone":     user.Phone,
		"name":      user.Name,
		"role":      user.Role,
		"couple_id": user.CoupleID,
	}
}

// normalizeRequestPhone accepts either a raw 10-digit US number or an
// already-normalized E.164 value.
func normalizeRequestPhone(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if normalized, err := onboarding.NormalizePhone(trimmed); err == nil {
		return normalized, nil
	}
	if strings.HasPrefix(trimmed, "+") && len(trimmed) >= 11 {
		return trimmed, nil
	}
	return "", errors.New("invalid phone number")
}
