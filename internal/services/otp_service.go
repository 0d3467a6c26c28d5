package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jaryd-hermann/dateful/internal/models"
	"github.com/jaryd-hermann/dateful/pkg/utils"
)

var (
	ErrInvalidCode = errors.New("invalid or expired code")
	ErrCodeExpired = errors.New("code has expired")
	ErrPhoneExists = errors.New("phone already registered")
	ErrEmailExists = errors.New("email already registered")
)

const (
	otpTTL        = 10 * time.Minute
	otpMessageFmt = "Your Dateful verification code is: %s. It expires in 10 minutes."
)

type otpStore interface {
	DeleteByPhone(ctx context.Context, phone string) error
	Create(ctx context.Context, phone, code string, expiresAt time.Time) error
	GetUnverified(ctx context.Context, phone, code string) (*models.OTPVerification, error)
	MarkVerified(ctx context.Context, id int64) error
}

type otpUserStore interface {
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// OTPService issues and verifies phone verification codes, and creates the
// primary account once a code checks out.
type OTPService struct {
	otps  otpStore
	users otpUserStore
	sms   SMSService
}

func NewOTPService(otps otpStore, users otpUserStore, sms SMSService) *OTPService {
	return &OTPService{otps: otps, users: users, sms: sms}
}

// Issue generates a fresh 6-digit code for the phone, replacing any code
// still outstanding, and texts it out. The code is returned so dev mode can
// echo it to the caller.
func (s *OTPService) Issue(ctx context.Context, phone string) (string, error) {
	if s.sms == nil {
		return "", ErrNotConfigured
	}

	code, err := generateOTPCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	if err := s.otps.DeleteByPhone(ctx, phone); err != nil {
		return "", fmt.Errorf("clear previous codes: %w", err)
	}
	if err := s.otps.Create(ctx, phone, code, time.Now().Add(otpTTL)); err != nil {
		return "", fmt.Errorf("save code: %w", err)
	}

	if err := s.sms.SendSMS(phone, fmt.Sprintf(otpMessageFmt, code)); err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes a code and creates the primary user. A code is single-use:
// it is marked verified before the duplicate-account checks run, so a failed
// signup cannot retry the same code.
func (s *OTPService) Verify(ctx context.Context, phone, email, password, code string) (*models.User, error) {
	otp, err := s.otps.GetUnverified(ctx, phone, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("look up code: %w", err)
	}
	if time.Now().After(otp.ExpiresAt) {
		return nil, ErrCodeExpired
	}

	if err := s.otps.MarkVerified(ctx, otp.ID); err != nil {
		return nil, fmt.Errorf("mark code verified: %w", err)
	}

	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing phone: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        &email,
		PasswordHash: &hash,
		Phone:        phone,
		Name:         "",
		Role:         models.RolePrimary,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
