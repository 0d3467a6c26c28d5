package repository

import (
	"context"
	"time"

	"github.com/jaryd-hermann/dateful/internal/models"
)

type OTPRepository struct {
	db DBTX
}

func NewOTPRepository(db DBTX) *OTPRepository {
	return &OTPRepository{db: db}
}

// DeleteByPhone clears any previous codes so only one is ever active.
func (r *OTPRepository) DeleteByPhone(ctx context.Context, phone string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM otp_verifications WHERE phone = $1`, phone)
	return err
}

func (r *OTPRepository) Create(ctx context.Context, phone, code string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO otp_verifications (phone, code, expires_at)
		VALUES ($1, $2, $3)
	`, phone, code, expiresAt)
	return err
}

// GetUnverified finds the matching code that has not been used yet.
// Expiry is checked by the caller so "expired" and "wrong" surface as
// different messages.
func (r *OTPRepository) GetUnverified(ctx context.Context, phone, code string) (*models.OTPVerification, error) {
	query := `
		SELECT id, phone, code, expires_at, verified_at, created_at
		FROM otp_verifications
		WHERE phone = $1 AND code = $2 AND verified_at IS NULL
	`
	var otp models.OTPVerification
	err := r.db.QueryRow(ctx, query, phone, code).Scan(
		&otp.ID,
		&otp.Phone,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.VerifiedAt,
		&otp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *OTPRepository) MarkVerified(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE otp_verifications
		SET verified_at = NOW()
		WHERE id = $1 AND verified_at IS NULL
	`, id)
	return err
}
