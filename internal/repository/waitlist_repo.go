package repository

import (
	"context"
)

type WaitlistRepository struct {
	db DBTX
}

func NewWaitlistRepository(db DBTX) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

func (r *WaitlistRepository) Insert(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO waitlist (email) VALUES ($1)`, email)
	return err
}

type WaitlistUpdateInput struct {
	InUS           *bool
	DateFrequency  *string
	WouldPayAmount *string
}

// Update patches survey fields on an existing entry. Returns pgx.ErrNoRows
// via the RETURNING scan when the email is not on the list.
func (r *WaitlistRepository) Update(ctx context.Context, email string, input WaitlistUpdateInput) error {
	var id int64
	return r.db.QueryRow(ctx, `
		UPDATE waitlist
		SET in_us = COALESCE($2, in_us),
		    date_frequency = COALESCE($3, date_frequency),
		    would_pay_amount = COALESCE($4, would_pay_amount),
		    updated_at = NOW()
		WHERE email = $1
		RETURNING id
	`, email, input.InUS, input.DateFrequency, input.WouldPayAmount).Scan(&id)
}
