package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jaryd-hermann/dateful/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const turnColumns = `id, couple_id, user_id, role, content, channel, context_type, twilio_message_sid, created_at`

func (r *ConversationRepository) Create(ctx context.Context, turn *models.ConversationTurn) error {
	query := `
		INSERT INTO conversations (couple_id, user_id, role, content, channel, context_type, twilio_message_sid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		turn.CoupleID,
		turn.UserID,
		turn.Role,
		turn.Content,
		turn.Channel,
		turn.ContextType,
		turn.TwilioMessageSID,
	).Scan(&turn.ID, &turn.CreatedAt)
}

// ListRecent returns up to limit turns for the couple, most recent first.
func (r *ConversationRepository) ListRecent(ctx context.Context, coupleID int64, limit int) ([]models.ConversationTurn, error) {
	query := `
		SELECT ` + turnColumns + `
		FROM conversations
		WHERE couple_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, coupleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTurns(rows)
}

// ListByCouple returns turns in chronological order with the couple's
// total, for paginated history.
func (r *ConversationRepository) ListByCouple(
	ctx context.Context,
	coupleID int64,
	limit int,
	offset int,
) ([]models.ConversationTurn, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM conversations
		WHERE couple_id = $1
	`, coupleID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + turnColumns + `
		FROM conversations
		WHERE couple_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, coupleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	turns, err := scanTurns(rows)
	if err != nil {
		return nil, 0, err
	}
	return turns, total, nil
}

func scanTurns(rows pgx.Rows) ([]models.ConversationTurn, error) {
	turns := make([]models.ConversationTurn, 0)
	for rows.Next() {
		var turn models.ConversationTurn
		if err := rows.Scan(
			&turn.ID,
			&turn.CoupleID,
			&turn.UserID,
			&turn.Role,
			&turn.Content,
			&turn.Channel,
			&turn.ContextType,
			&turn.TwilioMessageSID,
			&turn.CreatedAt,
		); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}
