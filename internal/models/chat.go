package models

import "time"

// ConversationTurn is one persisted chat message, user- or
// assistant-authored. Rows are append-only.
type ConversationTurn struct {
	ID               int64     `json:"id"`
	CoupleID         int64     `json:"couple_id"`
	UserID           *int64    `json:"user_id,omitempty"`
	Role             string    `json:"role"`
	Content          string    `json:"content"`
	Channel          string    `json:"channel"`
	ContextType      string    `json:"context_type"`
	TwilioMessageSID *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"

	ChannelWeb = "web"
	ChannelSMS = "sms"

	ContextGeneral = "general"
)

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
