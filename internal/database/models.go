package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type PlannerSession struct {
	SessionID pgtype.UUID        `json:"session_id"`
	Profile   []byte             `json:"profile"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
}

type ChatMessage struct {
	MessageID int64              `json:"message_id"`
	SessionID pgtype.UUID        `json:"session_id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type WeeklyPlan struct {
	SessionID   pgtype.UUID        `json:"session_id"`
	Week        int32              `json:"week"`
	Profile     []byte             `json:"profile"`
	Content     string             `json:"content"`
	Model       string             `json:"model"`
	GeneratedAt pgtype.Timestamptz `json:"generated_at"`
}
