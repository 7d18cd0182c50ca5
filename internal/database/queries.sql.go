package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPlannerSession = `-- name: CreatePlannerSession :one
INSERT INTO planner_sessions (session_id, profile, expires_at)
VALUES ($1, $2, $3)
RETURNING session_id, profile, created_at, updated_at, expires_at
`

type CreatePlannerSessionParams struct {
	SessionID pgtype.UUID        `json:"session_id"`
	Profile   []byte             `json:"profile"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) CreatePlannerSession(ctx context.Context, arg CreatePlannerSessionParams) (PlannerSession, error) {
	row := q.db.QueryRow(ctx, createPlannerSession, arg.SessionID, arg.Profile, arg.ExpiresAt)
	var i PlannerSession
	err := row.Scan(
		&i.SessionID,
		&i.Profile,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ExpiresAt,
	)
	return i, err
}

const getPlannerSession = `-- name: GetPlannerSession :one
SELECT session_id, profile, created_at, updated_at, expires_at
FROM planner_sessions
WHERE session_id = $1 AND expires_at > now()
`

func (q *Queries) GetPlannerSession(ctx context.Context, sessionID pgtype.UUID) (PlannerSession, error) {
	row := q.db.QueryRow(ctx, getPlannerSession, sessionID)
	var i PlannerSession
	err := row.Scan(
		&i.SessionID,
		&i.Profile,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ExpiresAt,
	)
	return i, err
}

const updatePlannerSessionProfile = `-- name: UpdatePlannerSessionProfile :one
UPDATE planner_sessions
SET profile = $2, updated_at = now(), expires_at = $3
WHERE session_id = $1
RETURNING session_id, profile, created_at, updated_at, expires_at
`

type UpdatePlannerSessionProfileParams struct {
	SessionID pgtype.UUID        `json:"session_id"`
	Profile   []byte             `json:"profile"`
	ExpiresAt pgtype.Timestamptz `json:"expires_at"`
}

func (q *Queries) UpdatePlannerSessionProfile(ctx context.Context, arg UpdatePlannerSessionProfileParams) (PlannerSession, error) {
	row := q.db.QueryRow(ctx, updatePlannerSessionProfile, arg.SessionID, arg.Profile, arg.ExpiresAt)
	var i PlannerSession
	err := row.Scan(
		&i.SessionID,
		&i.Profile,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ExpiresAt,
	)
	return i, err
}

const deleteExpiredPlannerSessions = `-- name: DeleteExpiredPlannerSessions :execrows
DELETE FROM planner_sessions
WHERE expires_at <= now()
`

func (q *Queries) DeleteExpiredPlannerSessions(ctx context.Context) (int64, error) {
	result, err := q.db.Exec(ctx, deleteExpiredPlannerSessions)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertChatMessage = `-- name: InsertChatMessage :one
INSERT INTO chat_messages (session_id, role, content, created_at)
VALUES ($1, $2, $3, $4)
RETURNING message_id, session_id, role, content, created_at
`

type InsertChatMessageParams struct {
	SessionID pgtype.UUID        `json:"session_id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) InsertChatMessage(ctx context.Context, arg InsertChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRow(ctx, insertChatMessage,
		arg.SessionID,
		arg.Role,
		arg.Content,
		arg.CreatedAt,
	)
	var i ChatMessage
	err := row.Scan(
		&i.MessageID,
		&i.SessionID,
		&i.Role,
		&i.Content,
		&i.CreatedAt,
	)
	return i, err
}

const listChatMessages = `-- name: ListChatMessages :many
SELECT message_id, session_id, role, content, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY message_id ASC
`

func (q *Queries) ListChatMessages(ctx context.Context, sessionID pgtype.UUID) ([]ChatMessage, error) {
	rows, err := q.db.Query(ctx, listChatMessages, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ChatMessage
	for rows.Next() {
		var i ChatMessage
		if err := rows.Scan(
			&i.MessageID,
			&i.SessionID,
			&i.Role,
			&i.Content,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteChatMessages = `-- name: DeleteChatMessages :exec
DELETE FROM chat_messages
WHERE session_id = $1
`

func (q *Queries) DeleteChatMessages(ctx context.Context, sessionID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteChatMessages, sessionID)
	return err
}

const upsertWeeklyPlan = `-- name: UpsertWeeklyPlan :one
INSERT INTO weekly_plans (session_id, week, profile, content, model)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id, week) DO UPDATE
SET profile = EXCLUDED.profile,
    content = EXCLUDED.content,
    model = EXCLUDED.model,
    generated_at = now()
RETURNING session_id, week, profile, content, model, generated_at
`

type UpsertWeeklyPlanParams struct {
	SessionID pgtype.UUID `json:"session_id"`
	Week      int32       `json:"week"`
	Profile   []byte      `json:"profile"`
	Content   string      `json:"content"`
	Model     string      `json:"model"`
}

func (q *Queries) UpsertWeeklyPlan(ctx context.Context, arg UpsertWeeklyPlanParams) (WeeklyPlan, error) {
	row := q.db.QueryRow(ctx, upsertWeeklyPlan,
		arg.SessionID,
		arg.Week,
		arg.Profile,
		arg.Content,
		arg.Model,
	)
	var i WeeklyPlan
	err := row.Scan(
		&i.SessionID,
		&i.Week,
		&i.Profile,
		&i.Content,
		&i.Model,
		&i.GeneratedAt,
	)
	return i, err
}

const getWeeklyPlan = `-- name: GetWeeklyPlan :one
SELECT session_id, week, profile, content, model, generated_at
FROM weekly_plans
WHERE session_id = $1 AND week = $2
`

type GetWeeklyPlanParams struct {
	SessionID pgtype.UUID `json:"session_id"`
	Week      int32       `json:"week"`
}

func (q *Queries) GetWeeklyPlan(ctx context.Context, arg GetWeeklyPlanParams) (WeeklyPlan, error) {
	row := q.db.QueryRow(ctx, getWeeklyPlan, arg.SessionID, arg.Week)
	var i WeeklyPlan
	err := row.Scan(
		&i.SessionID,
		&i.Week,
		&i.Profile,
		&i.Content,
		&i.Model,
		&i.GeneratedAt,
	)
	return i, err
}

const listWeeklyPlans = `-- name: ListWeeklyPlans :many
SELECT session_id, week, profile, content, model, generated_at
FROM weekly_plans
WHERE session_id = $1
ORDER BY week ASC
`

func (q *Queries) ListWeeklyPlans(ctx context.Context, sessionID pgtype.UUID) ([]WeeklyPlan, error) {
	rows, err := q.db.Query(ctx, listWeeklyPlans, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WeeklyPlan
	for rows.Next() {
		var i WeeklyPlan
		if err := rows.Scan(
			&i.SessionID,
			&i.Week,
			&i.Profile,
			&i.Content,
			&i.Model,
			&i.GeneratedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDatabaseStatus = `-- name: GetDatabaseStatus :one
SELECT 1::int
`

func (q *Queries) GetDatabaseStatus(ctx context.Context) (int32, error) {
	row := q.db.QueryRow(ctx, getDatabaseStatus)
	var column_1 int32
	err := row.Scan(&column_1)
	return column_1, err
}
