package planner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"HealthBuddy/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is a Repository kept in process memory. It follows the same
// semantics as the SQL queries and backs the server when no database is configured.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[[16]byte]database.PlannerSession
	messages map[[16]byte][]database.ChatMessage
	plans    map[[16]byte]map[int32]database.WeeklyPlan
	nextMsg  int64
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[[16]byte]database.PlannerSession),
		messages: make(map[[16]byte][]database.ChatMessage),
		plans:    make(map[[16]byte]map[int32]database.WeeklyPlan),
		now:      time.Now,
	}
}

func (r *MemoryRepository) ts() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: r.now(), Valid: true}
}

func (r *MemoryRepository) CreatePlannerSession(_ context.Context, arg database.CreatePlannerSessionParams) (database.PlannerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[arg.SessionID.Bytes]; ok {
		return database.PlannerSession{}, errors.New("duplicate key")
	}
	row := database.PlannerSession{
		SessionID: arg.SessionID,
		Profile:   arg.Profile,
		CreatedAt: r.ts(),
		UpdatedAt: r.ts(),
		ExpiresAt: arg.ExpiresAt,
	}
	r.sessions[arg.SessionID.Bytes] = row
	return row, nil
}

func (r *MemoryRepository) GetPlannerSession(_ context.Context, id pgtype.UUID) (database.PlannerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.sessions[id.Bytes]
	if !ok || !row.ExpiresAt.Time.After(r.now()) {
		return database.PlannerSession{}, pgx.ErrNoRows
	}
	return row, nil
}

func (r *MemoryRepository) UpdatePlannerSessionProfile(_ context.Context, arg database.UpdatePlannerSessionProfileParams) (database.PlannerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.sessions[arg.SessionID.Bytes]
	if !ok {
		return database.PlannerSession{}, pgx.ErrNoRows
	}
	row.Profile = arg.Profile
	row.UpdatedAt = r.ts()
	row.ExpiresAt = arg.ExpiresAt
	r.sessions[arg.SessionID.Bytes] = row
	return row, nil
}

func (r *MemoryRepository) DeleteExpiredPlannerSessions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, row := range r.sessions {
		if !row.ExpiresAt.Time.After(r.now()) {
			delete(r.sessions, id)
			delete(r.messages, id)
			delete(r.plans, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) InsertChatMessage(_ context.Context, arg database.InsertChatMessageParams) (database.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMsg++
	msg := database.ChatMessage{
		MessageID: r.nextMsg,
		SessionID: arg.SessionID,
		Role:      arg.Role,
		Content:   arg.Content,
		CreatedAt: arg.CreatedAt,
	}
	r.messages[arg.SessionID.Bytes] = append(r.messages[arg.SessionID.Bytes], msg)
	return msg, nil
}

func (r *MemoryRepository) ListChatMessages(_ context.Context, id pgtype.UUID) ([]database.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]database.ChatMessage(nil), r.messages[id.Bytes]...), nil
}

func (r *MemoryRepository) DeleteChatMessages(_ context.Context, id pgtype.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id.Bytes)
	return nil
}

func (r *MemoryRepository) UpsertWeeklyPlan(_ context.Context, arg database.UpsertWeeklyPlanParams) (database.WeeklyPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[arg.SessionID.Bytes]; !ok {
		return database.WeeklyPlan{}, errors.New("foreign key violation")
	}
	if r.plans[arg.SessionID.Bytes] == nil {
		r.plans[arg.SessionID.Bytes] = make(map[int32]database.WeeklyPlan)
	}
	row := database.WeeklyPlan{
		SessionID:   arg.SessionID,
		Week:        arg.Week,
		Profile:     arg.Profile,
		Content:     arg.Content,
		Model:       arg.Model,
		GeneratedAt: r.ts(),
	}
	r.plans[arg.SessionID.Bytes][arg.Week] = row
	return row, nil
}

func (r *MemoryRepository) GetWeeklyPlan(_ context.Context, arg database.GetWeeklyPlanParams) (database.WeeklyPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.plans[arg.SessionID.Bytes][arg.Week]
	if !ok {
		return database.WeeklyPlan{}, pgx.ErrNoRows
	}
	return row, nil
}

func (r *MemoryRepository) ListWeeklyPlans(_ context.Context, id pgtype.UUID) ([]database.WeeklyPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]database.WeeklyPlan, 0, len(r.plans[id.Bytes]))
	for _, row := range r.plans[id.Bytes] {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Week < rows[j].Week })
	return rows, nil
}
