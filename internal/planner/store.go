package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"HealthBuddy/internal/chat"
	"HealthBuddy/internal/database"
	"HealthBuddy/internal/healthcalc"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/singleflight"
)

// Repository is the persistence the store writes through to. *database.Queries
// implements it.
type Repository interface {
	CreatePlannerSession(ctx context.Context, arg database.CreatePlannerSessionParams) (database.PlannerSession, error)
	GetPlannerSession(ctx context.Context, sessionID pgtype.UUID) (database.PlannerSession, error)
	UpdatePlannerSessionProfile(ctx context.Context, arg database.UpdatePlannerSessionProfileParams) (database.PlannerSession, error)
	DeleteExpiredPlannerSessions(ctx context.Context) (int64, error)
	InsertChatMessage(ctx context.Context, arg database.InsertChatMessageParams) (database.ChatMessage, error)
	ListChatMessages(ctx context.Context, sessionID pgtype.UUID) ([]database.ChatMessage, error)
	DeleteChatMessages(ctx context.Context, sessionID pgtype.UUID) error
	UpsertWeeklyPlan(ctx context.Context, arg database.UpsertWeeklyPlanParams) (database.WeeklyPlan, error)
	GetWeeklyPlan(ctx context.Context, arg database.GetWeeklyPlanParams) (database.WeeklyPlan, error)
	ListWeeklyPlans(ctx context.Context, sessionID pgtype.UUID) ([]database.WeeklyPlan, error)
}

var _ Repository = (*database.Queries)(nil)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	DefaultCacheSize  = 1024
)

// Store keeps recently used sessions in an expiring LRU cache in front of the
// repository. Every mutation is written to the repository before the cached
// session changes.
type Store struct {
	repo  Repository
	cache *expirable.LRU[string, *Session]
	loads singleflight.Group
	ttl   time.Duration
	now   func() time.Time
}

// NewStore builds a store. Non-positive size or ttl fall back to the defaults.
func NewStore(repo Repository, size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{
		repo:  repo,
		cache: expirable.NewLRU[string, *Session](size, nil, ttl),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns how long a session lives after its last profile update.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create persists a new session for an already validated profile.
func (s *Store) Create(ctx context.Context, p healthcalc.UserProfile) (*Session, error) {
	id := uuid.New()
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	row, err := s.repo.CreatePlannerSession(ctx, database.CreatePlannerSessionParams{
		SessionID: pgtype.UUID{Bytes: id, Valid: true},
		Profile:   profileJSON,
		ExpiresAt: pgtype.Timestamptz{Time: s.now().Add(s.ttl), Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess := newSession(id.String(), p, row.CreatedAt.Time, row.ExpiresAt.Time, nil)
	s.cache.Add(sess.ID, sess)
	return sess, nil
}

// Get returns the session from the cache, loading it and its transcript from the
// repository on a miss. Concurrent misses for one id share a single load, so
// every caller ends up holding the cached *Session.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if sess, ok := s.cache.Get(id); ok {
		if !sess.expired(s.now()) {
			return sess, nil
		}
		s.cache.Remove(id)
		return nil, ErrSessionNotFound
	}

	pgID, err := parseSessionID(id)
	if err != nil {
		return nil, err
	}

	v, err, _ := s.loads.Do(id, func() (interface{}, error) {
		// A load that finished after our miss has already cached the session.
		if sess, ok := s.cache.Peek(id); ok {
			return sess, nil
		}
		sess, err := s.load(ctx, id, pgID)
		if err != nil {
			return nil, err
		}
		s.cache.Add(id, sess)
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (s *Store) load(ctx context.Context, id string, pgID pgtype.UUID) (*Session, error) {
	row, err := s.repo.GetPlannerSession(ctx, pgID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var p healthcalc.UserProfile
	if err := json.Unmarshal(row.Profile, &p); err != nil {
		return nil, fmt.Errorf("decode stored profile: %w", err)
	}

	msgs, err := s.repo.ListChatMessages(ctx, pgID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	turns := make([]chat.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, chat.Turn{
			Role:      chat.Role(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Time,
		})
	}

	return newSession(id, p, row.CreatedAt.Time, row.ExpiresAt.Time, turns), nil
}

// UpdateProfile replaces the profile and extends the session's lifetime.
func (s *Store) UpdateProfile(ctx context.Context, sess *Session, p healthcalc.UserProfile) error {
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	pgID, err := parseSessionID(sess.ID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	row, err := s.repo.UpdatePlannerSessionProfile(ctx, database.UpdatePlannerSessionProfileParams{
		SessionID: pgID,
		Profile:   profileJSON,
		ExpiresAt: pgtype.Timestamptz{Time: s.now().Add(s.ttl), Valid: true},
	})
	if errors.Is(err, pgx.ErrNoRows) {
		s.cache.Remove(sess.ID)
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	sess.profile = p
	sess.ExpiresAt = row.ExpiresAt.Time
	// Refresh the cache entry without replacing a newer copy loaded after an eviction.
	if cur, ok := s.cache.Peek(sess.ID); !ok || cur == sess {
		s.cache.Add(sess.ID, sess)
	}
	return nil
}

// appendTurn persists a turn and then appends it in memory. The caller holds sess.mu.
func (s *Store) appendTurn(ctx context.Context, sess *Session, role chat.Role, content string) (chat.Turn, error) {
	pgID, err := parseSessionID(sess.ID)
	if err != nil {
		return chat.Turn{}, err
	}

	turn, err := chat.NewTurn(role, content)
	if err != nil {
		return chat.Turn{}, err
	}

	if _, err := s.repo.InsertChatMessage(ctx, database.InsertChatMessageParams{
		SessionID: pgID,
		Role:      string(turn.Role),
		Content:   turn.Content,
		CreatedAt: pgtype.Timestamptz{Time: turn.CreatedAt, Valid: true},
	}); err != nil {
		return chat.Turn{}, fmt.Errorf("store chat message: %w", err)
	}

	if err := sess.transcript.AppendTurn(turn); err != nil {
		return chat.Turn{}, err
	}
	return turn, nil
}

// ClearTranscript deletes every chat turn of the session.
func (s *Store) ClearTranscript(ctx context.Context, sess *Session) error {
	pgID, err := parseSessionID(sess.ID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.repo.DeleteChatMessages(ctx, pgID); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	sess.transcript.Reset()
	return nil
}

// SavePlan stores (or replaces) the plan for plan.Week.
func (s *Store) SavePlan(ctx context.Context, sessionID string, plan WeeklyPlan) (WeeklyPlan, error) {
	pgID, err := parseSessionID(sessionID)
	if err != nil {
		return WeeklyPlan{}, err
	}
	profileJSON, err := json.Marshal(plan.Profile)
	if err != nil {
		return WeeklyPlan{}, fmt.Errorf("marshal profile: %w", err)
	}

	row, err := s.repo.UpsertWeeklyPlan(ctx, database.UpsertWeeklyPlanParams{
		SessionID: pgID,
		Week:      int32(plan.Week),
		Profile:   profileJSON,
		Content:   plan.Content,
		Model:     plan.Model,
	})
	if err != nil {
		return WeeklyPlan{}, fmt.Errorf("store weekly plan: %w", err)
	}
	return planFromRow(row)
}

// GetPlan loads the plan of one week.
func (s *Store) GetPlan(ctx context.Context, sessionID string, week int) (WeeklyPlan, error) {
	pgID, err := parseSessionID(sessionID)
	if err != nil {
		return WeeklyPlan{}, err
	}

	row, err := s.repo.GetWeeklyPlan(ctx, database.GetWeeklyPlanParams{SessionID: pgID, Week: int32(week)})
	if errors.Is(err, pgx.ErrNoRows) {
		return WeeklyPlan{}, ErrPlanNotFound
	}
	if err != nil {
		return WeeklyPlan{}, fmt.Errorf("load weekly plan: %w", err)
	}
	return planFromRow(row)
}

// ListPlans returns every stored plan ordered by week.
func (s *Store) ListPlans(ctx context.Context, sessionID string) ([]WeeklyPlan, error) {
	pgID, err := parseSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListWeeklyPlans(ctx, pgID)
	if err != nil {
		return nil, fmt.Errorf("list weekly plans: %w", err)
	}

	plans := make([]WeeklyPlan, 0, len(rows))
	for _, row := range rows {
		plan, err := planFromRow(row)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// DeleteExpired removes expired sessions from the repository. The cache expires
// its own entries.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredPlannerSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

func planFromRow(row database.WeeklyPlan) (WeeklyPlan, error) {
	var p healthcalc.UserProfile
	if err := json.Unmarshal(row.Profile, &p); err != nil {
		return WeeklyPlan{}, fmt.Errorf("decode plan profile: %w", err)
	}
	return WeeklyPlan{
		Week:        int(row.Week),
		Content:     row.Content,
		Model:       row.Model,
		Profile:     p,
		GeneratedAt: row.GeneratedAt.Time,
	}, nil
}

func parseSessionID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, ErrSessionNotFound
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
