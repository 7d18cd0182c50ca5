package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"HealthBuddy/internal/chat"
	"HealthBuddy/internal/geminiservice"
	"HealthBuddy/internal/healthcalc"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// EventPlanReady is pushed to a session's sockets once a weekly plan is stored.
const EventPlanReady = "PLAN_READY"

// DashboardTurns is how many recent chat turns the dashboard view carries.
const DashboardTurns = 20

// Notifier delivers events to whoever is listening on a session.
type Notifier interface {
	Notify(sessionID string, event any)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, any) {}

// PlanReadyEvent is the payload sent with EventPlanReady.
type PlanReadyEvent struct {
	Type        string    `json:"type"`
	Week        int       `json:"week"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ChatExchange is one user message and the reply recorded for it.
type ChatExchange struct {
	User      chat.Turn `json:"user"`
	Assistant chat.Turn `json:"assistant"`
	Failed    bool      `json:"failed"`
}

// Dashboard is the aggregate view of a session.
type Dashboard struct {
	Session View                `json:"session"`
	Metrics healthcalc.Snapshot `json:"metrics"`
	Plans   []WeeklyPlan        `json:"plans"`
	Recent  []chat.Turn         `json:"recent_chat"`
}

// GenerationError reports that the model call behind a plan failed.
type GenerationError struct {
	Week int
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate week %d plan: %v", e.Week, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type Service struct {
	store    *Store
	gen      geminiservice.Generator
	model    string
	notifier Notifier
}

// NewService wires the store to a generator. model is recorded on every stored
// plan. A nil notifier disables push events.
func NewService(store *Store, gen geminiservice.Generator, model string, notifier Notifier) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{store: store, gen: gen, model: model, notifier: notifier}
}

// CreateSession validates the profile and opens a session for it.
func (s *Service) CreateSession(ctx context.Context, p healthcalc.UserProfile) (*Session, healthcalc.Snapshot, error) {
	p = p.Normalized()
	snap, err := healthcalc.Compute(p)
	if err != nil {
		return nil, healthcalc.Snapshot{}, err
	}

	sess, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, healthcalc.Snapshot{}, err
	}

	zerolog.Ctx(ctx).Info().Str("session_id", sess.ID).Msg("Planner session created")
	return sess, snap, nil
}

// Get returns the session with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Metrics recomputes the snapshot from the current profile.
func (s *Service) Metrics(ctx context.Context, id string) (healthcalc.Snapshot, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return healthcalc.Snapshot{}, err
	}
	return healthcalc.Compute(sess.Profile())
}

// UpdateProfile replaces the profile and returns the recomputed snapshot.
func (s *Service) UpdateProfile(ctx context.Context, id string, p healthcalc.UserProfile) (View, healthcalc.Snapshot, error) {
	p = p.Normalized()
	snap, err := healthcalc.Compute(p)
	if err != nil {
		return View{}, healthcalc.Snapshot{}, err
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return View{}, healthcalc.Snapshot{}, err
	}
	if err := s.store.UpdateProfile(ctx, sess, p); err != nil {
		return View{}, healthcalc.Snapshot{}, err
	}
	return sess.View(), snap, nil
}

// GeneratePlan asks the generator for the plan of the profile's current week and
// stores it, replacing an earlier plan for the same week.
func (s *Service) GeneratePlan(ctx context.Context, id string) (WeeklyPlan, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return WeeklyPlan{}, err
	}

	p := sess.Profile()
	content, err := geminiservice.GenerateWeeklyPlan(ctx, s.gen, p)
	if err != nil {
		return WeeklyPlan{}, &GenerationError{Week: p.CurrentWeek, Err: err}
	}

	plan, err := s.store.SavePlan(ctx, sess.ID, WeeklyPlan{
		Week:    p.CurrentWeek,
		Content: content,
		Model:   s.model,
		Profile: p,
	})
	if err != nil {
		return WeeklyPlan{}, err
	}

	s.notifier.Notify(sess.ID, PlanReadyEvent{Type: EventPlanReady, Week: plan.Week, GeneratedAt: plan.GeneratedAt})
	return plan, nil
}

// GetPlan returns the stored plan of one week.
func (s *Service) GetPlan(ctx context.Context, id string, week int) (WeeklyPlan, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return WeeklyPlan{}, err
	}
	return s.store.GetPlan(ctx, sess.ID, week)
}

// ListPlans returns every stored plan of the session.
func (s *Service) ListPlans(ctx context.Context, id string) ([]WeeklyPlan, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.ListPlans(ctx, sess.ID)
}

// Chat records the user's message, asks for a reply over the whole transcript
// (the new message included) and records the reply. A failed generation is
// recorded as the error text. Messages on one session are answered one at a time.
func (s *Service) Chat(ctx context.Context, id, message string) (ChatExchange, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return ChatExchange{}, err
	}

	sess.turnMu.Lock()
	defer sess.turnMu.Unlock()

	sess.mu.Lock()
	userTurn, err := s.store.appendTurn(ctx, sess, chat.RoleUser, message)
	profile, history := sess.profile, sess.transcript.Turns()
	sess.mu.Unlock()
	if err != nil {
		return ChatExchange{}, err
	}

	reply := geminiservice.AssistantReply(ctx, s.gen, profile, history, message)

	sess.mu.Lock()
	assistantTurn, err := s.store.appendTurn(ctx, sess, chat.RoleAssistant, reply)
	sess.mu.Unlock()
	if err != nil {
		return ChatExchange{}, err
	}

	return ChatExchange{
		User:      userTurn,
		Assistant: assistantTurn,
		Failed:    geminiservice.IsErrorText(reply),
	}, nil
}

// Transcript returns every chat turn of the session.
func (s *Service) Transcript(ctx context.Context, id string) ([]chat.Turn, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Transcript(), nil
}

// ClearChat drops the session's transcript.
func (s *Service) ClearChat(ctx context.Context, id string) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.store.ClearTranscript(ctx, sess)
}

// Dashboard gathers metrics, plans and recent chat concurrently.
func (s *Service) Dashboard(ctx context.Context, id string) (Dashboard, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Dashboard{}, err
	}

	res := Dashboard{Session: sess.View(), Plans: []WeeklyPlan{}, Recent: []chat.Turn{}}

	g, grpCtx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	g.Go(func() error {
		snap, err := healthcalc.Compute(res.Session.Profile)
		if err != nil {
			return err
		}
		mu.Lock()
		res.Metrics = snap
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		plans, err := s.store.ListPlans(grpCtx, sess.ID)
		if err != nil {
			return err
		}
		mu.Lock()
		res.Plans = plans
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		turns := sess.RecentTurns(DashboardTurns)
		mu.Lock()
		res.Recent = turns
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return res, nil
}
