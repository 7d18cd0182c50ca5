package planner

import (
	"context"
	"sync"
	"sync/atomic"

	"HealthBuddy/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
)

// memRepo wraps the in-memory repository with failure injection and call counts.
type memRepo struct {
	*MemoryRepository

	failInsert error
	loads      atomic.Int32
	// loadGate, when set, holds every session load until it is closed.
	loadGate chan struct{}
}

func newMemRepo() *memRepo {
	return &memRepo{MemoryRepository: NewMemoryRepository()}
}

func (r *memRepo) GetPlannerSession(ctx context.Context, id pgtype.UUID) (database.PlannerSession, error) {
	r.loads.Add(1)
	if r.loadGate != nil {
		<-r.loadGate
	}
	return r.MemoryRepository.GetPlannerSession(ctx, id)
}

func (r *memRepo) InsertChatMessage(ctx context.Context, arg database.InsertChatMessageParams) (database.ChatMessage, error) {
	if r.failInsert != nil {
		return database.ChatMessage{}, r.failInsert
	}
	return r.MemoryRepository.InsertChatMessage(ctx, arg)
}

func (r *memRepo) messageCount(id string) int {
	pgID, _ := parseSessionID(id)
	msgs, _ := r.ListChatMessages(context.Background(), pgID)
	return len(msgs)
}

// fakeGenerator answers with a fixed reply or error and records prompts.
type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, _, userPrompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, userPrompt)
	return g.reply, g.err
}

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]any
}

func (n *recordingNotifier) Notify(sessionID string, event any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = make(map[string][]any)
	}
	n.events[sessionID] = append(n.events[sessionID], event)
}

// blockingGenerator parks every call until release is closed.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *blockingGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return "done", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
