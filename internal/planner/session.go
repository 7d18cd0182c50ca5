/*
Package planner owns the server-side state of a planning session: the user's
profile, the chat transcript and the generated weekly plans, keyed by session id.
*/
package planner

import (
	"errors"
	"sync"
	"time"

	"HealthBuddy/internal/chat"
	"HealthBuddy/internal/healthcalc"
)

var (
	ErrSessionNotFound = errors.New("planner session not found or expired")
	ErrPlanNotFound    = errors.New("weekly plan not found")
)

// Session is the live state of one planner session. turnMu serializes chat
// exchanges so the transcript order matches the order replies were produced in;
// mu guards the fields below and is never held across a model call.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time // guarded by mu

	turnMu     sync.Mutex
	mu         sync.Mutex
	profile    healthcalc.UserProfile
	transcript *chat.Transcript
}

func newSession(id string, p healthcalc.UserProfile, createdAt, expiresAt time.Time, turns []chat.Turn) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
		profile:    p,
		transcript: chat.NewTranscript(turns...),
	}
}

// Profile returns a copy of the current profile.
func (s *Session) Profile() healthcalc.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile
	p.Allergies = append([]string(nil), s.profile.Allergies...)
	return p
}

// Transcript returns a copy of every chat turn.
func (s *Session) Transcript() []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Turns()
}

// RecentTurns returns a copy of the last n chat turns.
func (s *Session) RecentTurns(n int) []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Recent(n)
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !now.Before(s.ExpiresAt)
}

// View is the JSON form of a session.
type View struct {
	SessionID string                 `json:"session_id"`
	Profile   healthcalc.UserProfile `json:"profile"`
	Turns     int                    `json:"turns"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// View snapshots the session for responses.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		SessionID: s.ID,
		Profile:   s.profile,
		Turns:     s.transcript.Len(),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// WeeklyPlan is a generated plan for one week of the program.
type WeeklyPlan struct {
	Week        int                    `json:"week"`
	Content     string                 `json:"content"`
	Model       string                 `json:"model,omitempty"`
	Profile     healthcalc.UserProfile `json:"profile"`
	GeneratedAt time.Time              `json:"generated_at"`
}
