// Package chat holds the ordered user/assistant transcript of a planner session.
package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	ErrUnknownRole  = errors.New("unknown chat role")
	ErrEmptyMessage = errors.New("empty chat message")
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message of a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is an append-only, ordered list of turns. It is not safe for
// concurrent use; the owning session serializes access.
type Transcript struct {
	turns []Turn
}

// NewTranscript rebuilds a transcript from stored turns, in the given order.
func NewTranscript(turns ...Turn) *Transcript {
	t := &Transcript{turns: make([]Turn, 0, len(turns))}
	t.turns = append(t.turns, turns...)
	return t
}

// NewTurn validates role and content and stamps the turn with the current time.
func NewTurn(role Role, content string) (Turn, error) {
	if !role.Valid() {
		return Turn{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if strings.TrimSpace(content) == "" {
		return Turn{}, ErrEmptyMessage
	}
	return Turn{Role: role, Content: content, CreatedAt: time.Now().UTC()}, nil
}

// Append adds a new turn at the end of the transcript.
func (t *Transcript) Append(role Role, content string) (Turn, error) {
	turn, err := NewTurn(role, content)
	if err != nil {
		return Turn{}, err
	}
	t.turns = append(t.turns, turn)
	return turn, nil
}

// AppendTurn adds an already built turn, keeping its timestamp.
func (t *Transcript) AppendTurn(turn Turn) error {
	if _, err := NewTurn(turn.Role, turn.Content); err != nil {
		return err
	}
	t.turns = append(t.turns, turn)
	return nil
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of every turn in order.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Recent returns a copy of the last n turns. n <= 0 returns all of them.
func (t *Transcript) Recent(n int) []Turn {
	if n <= 0 || n >= len(t.turns) {
		return t.Turns()
	}
	out := make([]Turn, n)
	copy(out, t.turns[len(t.turns)-n:])
	return out
}

// Reset drops every turn.
func (t *Transcript) Reset() {
	t.turns = t.turns[:0]
}

// String serializes the transcript as "role: content" lines, oldest first.
func (t *Transcript) String() string {
	return Format(t.turns)
}

// Format serializes turns as "role: content" lines joined by newlines.
func Format(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return strings.Join(lines, "\n")
}
