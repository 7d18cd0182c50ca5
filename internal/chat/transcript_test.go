package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptPreservesOrder(t *testing.T) {
	tr := NewTranscript()
	const n = 12
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		_, err := tr.Append(role, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	require.Equal(t, n, tr.Len())

	lines := strings.Split(tr.String(), "\n")
	require.Len(t, lines, n)
	assert.Equal(t, "user: message 0", lines[0])
	assert.Equal(t, "assistant: message 1", lines[1])
	assert.Equal(t, "assistant: message 11", lines[n-1])

	for i, line := range lines {
		assert.True(t, strings.HasSuffix(line, fmt.Sprintf(": message %d", i)), line)
	}
}

func TestTranscriptRejectsBadTurns(t *testing.T) {
	tr := NewTranscript()

	_, err := tr.Append("system", "hi")
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = tr.Append(RoleUser, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, "", tr.String())
}

func TestTranscriptCopiesAreIndependent(t *testing.T) {
	tr := NewTranscript(Turn{Role: RoleUser, Content: "a"}, Turn{Role: RoleAssistant, Content: "b"})

	turns := tr.Turns()
	turns[0].Content = "changed"
	assert.Equal(t, "a", tr.Turns()[0].Content)

	recent := tr.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].Content)
	assert.Len(t, tr.Recent(0), 2)
	assert.Len(t, tr.Recent(10), 2)
}

func TestTranscriptReset(t *testing.T) {
	tr := NewTranscript(Turn{Role: RoleUser, Content: "a"})
	tr.Reset()
	assert.Equal(t, 0, tr.Len())

	_, err := tr.Append(RoleUser, "again")
	require.NoError(t, err)
	assert.Equal(t, "user: again", tr.String())
}
