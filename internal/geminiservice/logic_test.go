package geminiservice

import (
	"context"
	"errors"
	"strings"
	"testing"

	"HealthBuddy/internal/chat"
	"HealthBuddy/internal/healthcalc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	reply  string
	err    error
	system string
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.system, s.prompt = systemPrompt, userPrompt
	return s.reply, s.err
}

func TestBuildWeeklyPlanPrompt(t *testing.T) {
	p := healthcalc.DefaultProfile()
	p.CurrentWeek = 4
	p.Goal = healthcalc.GoalMuscleGain
	p.Difficulty = healthcalc.DifficultyAdvanced
	p.DietType = healthcalc.DietVegan
	p.Allergies = []string{"Nuts", "Soy"}

	prompt := BuildWeeklyPlanPrompt(p)

	assert.Contains(t, prompt, "**Week 4**")
	assert.Contains(t, prompt, "week 3 and are now progressing to week 4")
	assert.Contains(t, prompt, "goal: Muscle Gain, difficulty: Advanced, activity level: Sedentary")
	assert.Contains(t, prompt, "dietary preference: Vegan. Avoid: Nuts, Soy.")
}

func TestBuildWeeklyPlanPromptFirstWeek(t *testing.T) {
	prompt := BuildWeeklyPlanPrompt(healthcalc.DefaultProfile())

	assert.Contains(t, prompt, "**Week 1**")
	assert.Contains(t, prompt, firstWeekLine)
	assert.NotContains(t, prompt, "week 0")
	assert.Contains(t, prompt, "Avoid: None.")
}

func TestBuildChatPromptEmbedsTranscriptInOrder(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.RoleUser, Content: "Can I swap rice for quinoa?"},
		{Role: chat.RoleAssistant, Content: "Yes, quinoa works well."},
		{Role: chat.RoleUser, Content: "How much protein?"},
	}

	prompt := BuildChatPrompt(healthcalc.DefaultProfile(), history, "How much protein?")

	assert.Contains(t, prompt, "- Age: 25, Gender: Male, Height: 170 cm, Weight: 70 kg")
	first := strings.Index(prompt, "user: Can I swap rice")
	second := strings.Index(prompt, "assistant: Yes, quinoa")
	third := strings.Index(prompt, "user: How much protein?")
	require.True(t, first >= 0 && second > first && third > second)
	assert.Contains(t, prompt, `Now answer this message: "How much protein?"`)
}

func TestGenerateWeeklyPlan(t *testing.T) {
	gen := &stubGenerator{reply: "| Day | Breakfast |"}
	plan, err := GenerateWeeklyPlan(context.Background(), gen, healthcalc.DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, "| Day | Breakfast |", plan)
	assert.Equal(t, PlannerSystemPrompt, gen.system)

	gen = &stubGenerator{err: errors.New("quota exceeded")}
	_, err = GenerateWeeklyPlan(context.Background(), gen, healthcalc.DefaultProfile())
	assert.EqualError(t, err, "quota exceeded")
}

func TestAssistantReplyFailureBecomesErrorText(t *testing.T) {
	gen := &stubGenerator{err: errors.New("network down")}
	reply := AssistantReply(context.Background(), gen, healthcalc.DefaultProfile(), nil, "hi")

	assert.Equal(t, "❌ Gemini Error: network down", reply)
	assert.True(t, IsErrorText(reply))

	gen = &stubGenerator{reply: "  "}
	reply = AssistantReply(context.Background(), gen, healthcalc.DefaultProfile(), nil, "hi")
	assert.True(t, IsErrorText(reply))

	gen = &stubGenerator{reply: "Stay hydrated 💧"}
	reply = AssistantReply(context.Background(), gen, healthcalc.DefaultProfile(), nil, "hi")
	assert.Equal(t, "Stay hydrated 💧", reply)
	assert.Equal(t, CoachSystemPrompt, gen.system)
}
