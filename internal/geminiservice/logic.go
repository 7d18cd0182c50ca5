package geminiservice

import (
	"context"
	"fmt"
	"strings"

	"HealthBuddy/internal/chat"
	"HealthBuddy/internal/healthcalc"
	"github.com/rs/zerolog"
)

// ErrorMarker prefixes every generation failure shown to the user.
const ErrorMarker = "❌ Gemini Error: "

// UserFacingError renders a generation failure as the text shown in place of a reply.
func UserFacingError(err error) string {
	return ErrorMarker + err.Error()
}

// IsErrorText reports whether text is a rendered generation failure.
func IsErrorText(text string) bool {
	return strings.HasPrefix(text, ErrorMarker)
}

/*=================================================================================
								PROMPT BUILDERS
=================================================================================*/

// FormatProfileForAI renders the profile as the bullet block shared by all prompts.
func FormatProfileForAI(p healthcalc.UserProfile) string {
	return fmt.Sprintf(
		ProfileBlockTemplate,
		p.Age,
		p.Gender,
		p.HeightCm,
		p.WeightKg,
		p.ActivityLevel,
		p.Goal,
		p.CurrentWeek,
		p.Difficulty,
		p.DietType,
		p.AllergyList(),
	)
}

// BuildWeeklyPlanPrompt embeds the profile and week number into the plan request.
func BuildWeeklyPlanPrompt(p healthcalc.UserProfile) string {
	progression := firstWeekLine
	if p.CurrentWeek > 1 {
		progression = fmt.Sprintf(progressionLine, p.CurrentWeek-1, p.CurrentWeek)
	}

	return fmt.Sprintf(
		WeeklyPlanPromptTemplate,
		p.CurrentWeek,
		progression,
		p.Goal,
		p.Difficulty,
		p.ActivityLevel,
		p.DietType,
		p.AllergyList(),
	)
}

// BuildChatPrompt embeds the profile and the whole transcript, oldest turn first,
// followed by the message being answered.
func BuildChatPrompt(p healthcalc.UserProfile, history []chat.Turn, message string) string {
	return fmt.Sprintf(
		ChatPromptTemplate,
		FormatProfileForAI(p),
		chat.Format(history),
		message,
	)
}

/*=================================================================================
								GENERATION
=================================================================================*/

// GenerateWeeklyPlan asks the model for the markdown plan of the profile's current week.
func GenerateWeeklyPlan(ctx context.Context, gen Generator, p healthcalc.UserProfile) (string, error) {
	log := zerolog.Ctx(ctx)
	log.Info().Int("week", p.CurrentWeek).Msg("Generating weekly plan")

	plan, err := gen.Generate(ctx, PlannerSystemPrompt, BuildWeeklyPlanPrompt(p))
	if err != nil {
		log.Error().Err(err).Int("week", p.CurrentWeek).Msg("Weekly plan generation failed")
		return "", err
	}
	return plan, nil
}

// AssistantReply answers message in the context of the transcript. A failed call is
// returned as error text so the conversation can carry on.
func AssistantReply(ctx context.Context, gen Generator, p healthcalc.UserProfile, history []chat.Turn, message string) string {
	log := zerolog.Ctx(ctx)

	reply, err := gen.Generate(ctx, CoachSystemPrompt, BuildChatPrompt(p, history, message))
	if err != nil {
		log.Error().Err(err).Msg("Assistant reply failed")
		return UserFacingError(err)
	}
	if strings.TrimSpace(reply) == "" {
		return UserFacingError(ErrEmptyResponse)
	}
	return reply
}
