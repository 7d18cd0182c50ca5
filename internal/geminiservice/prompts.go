package geminiservice

// This file stores the prompts sent to Gemini. Templates use fmt.Sprintf verbs and
// are filled by the builders in logic.go.

// PlannerSystemPrompt frames the weekly plan generation.
const PlannerSystemPrompt = `You are a certified Indian dietitian and fitness expert.
You write practical, safe plans and always respect dietary preferences and allergies.`

// CoachSystemPrompt frames the chat assistant.
const CoachSystemPrompt = `You are FitAI, a friendly, expert Indian fitness coach and dietitian. Stay supportive and concise.`

// WeeklyPlanPromptTemplate placeholders, in order: week, progression line, goal,
// difficulty, activity level, diet type, allergies.
const WeeklyPlanPromptTemplate = `
This user is on **Week %d** of their fitness journey.
%s

Generate:
1. A full **7-day Indian diet plan** in table format (Breakfast, Snack, Lunch, Dinner) with dishes, calories and macros.
2. **This week's workout plan** matching their goal: %s, difficulty: %s, activity level: %s.
3. Exercises should feel like an upgrade from the previous week. Focus on progression (more reps, new moves, longer time).
4. Include **rest days**, and split workouts between cardio, strength and flexibility as needed.
5. Respect dietary preference: %s. Avoid: %s.

Only return **clean markdown tables**, one for diet and one for exercise.
`

// ChatPromptTemplate placeholders, in order: profile block, chat history, message.
const ChatPromptTemplate = `
User profile:
%s

Chat history:
%s

Now answer this message: "%s"

Respond with empathy and step-by-step advice if needed. Include emojis for motivation and clarity.
`

// ProfileBlockTemplate placeholders: age, gender, height, weight, activity, goal,
// week, difficulty, diet, allergies.
const ProfileBlockTemplate = `- Age: %d, Gender: %s, Height: %d cm, Weight: %d kg
- Activity: %s, Goal: %s, Week: %d, Difficulty: %s
- Diet: %s, Allergies: %s`

const (
	firstWeekLine   = "This is the first week of their program, so start with a solid foundation."
	progressionLine = "They have completed all recommendations from week %d and are now progressing to week %d."
)
