/*
Package dashboard exposes the planner over HTTP: profile and metrics, weekly plan
generation, the coach chat (JSON and WebSocket) and the aggregate dashboard view.
*/
package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"HealthBuddy/internal/auth"
	"HealthBuddy/internal/chat"
	"HealthBuddy/internal/geminiservice"
	"HealthBuddy/internal/healthcalc"
	"HealthBuddy/internal/planner"
	"HealthBuddy/internal/utility"
	"github.com/labstack/echo/v4"
)

var (
	service *planner.Service
	tokens  *auth.Manager
	hub     *utility.Hub

	// StartTime is reported as the process uptime by GetServerHealthHandler.
	StartTime = time.Now()
)

// InitDashboardPackage wires the handlers to their collaborators.
func InitDashboardPackage(svc *planner.Service, manager *auth.Manager, h *utility.Hub) {
	service = svc
	tokens = manager
	hub = h
}

type SessionResponse struct {
	SessionID string                 `json:"session_id"`
	Token     string                 `json:"token"`
	TokenType string                 `json:"token_type"`
	ExpiresAt time.Time              `json:"expires_at"`
	Profile   healthcalc.UserProfile `json:"profile"`
	Metrics   healthcalc.Snapshot    `json:"metrics"`
}

type ProfileResponse struct {
	Session planner.View        `json:"session"`
	Metrics healthcalc.Snapshot `json:"metrics"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type OptionsResponse struct {
	Genders        []healthcalc.Gender        `json:"genders"`
	ActivityLevels []healthcalc.ActivityLevel `json:"activity_levels"`
	Goals          []healthcalc.Goal          `json:"goals"`
	DietTypes      []healthcalc.DietType      `json:"diet_types"`
	Difficulties   []healthcalc.Difficulty    `json:"difficulties"`
	Allergies      []string                   `json:"allergies"`
	Ranges         map[string][2]int          `json:"ranges"`
	Defaults       healthcalc.UserProfile     `json:"defaults"`
}

/* =================================================================================
								PUBLIC HANDLERS
=================================================================================*/

// GetOptionsHandler lists every accepted profile value.
func GetOptionsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, OptionsResponse{
		Genders:        healthcalc.Genders,
		ActivityLevels: healthcalc.ActivityLevels,
		Goals:          healthcalc.Goals,
		DietTypes:      healthcalc.DietTypes,
		Difficulties:   healthcalc.Difficulties,
		Allergies:      healthcalc.Allergies,
		Ranges: map[string][2]int{
			"age":          {healthcalc.MinAge, healthcalc.MaxAge},
			"height_cm":    {healthcalc.MinHeightCm, healthcalc.MaxHeightCm},
			"weight_kg":    {healthcalc.MinWeightKg, healthcalc.MaxWeightKg},
			"current_week": {healthcalc.MinWeek, healthcalc.MaxWeek},
		},
		Defaults: healthcalc.DefaultProfile(),
	})
}

// CalculateMetricsHandler computes a snapshot without opening a session.
func CalculateMetricsHandler(c echo.Context) error {
	p, err := bindProfile(c, healthcalc.DefaultProfile())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid input"})
	}

	snap, err := healthcalc.Compute(p.Normalized())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// CreateSessionHandler opens a planner session and returns its token.
func CreateSessionHandler(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := bindProfile(c, healthcalc.DefaultProfile())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid input"})
	}

	sess, snap, err := service.CreateSession(ctx, p)
	if err != nil {
		return writeError(c, err)
	}

	token, expires, err := tokens.GenerateSessionToken(sess.ID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, SessionResponse{
		SessionID: sess.ID,
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expires,
		Profile:   sess.Profile(),
		Metrics:   snap,
	})
}

/* =================================================================================
								SESSION HANDLERS
=================================================================================*/

func GetProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	sess, err := service.Get(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	snap, err := healthcalc.Compute(sess.Profile())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ProfileResponse{Session: sess.View(), Metrics: snap})
}

// UpdateProfileHandler merges the request body over the current profile, so
// omitted fields keep their values.
func UpdateProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	sess, err := service.Get(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}

	p, err := bindProfile(c, sess.Profile())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid input"})
	}

	view, snap, err := service.UpdateProfile(ctx, sessionID, p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ProfileResponse{Session: view, Metrics: snap})
}

func GetMetricsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	snap, err := service.Metrics(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// GeneratePlanHandler generates and stores the plan of the current week. A failed
// generation answers 502 with the error text shown to the user.
func GeneratePlanHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	plan, err := service.GeneratePlan(ctx, sessionID)
	var genErr *planner.GenerationError
	if errors.As(err, &genErr) {
		utility.LoggerFromContext(c).Error().Err(err).Msg("GeneratePlanHandler: generation failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": geminiservice.UserFacingError(genErr.Err)})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, plan)
}

func ListPlansHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	plans, err := service.ListPlans(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"plans": plans})
}

func GetPlanHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < healthcalc.MinWeek || week > healthcalc.MaxWeek {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "week must be between 1 and 52"})
	}

	plan, err := service.GetPlan(ctx, sessionID, week)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

// SendChatHandler answers one chat message. A failed generation still answers
// 200: the error text is the recorded assistant turn and failed is set.
func SendChatHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid input"})
	}

	exchange, err := service.Chat(ctx, sessionID, req.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, exchange)
}

func GetChatHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	turns, err := service.Transcript(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"turns": turns})
}

func ClearChatHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	if err := service.ClearChat(ctx, sessionID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func DashboardHandler(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID, err := utility.GetSessionIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	dash, err := service.Dashboard(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dash)
}

/* =================================================================================
								HELPERS
=================================================================================*/

// bindProfile decodes the body over base, so omitted fields keep base's values.
func bindProfile(c echo.Context, base healthcalc.UserProfile) (healthcalc.UserProfile, error) {
	p := base
	if err := c.Bind(&p); err != nil {
		return healthcalc.UserProfile{}, err
	}
	return p, nil
}

func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, healthcalc.ErrInvalidProfile):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, chat.ErrEmptyMessage):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Message must not be empty"})
	case errors.Is(err, planner.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found or expired"})
	case errors.Is(err, planner.ErrPlanNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "No plan generated for this week yet"})
	default:
		utility.LoggerFromContext(c).Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
