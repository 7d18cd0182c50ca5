/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the planner,
session tokens and the database into the router.
*/
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"HealthBuddy/internal/auth"
	"HealthBuddy/internal/database"
	"HealthBuddy/internal/planner"
	"HealthBuddy/internal/utility"
	_ "github.com/joho/godotenv/autoload"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// db is nil when the planner runs on the in-memory repository.
	db database.Service

	planner *planner.Service
	tokens  *auth.Manager
	hub     *utility.Hub
	limiter *utility.IPRateLimiter
}

// Deps are the services the server routes to.
type Deps struct {
	DB      database.Service
	Planner *planner.Service
	Tokens  *auth.Manager
	Hub     *utility.Hub
	Limiter *utility.IPRateLimiter
}

// NewServer returns a configured *http.Server. The port comes from PORT and
// defaults to 8080.
func NewServer(deps Deps) *http.Server {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port == 0 {
		port = 8080
	}

	newApp := &Server{
		port:    port,
		db:      deps.DB,
		planner: deps.Planner,
		tokens:  deps.Tokens,
		hub:     deps.Hub,
		limiter: deps.Limiter,
	}

	return &http.Server{
		Addr:        fmt.Sprintf(":%d", newApp.port),
		Handler:     newApp.RegisterRoutes(),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// Plan generation waits on the model, including its retries.
		WriteTimeout: 3 * time.Minute,
	}
}
