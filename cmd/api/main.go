package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"HealthBuddy/internal/auth"
	"HealthBuddy/internal/database"
	"HealthBuddy/internal/geminiservice"
	"HealthBuddy/internal/planner"
	"HealthBuddy/internal/server"
	"HealthBuddy/internal/utility"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func gracefulShutdown(apiServer *http.Server, stopJobs context.CancelFunc, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown
	stopJobs()

	// The server has 5 seconds to finish the requests it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
	done <- true
}

func main() {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	jobsCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()

	sessionTTL := envDuration("SESSION_TTL", planner.DefaultSessionTTL)

	var (
		repo      planner.Repository
		dbService database.Service
	)
	if os.Getenv("BLUEPRINT_DB_HOST") == "" {
		log.Warn().Msg("BLUEPRINT_DB_HOST not set, sessions are kept in memory only")
		repo = planner.NewMemoryRepository()
	} else {
		dbService, err = database.NewService(jobsCtx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to the database")
		}
		defer dbService.Close()

		if err := dbService.Migrate(jobsCtx); err != nil {
			log.Fatal().Err(err).Msg("could not apply the database schema")
		}
		repo = dbService.Queries()
	}

	gemini := geminiservice.NewClientFromEnv()
	if !gemini.Configured() {
		// Chat answers and plan requests report the missing key to the user.
		log.Warn().Msg("GEMINI_API_KEY not set, model calls will fail")
	}

	tokens, err := auth.NewManagerFromEnv(sessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize session tokens")
	}

	limiter, err := utility.NewIPRateLimiter(
		envFloat("RATE_LIMIT_RPS", 1),
		envInt("RATE_LIMIT_BURST", 5),
		envInt("RATE_LIMIT_CLIENTS", 4096),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize the rate limiter")
	}

	hub := utility.NewHub()
	store := planner.NewStore(repo, envInt("SESSION_CACHE_SIZE", planner.DefaultCacheSize), sessionTTL)
	plannerService := planner.NewService(store, gemini, gemini.Model(), hub)

	planner.StartSessionCleanup(jobsCtx, store, envDuration("SESSION_CLEANUP_INTERVAL", planner.DefaultCleanupInterval))

	apiServer := server.NewServer(server.Deps{
		DB:      dbService,
		Planner: plannerService,
		Tokens:  tokens,
		Hub:     hub,
		Limiter: limiter,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, stopJobs, done)

	log.Info().Str("addr", apiServer.Addr).Msg("HealthBuddy API listening")
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server error")
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
