package database

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schemaSQL string

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Migrate applies the embedded schema. It is idempotent.
	Migrate(ctx context.Context) error

	// Close terminates the database connection.
	Close()

	Queries() *Queries
}

type service struct {
	pool *pgxpool.Pool
	q    *Queries
}

// Queries implements Service.
func (s *service) Queries() *Queries {
	return s.q
}

var (
	database   = os.Getenv("BLUEPRINT_DB_DATABASE")
	password   = os.Getenv("BLUEPRINT_DB_PASSWORD")
	username   = os.Getenv("BLUEPRINT_DB_USERNAME")
	port       = os.Getenv("BLUEPRINT_DB_PORT")
	host       = os.Getenv("BLUEPRINT_DB_HOST")
	schema     = os.Getenv("BLUEPRINT_DB_SCHEMA")
	dbInstance *service
)

// NewService opens the connection pool once and reuses it on later calls.
func NewService(ctx context.Context) (Service, error) {
	if dbInstance != nil {
		return dbInstance, nil
	}

	pool, err := pgxpool.New(ctx, connString(username, password, host, port, database, schema))
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	dbInstance = &service{
		pool: pool,
		q:    New(pool),
	}
	return dbInstance, nil
}

func connString(user, pass, host, port, db, schema string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, pass),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + db,
	}
	q := url.Values{"sslmode": {"disable"}}
	if schema != "" {
		q.Set("search_path", schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Migrate creates the tables the planner needs.
func (s *service) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Info().Msg("Database schema is up to date")
	return nil
}

// Health checks the health of the database connection.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Error().Err(err).Msg("db down")
		return stats
	}

	// Ping only proves a connection; run a query through the generated layer too.
	if err := checkQuery(ctx, s.q); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db query failed: %v", err)
		log.Error().Err(err).Msg("db status query failed")
		return stats
	}

	poolStats := s.pool.Stat()
	stats["status"] = "up"
	stats["total_conns"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["idle_conns"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["acquired_conns"] = strconv.Itoa(int(poolStats.AcquiredConns()))
	stats["max_conns"] = strconv.Itoa(int(poolStats.MaxConns()))
	stats["acquire_count"] = strconv.FormatInt(poolStats.AcquireCount(), 10)
	stats["acquire_duration_ms"] = strconv.FormatInt(poolStats.AcquireDuration().Milliseconds(), 10)
	stats["empty_acquire_count"] = strconv.FormatInt(poolStats.EmptyAcquireCount(), 10)
	stats["canceled_acquire_count"] = strconv.FormatInt(poolStats.CanceledAcquireCount(), 10)

	if poolStats.AcquiredConns() > (poolStats.MaxConns() * 8 / 10) { // 80% capacity
		stats["message"] = "The database connection pool is experiencing heavy load."
	}
	if poolStats.EmptyAcquireCount() > 0 {
		stats["message"] = "The application has tried to acquire a connection from an empty pool. Consider increasing max connections."
	}

	return stats
}

func checkQuery(ctx context.Context, q *Queries) error {
	v, err := q.GetDatabaseStatus(ctx)
	if err != nil {
		return err
	}
	if v != 1 {
		return fmt.Errorf("unexpected status value %d", v)
	}
	return nil
}

// Close closes the database connection.
func (s *service) Close() {
	log.Info().Msgf("Disconnected from database: %s", database)
	s.pool.Close()
}
