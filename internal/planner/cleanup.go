package planner

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCleanupInterval is how often expired sessions are purged.
const DefaultCleanupInterval = time.Hour

// StartSessionCleanup removes expired sessions every interval until ctx is done.
func StartSessionCleanup(ctx context.Context, store *Store, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCleanup(ctx, store)
			}
		}
	}()
}

func runCleanup(ctx context.Context, store *Store) {
	log.Info().Msg("Scheduled session cleanup starting...")
	n, err := store.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled session cleanup failed")
		return
	}
	log.Info().Int64("removed", n).Msg("Scheduled session cleanup finished")
}
