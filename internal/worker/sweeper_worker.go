package worker

import (
	"context"
	"time"

	"github.com/rajisurvase/village-orbit-api/internal/repository"
	"github.com/rajisurvase/village-orbit-api/internal/service"
	"github.com/rs/zerolog"
)

// SweeperWorker is the server-side deadline authority. Clients persist
// countdown checkpoints while they run; this worker sweeps for attempts
// whose derived remaining time has run out and force-submits them, so an
// attempt ends on time even when its browser is long gone.
type SweeperWorker struct {
	attemptRepo    *repository.AttemptRepository
	attemptService *service.AttemptService
	interval       time.Duration
	// grace is added on top of the derived deadline so a checkpoint in
	// flight does not lose the race against the sweep.
	grace time.Duration
	log   zerolog.Logger
}

// NewSweeperWorker creates a new SweeperWorker.
func NewSweeperWorker(
	attemptRepo *repository.AttemptRepository,
	attemptService *service.AttemptService,
	interval time.Duration,
	grace time.Duration,
	log zerolog.Logger,
) *SweeperWorker {
	return &SweeperWorker{
		attemptRepo:    attemptRepo,
		attemptService: attemptService,
		interval:       interval,
		grace:          grace,
		log:            log.With().Str("component", "sweeper_worker").Logger(),
	}
}

// Start begins the periodic sweep loop. Call in a goroutine.
func (w *SweeperWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweeperWorker) sweep(ctx context.Context) {
	expired, err := w.attemptRepo.ListExpired(ctx, w.grace)
	if err != nil {
		w.log.Error().Err(err).Msg("Expired attempt query failed")
		return
	}
	if len(expired) == 0 {
		return
	}

	w.log.Info().Int("count", len(expired)).Msg("Force-submitting expired attempts")
	w.attemptService.SubmitExpired(ctx, expired)
}
