package worker

// Background goroutine that periodically sweeps the outbox for pending rows
// whose retry time has arrived and re-enqueues them. It is the crash-recovery
// half of the outbox pattern: a status change whose post-commit enqueue was
// lost (process died, Redis blinked) is picked up here on the next tick.

import (
	"context"
	"time"

	"quotepilot/internal/infra"
	"quotepilot/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	relayTickInterval = 30 * time.Second
	relayBatchSize    = 10
)

// OutboxRelay sweeps due outbox rows into the email queue.
type OutboxRelay struct {
	outbox     repository.OutboxRepository
	dispatcher *Dispatcher
	cb         *infra.CircuitBreaker
}

func NewOutboxRelay(outbox repository.OutboxRepository, dispatcher *Dispatcher, cb *infra.CircuitBreaker) *OutboxRelay {
	return &OutboxRelay{outbox: outbox, dispatcher: dispatcher, cb: cb}
}

// Start launches the relay goroutine. It respects ctx for graceful shutdown.
func (r *OutboxRelay) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(relayTickInterval)
		defer ticker.Stop()

		log.Info().Msg("outbox_relay: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("outbox_relay: shutting down")
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

func (r *OutboxRelay) tick(ctx context.Context) {
	// If the SMTP breaker is open, enqueueing would only burn attempts.
	if r.cb.State() == infra.CBOpen {
		log.Debug().Msg("outbox_relay: circuit breaker is open, skipping tick")
		return
	}

	rows, err := r.outbox.ListDue(ctx, time.Now(), relayBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("outbox_relay: failed to query due rows")
		return
	}
	if len(rows) == 0 {
		return
	}

	log.Info().Int("count", len(rows)).Msg("outbox_relay: enqueueing due outbox rows")
	for i := range rows {
		if err := r.dispatcher.EnqueueEmail(ctx, rows[i].ID); err != nil {
			log.Error().Err(err).Str("outbox_id", rows[i].ID.String()).Msg("outbox_relay: enqueue failed")
		}
	}
}
