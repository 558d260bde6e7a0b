package worker

// Delivers outbox rows referenced by email jobs. Sending runs through the
// SMTP circuit breaker; failures schedule a retry with exponential backoff
// and exhausted rows are retired to the DLQ.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quotepilot/internal/infra"
	"quotepilot/internal/model"
	"quotepilot/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxSendAttempts bounds delivery retries per outbox row.
const MaxSendAttempts = 5

// Sender is the outbound mail capability the worker depends on.
// infra.Mailer satisfies it.
type Sender interface {
	Send(to, subject, body, attachmentPath string) error
}

// EmailWorker processes outbox delivery jobs from QueueEmail.
type EmailWorker struct {
	outbox repository.OutboxRepository
	mailer Sender
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewEmailWorker(outbox repository.OutboxRepository, mailer Sender, cb *infra.CircuitBreaker, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{outbox: outbox, mailer: mailer, cb: cb, rdb: rdb}
}

// Process loads the referenced outbox row and attempts delivery. Rows already
// sent are skipped, so duplicate jobs (relay re-enqueue races) are harmless.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}

	row, err := w.outbox.FindByID(ctx, payload.OutboxID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn().Str("outbox_id", payload.OutboxID.String()).Msg("email_worker: outbox row gone — skipping")
			return
		}
		log.Error().Err(err).Str("outbox_id", payload.OutboxID.String()).Msg("email_worker: load failed")
		return
	}
	if row.Status != model.OutboxPending {
		return
	}

	attachment := ""
	if row.AttachmentPath != nil {
		attachment = *row.AttachmentPath
	}

	sendErr := w.cb.Execute(func() error {
		return w.mailer.Send(row.ToEmail, row.Subject, row.Body, attachment)
	})
	if sendErr == nil {
		if err := w.outbox.MarkSent(ctx, row.ID); err != nil {
			log.Error().Err(err).Str("outbox_id", row.ID.String()).Msg("email_worker: sent but failed to mark")
		}
		log.Info().
			Str("outbox_id", row.ID.String()).
			Str("kind", row.Kind).
			Str("to", row.ToEmail).
			Msg("email_worker: delivered")
		return
	}

	attempts := row.Attempts + 1
	if attempts >= MaxSendAttempts {
		if err := w.outbox.MarkFailed(ctx, row.ID, attempts, sendErr.Error()); err != nil {
			log.Error().Err(err).Str("outbox_id", row.ID.String()).Msg("email_worker: failed to retire row")
		}
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw,
			fmt.Sprintf("max send attempts (%d) exceeded: %s", MaxSendAttempts, sendErr), attempts)
		return
	}

	next := time.Now().Add(computeSendBackoff(attempts))
	if err := w.outbox.MarkRetry(ctx, row.ID, attempts, next, sendErr.Error()); err != nil {
		log.Error().Err(err).Str("outbox_id", row.ID.String()).Msg("email_worker: failed to schedule retry")
		return
	}
	log.Warn().
		Str("outbox_id", row.ID.String()).
		Int("attempts", attempts).
		Time("next_retry_at", next).
		Err(sendErr).
		Msg("email_worker: send failed, retry scheduled")
}

// computeSendBackoff doubles per attempt: 30s, 1m, 2m, 4m … capped at 10m.
func computeSendBackoff(attempts int) time.Duration {
	backoff := 30 * time.Second
	for i := 1; i < attempts; i++ {
		backoff *= 2
		if backoff >= 10*time.Minute {
			return 10 * time.Minute
		}
	}
	return backoff
}
