package worker

// Inbox polling loop. One watcher runs per quote request: it reads unread
// mail on an interval, correlates senders against the addresses the RFQs
// were sent to, extracts offers, and persists them idempotently. The loop is
// sequential within a cycle and never aborts on transport errors — it backs
// off for one interval and tries again until the duration budget expires.

import (
	"context"
	"encoding/json"
	"net/mail"
	"strings"
	"time"

	"quotepilot/internal/infra"
	"quotepilot/internal/mailparse"
	"quotepilot/internal/model"
	"quotepilot/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Mailbox is the inbound mail capability the watcher depends on.
// infra.IMAPMailbox satisfies it.
type Mailbox interface {
	Unread(ctx context.Context) ([]infra.InboundMessage, error)
	MarkSeen(ctx context.Context, messageID string) error
}

// SupplierRef identifies one contacted supplier by its derived reply address.
type SupplierRef struct {
	ID   uuid.UUID
	Name string
}

// InboxWatcher polls for replies to one quote request.
type InboxWatcher struct {
	mailbox  Mailbox
	offers   repository.OfferRepository
	review   *ReviewQueue
	interval time.Duration

	requestID uuid.UUID
	spec      string
	expected  map[string]SupplierRef // normalized address → supplier
}

func NewInboxWatcher(
	mailbox Mailbox,
	offers repository.OfferRepository,
	review *ReviewQueue,
	interval time.Duration,
	requestID uuid.UUID,
	spec string,
	expected map[string]SupplierRef,
) *InboxWatcher {
	return &InboxWatcher{
		mailbox:   mailbox,
		offers:    offers,
		review:    review,
		interval:  interval,
		requestID: requestID,
		spec:      spec,
		expected:  expected,
	}
}

// Run polls until the duration budget expires or ctx is cancelled, returning
// the number of offers persisted. Message ids seen within this run are
// skipped in later cycles; across restarts the unique index on
// offers.message_id keeps persistence idempotent.
func (w *InboxWatcher) Run(ctx context.Context, budget time.Duration) int {
	deadline := time.Now().Add(budget)
	processed := make(map[string]struct{})
	collected := 0

	log.Info().
		Str("request_id", w.requestID.String()).
		Str("spec", w.spec).
		Dur("budget", budget).
		Msg("inbox_watcher: started")

	for {
		collected += w.cycle(ctx, processed)

		if time.Now().Add(w.interval).After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			log.Info().Str("request_id", w.requestID.String()).Msg("inbox_watcher: cancelled")
			return collected
		case <-time.After(w.interval):
		}
	}

	log.Info().
		Str("request_id", w.requestID.String()).
		Int("offers", collected).
		Msg("inbox_watcher: budget exhausted")
	return collected
}

// cycle processes one poll pass and returns the offers persisted in it.
// Transport errors are absorbed: the caller simply waits out the interval.
func (w *InboxWatcher) cycle(ctx context.Context, processed map[string]struct{}) int {
	msgs, err := w.mailbox.Unread(ctx)
	if err != nil {
		log.Error().Err(err).Str("request_id", w.requestID.String()).Msg("inbox_watcher: poll failed, backing off")
		return 0
	}

	collected := 0
	for _, msg := range msgs {
		if _, seen := processed[msg.ID]; seen {
			continue
		}
		processed[msg.ID] = struct{}{}

		ref, ok := w.correlate(msg.Sender)
		if !ok {
			// Not from a contacted supplier. Queue for manual review rather
			// than discarding silently, then mark read so it is not refetched.
			w.review.Push(ctx, msg)
			w.markSeen(ctx, msg.ID)
			continue
		}

		frag := mailparse.Extract(msg.Raw)
		if frag.Price == nil {
			log.Info().
				Str("message_id", msg.ID).
				Str("supplier", ref.Name).
				Msg("inbox_watcher: no price extracted, skipping persistence")
			w.markSeen(ctx, msg.ID)
			continue
		}

		supplierID := ref.ID
		offer := &model.Offer{
			QuoteRequestID: w.requestID,
			SupplierID:     &supplierID,
			SupplierName:   ref.Name,
			SupplierEmail:  normalizeAddress(msg.Sender),
			Spec:           w.spec,
			MessageID:      msg.ID,
			Price:          frag.Price,
			Currency:       frag.Currency,
			LeadTime:       frag.LeadTime,
			LeadTimeUnit:   frag.LeadTimeUnit,
			Status:         model.StatusOpen,
			RawBody:        frag.Body,
		}
		created, err := w.offers.CreateIdempotent(ctx, offer)
		if err != nil {
			// Fatal for this message only. Removing it from the in-run set
			// leaves the message unread so a later cycle retries the write.
			log.Error().Err(err).Str("message_id", msg.ID).Msg("inbox_watcher: failed to persist offer")
			delete(processed, msg.ID)
			continue
		}
		if created {
			collected++
			log.Info().
				Str("offer_id", offer.ID.String()).
				Str("supplier", ref.Name).
				Str("price", frag.Price.StringFixed(2)).
				Msg("inbox_watcher: offer stored")
		}
		w.markSeen(ctx, msg.ID)
	}
	return collected
}

// correlate matches the sender against contacted suppliers. Matching is exact
// on the normalized address part — substring heuristics can attribute a reply
// to the wrong supplier when names overlap.
func (w *InboxWatcher) correlate(sender string) (SupplierRef, bool) {
	ref, ok := w.expected[normalizeAddress(sender)]
	return ref, ok
}

func (w *InboxWatcher) markSeen(ctx context.Context, id string) {
	if err := w.mailbox.MarkSeen(ctx, id); err != nil {
		log.Warn().Err(err).Str("message_id", id).Msg("inbox_watcher: failed to mark read")
	}
}

// normalizeAddress extracts the lower-cased addr-spec from a From value that
// may carry a display name ("Acme Sales <sales@acme.example>").
func normalizeAddress(sender string) string {
	if addr, err := mail.ParseAddress(sender); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.TrimSpace(sender))
}

// ── Manual review queue ───────────────────────────────────────────────────

const (
	reviewQueueKey = "review:unmatched"
	reviewQueueCap = 1000
)

// ReviewQueue holds uncorrelated inbound messages in a capped Redis list so
// an operator can inspect them instead of losing them.
type ReviewQueue struct {
	rdb *redis.Client
}

func NewReviewQueue(rdb *redis.Client) *ReviewQueue {
	return &ReviewQueue{rdb: rdb}
}

func (q *ReviewQueue) Push(ctx context.Context, msg infra.InboundMessage) {
	if q == nil || q.rdb == nil {
		return
	}
	entry, err := json.Marshal(map[string]string{
		"message_id": msg.ID,
		"sender":     msg.Sender,
		"subject":    msg.Subject,
		"seen_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	pipe := q.rdb.Pipeline()
	pipe.LPush(ctx, reviewQueueKey, entry)
	pipe.LTrim(ctx, reviewQueueKey, 0, reviewQueueCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("sender", msg.Sender).Msg("review queue push failed")
		return
	}
	log.Info().Str("sender", msg.Sender).Msg("uncorrelated message queued for review")
}
