package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quotepilot/internal/dto"
	"quotepilot/internal/model"
	"quotepilot/internal/repository"
	"quotepilot/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Acceptance threshold: an offer at or below 95% of the list price is taken.
// The counter discount is the same 5%, applied to the supplier's CURRENT
// price each round — geometric decay, not linear decay from the original.
var discountFactor = decimal.NewFromFloat(0.95)

// Phrases that mark a reply as the supplier's last word. Matched
// case-insensitively anywhere in the text.
var finalPhrases = []string{"final offer", "best price", "cannot go lower"}

var (
	// ErrNoPrice means the offer has no extracted price to evaluate.
	ErrNoPrice = errors.New("offer has no price to evaluate")
	// ErrTerminalStatus means the offer already reached ordered or needs_user.
	ErrTerminalStatus = errors.New("offer is in a terminal status")
)

// PORenderer renders a purchase-order document and returns its file path.
// infra.PDFGenerator satisfies it (via the poRenderer adapter in the router).
type PORenderer interface {
	Render(number, supplierName, spec string, price decimal.Decimal, currency string, leadTime string) (string, error)
}

type NegotiationService interface {
	// Evaluate runs one pass of the accept / counter / escalate decision for
	// an open offer against its quote request's list price.
	Evaluate(ctx context.Context, offerID uuid.UUID) (*dto.EvaluationResult, error)
	// RecordSupplierReply classifies a free-text supplier reply: final-word
	// phrases freeze the offer as final, anything else reopens it for the
	// next evaluation.
	RecordSupplierReply(ctx context.Context, offerID uuid.UUID, replyText string) (model.OfferStatus, error)
}

type negotiationService struct {
	offers     repository.OfferRepository
	requests   repository.QuoteRequestRepository
	dispatcher *worker.Dispatcher
	po         PORenderer
}

func NewNegotiationService(
	offers repository.OfferRepository,
	requests repository.QuoteRequestRepository,
	dispatcher *worker.Dispatcher,
	po PORenderer,
) NegotiationService {
	return &negotiationService{offers: offers, requests: requests, dispatcher: dispatcher, po: po}
}

func (s *negotiationService) Evaluate(ctx context.Context, offerID uuid.UUID) (*dto.EvaluationResult, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status.Terminal() || offer.Status == model.StatusFinal {
		return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, offer.Status)
	}
	if offer.Price == nil {
		return nil, ErrNoPrice
	}

	req, err := s.requests.FindByID(ctx, offer.QuoteRequestID)
	if err != nil {
		return nil, fmt.Errorf("load quote request: %w", err)
	}

	price := *offer.Price
	// The target never shifts as rounds progress — it is fixed against the
	// list price for the life of the offer.
	target := req.ListPrice.Mul(discountFactor)

	switch {
	case price.LessThanOrEqual(target):
		return s.accept(ctx, offer)
	case offer.CounterRound >= model.MaxCounterRounds:
		return s.escalate(ctx, offer)
	default:
		return s.counter(ctx, offer, price)
	}
}

// accept transitions to ordered and, in the same transaction, records the
// purchase order and queues the PO email with the rendered PDF attached.
func (s *negotiationService) accept(ctx context.Context, offer *model.Offer) (*dto.EvaluationResult, error) {
	number, err := s.nextPONumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("assign po number: %w", err)
	}

	currency := currencyOf(offer)
	pdfPath, err := s.po.Render(number, offer.SupplierName, offer.Spec, *offer.Price, currency, leadTimeOf(offer))
	if err != nil {
		// The PO can still go out without the attachment; log and continue.
		log.Error().Err(err).Str("po_number", number).Msg("negotiation: PO PDF render failed")
		pdfPath = ""
	}

	po := &model.PurchaseOrder{
		OfferID: offer.ID,
		Number:  number,
		Price:   *offer.Price,
	}
	outbox := &model.OutboxMessage{
		OfferID: &offer.ID,
		Kind:    model.OutboxKindPurchaseOrder,
		ToEmail: offer.SupplierEmail,
		Subject: purchaseOrderSubject(number),
		Body:    purchaseOrderBody(number, offer.Spec, currency, *offer.Price),
	}
	if pdfPath != "" {
		po.PDFPath = &pdfPath
		outbox.AttachmentPath = &pdfPath
	}

	updates := map[string]interface{}{"status": model.StatusOrdered}
	if err := s.offers.Transition(ctx, offer.ID, updates, outbox, po); err != nil {
		return nil, fmt.Errorf("commit acceptance: %w", err)
	}
	s.enqueue(ctx, outbox.ID)

	log.Info().
		Str("offer_id", offer.ID.String()).
		Str("po_number", number).
		Str("price", offer.Price.StringFixed(2)).
		Msg("negotiation: offer accepted")

	return &dto.EvaluationResult{
		OfferID:      offer.ID.String(),
		Status:       string(model.StatusOrdered),
		CounterRound: offer.CounterRound,
		PONumber:     &number,
	}, nil
}

// escalate hands the offer to a human once the round budget is spent.
func (s *negotiationService) escalate(ctx context.Context, offer *model.Offer) (*dto.EvaluationResult, error) {
	updates := map[string]interface{}{"status": model.StatusNeedsUser}
	if err := s.offers.Transition(ctx, offer.ID, updates, nil, nil); err != nil {
		return nil, fmt.Errorf("commit escalation: %w", err)
	}

	log.Info().
		Str("offer_id", offer.ID.String()).
		Int("counter_round", offer.CounterRound).
		Msg("negotiation: escalated to user")

	return &dto.EvaluationResult{
		OfferID:      offer.ID.String(),
		Status:       string(model.StatusNeedsUser),
		CounterRound: offer.CounterRound,
	}, nil
}

// counter proposes 5% below the supplier's current price. Status, round, and
// counter price commit together with the outbound counter email.
func (s *negotiationService) counter(ctx context.Context, offer *model.Offer, price decimal.Decimal) (*dto.EvaluationResult, error) {
	counterPrice := price.Mul(discountFactor).Round(2)
	round := offer.CounterRound + 1

	outbox := &model.OutboxMessage{
		OfferID: &offer.ID,
		Kind:    model.OutboxKindCounter,
		ToEmail: offer.SupplierEmail,
		Subject: counterSubject(offer.Spec),
		Body:    counterBody(offer.Spec, currencyOf(offer), counterPrice),
	}
	updates := map[string]interface{}{
		"status":        model.StatusCountered,
		"counter_round": round,
		"counter_price": counterPrice,
	}
	if err := s.offers.Transition(ctx, offer.ID, updates, outbox, nil); err != nil {
		return nil, fmt.Errorf("commit counter: %w", err)
	}
	s.enqueue(ctx, outbox.ID)

	log.Info().
		Str("offer_id", offer.ID.String()).
		Int("counter_round", round).
		Str("counter_price", counterPrice.StringFixed(2)).
		Msg("negotiation: counter-offer sent")

	return &dto.EvaluationResult{
		OfferID:      offer.ID.String(),
		Status:       string(model.StatusCountered),
		CounterRound: round,
		CounterPrice: &counterPrice,
	}, nil
}

func (s *negotiationService) RecordSupplierReply(ctx context.Context, offerID uuid.UUID, replyText string) (model.OfferStatus, error) {
	offer, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return "", err
	}
	// Terminal offers are never reopened by a late reply.
	if offer.Status.Terminal() {
		return offer.Status, nil
	}

	next := model.StatusOpen
	lower := strings.ToLower(replyText)
	for _, phrase := range finalPhrases {
		if strings.Contains(lower, phrase) {
			next = model.StatusFinal
			break
		}
	}

	if err := s.offers.Transition(ctx, offer.ID, map[string]interface{}{"status": next}, nil, nil); err != nil {
		return "", fmt.Errorf("commit reply status: %w", err)
	}

	log.Info().
		Str("offer_id", offer.ID.String()).
		Str("status", string(next)).
		Msg("negotiation: supplier reply recorded")
	return next, nil
}

// nextPONumber assigns PO-YYYYMMDD-NNNN with a per-day sequence.
func (s *negotiationService) nextPONumber(ctx context.Context) (string, error) {
	today := time.Now().Format("2006-01-02")
	n, err := s.offers.CountPurchaseOrdersSince(ctx, today)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%s-%04d", time.Now().Format("20060102"), n+1), nil
}

// enqueue hands the committed outbox row to the worker pool. A failure here
// is tolerable — the outbox relay sweeps pending rows on its next tick.
func (s *negotiationService) enqueue(ctx context.Context, outboxID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.EnqueueEmail(ctx, outboxID); err != nil {
		log.Warn().Err(err).Str("outbox_id", outboxID.String()).Msg("negotiation: enqueue failed, relay will retry")
	}
}

func currencyOf(offer *model.Offer) string {
	if offer.Currency != nil {
		return *offer.Currency
	}
	return ""
}

func leadTimeOf(offer *model.Offer) string {
	if offer.LeadTime == nil || offer.LeadTimeUnit == nil {
		return ""
	}
	unit := *offer.LeadTimeUnit
	if *offer.LeadTime != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", *offer.LeadTime, unit)
}
