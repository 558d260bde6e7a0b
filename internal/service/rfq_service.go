package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quotepilot/internal/dto"
	"quotepilot/internal/model"
	"quotepilot/internal/repository"
	"quotepilot/internal/worker"

	"github.com/rs/zerolog/log"
)

type RFQService interface {
	// LaunchRFQ records a quote request, queues one RFQ email per supplier,
	// and starts an inbox watcher for the request's replies.
	LaunchRFQ(ctx context.Context, req dto.LaunchRFQRequest) (*dto.LaunchRFQResponse, error)
}

type rfqService struct {
	requests   repository.QuoteRequestRepository
	suppliers  repository.SupplierRepository
	outbox     repository.OutboxRepository
	dispatcher *worker.Dispatcher

	mailbox      worker.Mailbox
	offers       repository.OfferRepository
	review       *worker.ReviewQueue
	mailDomain   string
	pollInterval time.Duration
	pollDuration time.Duration

	// baseCtx bounds background watchers independently of the HTTP request
	// that launched them.
	baseCtx context.Context
}

func NewRFQService(
	baseCtx context.Context,
	requests repository.QuoteRequestRepository,
	suppliers repository.SupplierRepository,
	offers repository.OfferRepository,
	outbox repository.OutboxRepository,
	dispatcher *worker.Dispatcher,
	mailbox worker.Mailbox,
	review *worker.ReviewQueue,
	mailDomain string,
	pollInterval, pollDuration time.Duration,
) RFQService {
	return &rfqService{
		baseCtx:      baseCtx,
		requests:     requests,
		suppliers:    suppliers,
		offers:       offers,
		outbox:       outbox,
		dispatcher:   dispatcher,
		mailbox:      mailbox,
		review:       review,
		mailDomain:   mailDomain,
		pollInterval: pollInterval,
		pollDuration: pollDuration,
	}
}

func (s *rfqService) LaunchRFQ(ctx context.Context, req dto.LaunchRFQRequest) (*dto.LaunchRFQResponse, error) {
	spec := strings.TrimSpace(req.Spec)
	if spec == "" {
		return nil, fmt.Errorf("spec must not be empty")
	}

	quoteReq := &model.QuoteRequest{
		Spec:      spec,
		ListPrice: req.ListPrice,
	}
	if err := s.requests.Create(ctx, quoteReq); err != nil {
		return nil, fmt.Errorf("create quote request: %w", err)
	}

	expected := make(map[string]worker.SupplierRef, len(req.Suppliers))
	contacted := make([]dto.ContactedSupplier, 0, len(req.Suppliers))

	for _, name := range req.Suppliers {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		address := DeriveAddress(name, s.mailDomain)

		supplier := &model.Supplier{Name: name, Email: address, Active: true}
		if err := s.suppliers.UpsertByEmail(ctx, supplier); err != nil {
			log.Error().Err(err).Str("supplier", name).Msg("rfq: supplier upsert failed, skipping")
			continue
		}

		row := &model.OutboxMessage{
			Kind:    model.OutboxKindRFQ,
			ToEmail: address,
			Subject: rfqSubject(spec),
			Body:    rfqBody(spec),
		}
		if err := s.outbox.Create(ctx, row); err != nil {
			log.Error().Err(err).Str("supplier", name).Msg("rfq: outbox write failed, skipping")
			continue
		}
		if err := s.dispatcher.EnqueueEmail(ctx, row.ID); err != nil {
			log.Warn().Err(err).Str("outbox_id", row.ID.String()).Msg("rfq: enqueue failed, relay will retry")
		}

		expected[address] = worker.SupplierRef{ID: supplier.ID, Name: supplier.Name}
		contacted = append(contacted, dto.ContactedSupplier{Name: name, Address: address})
	}

	if len(contacted) == 0 {
		return nil, fmt.Errorf("no RFQs could be dispatched")
	}

	watcher := worker.NewInboxWatcher(
		s.mailbox, s.offers, s.review, s.pollInterval,
		quoteReq.ID, spec, expected,
	)
	go func() {
		collected := watcher.Run(s.baseCtx, s.pollDuration)
		if err := s.requests.Close(s.baseCtx, quoteReq.ID); err != nil {
			log.Error().Err(err).Str("request_id", quoteReq.ID.String()).Msg("rfq: failed to close request")
		}
		log.Info().
			Str("request_id", quoteReq.ID.String()).
			Int("offers_collected", collected).
			Msg("rfq: collection window closed")
	}()

	log.Info().
		Str("request_id", quoteReq.ID.String()).
		Str("spec", spec).
		Int("rfqs_sent", len(contacted)).
		Msg("rfq: launched")

	return &dto.LaunchRFQResponse{
		QuoteRequestID: quoteReq.ID.String(),
		Spec:           spec,
		RFQsSent:       len(contacted),
		Suppliers:      contacted,
	}, nil
}
