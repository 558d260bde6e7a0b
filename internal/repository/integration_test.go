//go:build integration

package repository

// Repository tests against real Postgres via testcontainers.
// Run with: go test -tags integration ./internal/repository/... -v
//
// These exercise the behaviors that in-memory stubs cannot prove:
// the unique index backing idempotent offer creation, transaction
// atomicity in Transition, and ILIKE spec matching.

import (
	"context"
	"testing"
	"time"

	"quotepilot/internal/infra"
	"quotepilot/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("quotepilot_test"),
		tcPostgres.WithUsername("quotepilot"),
		tcPostgres.WithPassword("quotepilot"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	return db
}

func seedRequest(t *testing.T, db *gorm.DB, spec string) *model.QuoteRequest {
	t.Helper()
	req := &model.QuoteRequest{Spec: spec, ListPrice: decimal.RequireFromString("100")}
	require.NoError(t, NewQuoteRequestRepository(db).Create(context.Background(), req))
	return req
}

func seedOffer(t *testing.T, db *gorm.DB, reqID uuid.UUID, spec, messageID, price string) *model.Offer {
	t.Helper()
	p := decimal.RequireFromString(price)
	o := &model.Offer{
		QuoteRequestID: reqID,
		SupplierName:   "Acme Corp",
		SupplierEmail:  "acme@suppliers.example",
		Spec:           spec,
		MessageID:      messageID,
		Price:          &p,
		Status:         model.StatusOpen,
	}
	created, err := NewOfferRepository(db).CreateIdempotent(context.Background(), o)
	require.NoError(t, err)
	require.True(t, created)
	return o
}

func TestOfferRepo_CreateIdempotent_UniqueIndex(t *testing.T) {
	db := setupDB(t)
	repo := NewOfferRepository(db)
	req := seedRequest(t, db, "M8 hex bolts")
	first := seedOffer(t, db, req.ID, req.Spec, "<m1@acme>", "25.50")

	p := decimal.RequireFromString("99.99")
	dup := &model.Offer{
		QuoteRequestID: req.ID,
		SupplierName:   "Acme Corp",
		SupplierEmail:  "acme@suppliers.example",
		Spec:           req.Spec,
		MessageID:      "<m1@acme>",
		Price:          &p,
		Status:         model.StatusOpen,
	}
	created, err := repo.CreateIdempotent(context.Background(), dup)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, dup.ID, "duplicate returns the existing row")
	assert.Equal(t, "25.50", dup.Price.StringFixed(2), "original values win")

	var count int64
	require.NoError(t, db.Model(&model.Offer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestOfferRepo_Transition_Atomic(t *testing.T) {
	db := setupDB(t)
	repo := NewOfferRepository(db)
	req := seedRequest(t, db, "M8 hex bolts")
	offer := seedOffer(t, db, req.ID, req.Spec, "<m2@acme>", "90.00")

	// First acceptance commits status + PO + outbox together.
	err := repo.Transition(context.Background(), offer.ID,
		map[string]interface{}{"status": model.StatusOrdered},
		&model.OutboxMessage{
			OfferID: &offer.ID,
			Kind:    model.OutboxKindPurchaseOrder,
			ToEmail: offer.SupplierEmail,
			Subject: "Purchase Order PO-20260827-0001",
			Body:    "attached",
		},
		&model.PurchaseOrder{OfferID: offer.ID, Number: "PO-20260827-0001", Price: *offer.Price},
	)
	require.NoError(t, err)

	// A second transition reusing the PO number must roll back entirely:
	// the status update succeeds inside the tx but the unique index on
	// purchase_orders.number aborts it.
	other := seedOffer(t, db, req.ID, req.Spec, "<m3@widget>", "91.00")
	err = repo.Transition(context.Background(), other.ID,
		map[string]interface{}{"status": model.StatusOrdered},
		nil,
		&model.PurchaseOrder{OfferID: other.ID, Number: "PO-20260827-0001", Price: *other.Price},
	)
	require.Error(t, err)

	reloaded, err := repo.FindByID(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, reloaded.Status, "failed transition leaves no partial state")
}

func TestOfferRepo_ListBySpec_CaseInsensitiveSubstring(t *testing.T) {
	db := setupDB(t)
	repo := NewOfferRepository(db)
	req := seedRequest(t, db, "M8 Hex Bolts, zinc plated")
	seedOffer(t, db, req.ID, req.Spec, "<m4@acme>", "25.50")
	seedOffer(t, db, req.ID, "stainless washers", "<m5@acme>", "3.20")

	rows, err := repo.ListBySpec(context.Background(), "hex bolts", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "<m4@acme>", rows[0].MessageID)

	all, err := repo.ListBySpec(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2, "empty query matches everything")
}

func TestOfferRepo_Stats(t *testing.T) {
	db := setupDB(t)
	repo := NewOfferRepository(db)
	req := seedRequest(t, db, "M8 hex bolts")
	seedOffer(t, db, req.ID, req.Spec, "<m6@acme>", "20.00")
	seedOffer(t, db, req.ID, req.Spec, "<m7@acme>", "30.00")

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalOffers)
	assert.EqualValues(t, 1, stats.UniqueSuppliers)
	require.NotNil(t, stats.AvgPrice)
	assert.InDelta(t, 25.0, *stats.AvgPrice, 0.001)
	require.NotNil(t, stats.MinPrice)
	assert.InDelta(t, 20.0, *stats.MinPrice, 0.001)
}

func TestSupplierRepo_UpsertByEmail(t *testing.T) {
	db := setupDB(t)
	repo := NewSupplierRepository(db)

	s1 := &model.Supplier{Name: "Acme Corp", Email: "acme@suppliers.example", Active: true}
	require.NoError(t, repo.UpsertByEmail(context.Background(), s1))
	require.NotEqual(t, uuid.Nil, s1.ID)

	s2 := &model.Supplier{Name: "Acme Corporation", Email: "acme@suppliers.example", Active: true}
	require.NoError(t, repo.UpsertByEmail(context.Background(), s2))

	assert.Equal(t, s1.ID, s2.ID, "same email resolves to the same row")
	assert.Equal(t, "Acme Corporation", s2.Name)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOutboxRepo_ListDueAndLifecycle(t *testing.T) {
	db := setupDB(t)
	repo := NewOutboxRepository(db)

	fresh := &model.OutboxMessage{Kind: model.OutboxKindRFQ, ToEmail: "a@x", Subject: "s", Body: "b", Status: model.OutboxPending}
	require.NoError(t, repo.Create(context.Background(), fresh))

	future := time.Now().Add(time.Hour)
	deferred := &model.OutboxMessage{Kind: model.OutboxKindRFQ, ToEmail: "b@x", Subject: "s", Body: "b", Status: model.OutboxPending, NextRetryAt: &future}
	require.NoError(t, repo.Create(context.Background(), deferred))

	due, err := repo.ListDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1, "rows with a future retry time are not due")
	assert.Equal(t, fresh.ID, due[0].ID)

	require.NoError(t, repo.MarkSent(context.Background(), fresh.ID))
	due, err = repo.ListDue(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	sent, err := repo.FindByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxSent, sent.Status)
	assert.NotNil(t, sent.SentAt)

	require.NoError(t, repo.MarkFailed(context.Background(), deferred.ID, 5, "550 rejected"))
	failed, err := repo.FindByID(context.Background(), deferred.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OutboxFailed, failed.Status)
	assert.Nil(t, failed.NextRetryAt)
}
