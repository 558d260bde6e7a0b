package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"quotepilot/internal/dto"
	"quotepilot/internal/infra"
	"quotepilot/internal/model"
	"quotepilot/internal/repository"
	"quotepilot/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ────────────────────────────────────────────────────────────────────

type stubSupplierRepo struct {
	mu        sync.Mutex
	suppliers map[string]*model.Supplier
}

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[string]*model.Supplier)}
}

func (r *stubSupplierRepo) UpsertByEmail(_ context.Context, s *model.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.suppliers[s.Email]; ok {
		existing.Name = s.Name
		*s = *existing
		return nil
	}
	s.ID = uuid.New()
	cloned := *s
	r.suppliers[s.Email] = &cloned
	return nil
}

func (r *stubSupplierRepo) FindByEmail(_ context.Context, email string) (*model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cloned := *s
	return &cloned, nil
}

func (r *stubSupplierRepo) List(_ context.Context) ([]model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Supplier
	for _, s := range r.suppliers {
		out = append(out, *s)
	}
	return out, nil
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

type stubOutboxRepo struct {
	mu   sync.Mutex
	rows []*model.OutboxMessage
}

func (r *stubOutboxRepo) Create(_ context.Context, m *model.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.New()
	cloned := *m
	r.rows = append(r.rows, &cloned)
	return nil
}

func (r *stubOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*model.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID == id {
			cloned := *m
			return &cloned, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubOutboxRepo) ListDue(_ context.Context, _ time.Time, _ int) ([]model.OutboxMessage, error) {
	return nil, nil
}
func (r *stubOutboxRepo) MarkSent(_ context.Context, _ uuid.UUID) error { return nil }
func (r *stubOutboxRepo) MarkRetry(_ context.Context, _ uuid.UUID, _ int, _ time.Time, _ string) error {
	return nil
}
func (r *stubOutboxRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ int, _ string) error {
	return nil
}

var _ repository.OutboxRepository = (*stubOutboxRepo)(nil)

type emptyMailbox struct{}

func (emptyMailbox) Unread(_ context.Context) ([]infra.InboundMessage, error) { return nil, nil }
func (emptyMailbox) MarkSeen(_ context.Context, _ string) error               { return nil }

// ── Fixture ──────────────────────────────────────────────────────────────────

type rfqFixture struct {
	svc       RFQService
	requests  *stubRequestRepo
	suppliers *stubSupplierRepo
	outbox    *stubOutboxRepo
}

func newRFQFixture() *rfqFixture {
	requests := newStubRequestRepo()
	suppliers := newStubSupplierRepo()
	outbox := &stubOutboxRepo{}

	// Dead Redis: enqueues fail and fall back to the relay, which is the
	// defined degradation path.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})

	svc := NewRFQService(
		context.Background(),
		requests, suppliers, newStubOfferRepo(), outbox,
		worker.NewDispatcher(rdb),
		emptyMailbox{},
		worker.NewReviewQueue(nil),
		"suppliers.example",
		time.Millisecond, 5*time.Millisecond,
	)
	return &rfqFixture{svc: svc, requests: requests, suppliers: suppliers, outbox: outbox}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestLaunchRFQ_QueuesOneEmailPerSupplier(t *testing.T) {
	f := newRFQFixture()

	resp, err := f.svc.LaunchRFQ(context.Background(), dto.LaunchRFQRequest{
		Spec:      "M8 hex bolts, zinc plated, qty 500",
		ListPrice: decimal.RequireFromString("100"),
		Suppliers: []string{"Acme Corp", "Widget Co"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.RFQsSent)
	require.Len(t, resp.Suppliers, 2)
	assert.Equal(t, "acme@suppliers.example", resp.Suppliers[0].Address)
	assert.Equal(t, "widget@suppliers.example", resp.Suppliers[1].Address)

	require.Len(t, f.outbox.rows, 2)
	for _, row := range f.outbox.rows {
		assert.Equal(t, model.OutboxKindRFQ, row.Kind)
		assert.Contains(t, row.Subject, "RFQ:")
		assert.Contains(t, row.Body, "M8 hex bolts")
		assert.Equal(t, model.OutboxPending, row.Status)
	}

	suppliers, err := f.suppliers.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)
}

func TestLaunchRFQ_SubjectTruncatesLongSpec(t *testing.T) {
	f := newRFQFixture()
	long := "A very long specification that definitely exceeds the fifty character subject limit"

	_, err := f.svc.LaunchRFQ(context.Background(), dto.LaunchRFQRequest{
		Spec:      long,
		ListPrice: decimal.RequireFromString("100"),
		Suppliers: []string{"Acme Corp"},
	})
	require.NoError(t, err)

	require.Len(t, f.outbox.rows, 1)
	assert.Equal(t, "RFQ: "+long[:50]+"...", f.outbox.rows[0].Subject)
}

func TestLaunchRFQ_RejectsBlankSpec(t *testing.T) {
	f := newRFQFixture()

	_, err := f.svc.LaunchRFQ(context.Background(), dto.LaunchRFQRequest{
		Spec:      "   ",
		ListPrice: decimal.RequireFromString("100"),
		Suppliers: []string{"Acme Corp"},
	})
	assert.Error(t, err)
	assert.Empty(t, f.outbox.rows)
}

func TestLaunchRFQ_RejectsWhenNoSupplierUsable(t *testing.T) {
	f := newRFQFixture()

	_, err := f.svc.LaunchRFQ(context.Background(), dto.LaunchRFQRequest{
		Spec:      "M8 hex bolts",
		ListPrice: decimal.RequireFromString("100"),
		Suppliers: []string{"", "   "},
	})
	assert.Error(t, err)
}

func TestLaunchRFQ_ClosesRequestAfterCollectionWindow(t *testing.T) {
	f := newRFQFixture()

	resp, err := f.svc.LaunchRFQ(context.Background(), dto.LaunchRFQRequest{
		Spec:      "M8 hex bolts",
		ListPrice: decimal.RequireFromString("100"),
		Suppliers: []string{"Acme Corp"},
	})
	require.NoError(t, err)

	reqID, err := uuid.Parse(resp.QuoteRequestID)
	require.NoError(t, err)

	// The watcher budget is 5ms; the request is closed when it expires.
	assert.Eventually(t, func() bool {
		req, err := f.requests.FindByID(context.Background(), reqID)
		return err == nil && req.Status == "closed"
	}, 2*time.Second, 10*time.Millisecond)
}
