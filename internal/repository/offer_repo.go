package repository

import (
	"context"
	"errors"
	"fmt"

	"quotepilot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// OfferStats aggregates offer data for reporting.
type OfferStats struct {
	TotalOffers     int64    `json:"total_offers"`
	UniqueSuppliers int64    `json:"unique_suppliers"`
	UniqueSpecs     int64    `json:"unique_specs"`
	AvgPrice        *float64 `json:"avg_price"`
	MinPrice        *float64 `json:"min_price"`
	MaxPrice        *float64 `json:"max_price"`
	AvgLeadTime     *float64 `json:"avg_lead_time"`
}

type OfferRepository interface {
	// CreateIdempotent persists the offer unless a row with the same mailbox
	// message id already exists. Safe under concurrent callers and retries.
	// Returns true when a new row was inserted.
	CreateIdempotent(ctx context.Context, o *model.Offer) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	ListBySpec(ctx context.Context, spec string, limit int) ([]model.Offer, error)
	ListBySupplier(ctx context.Context, supplierEmail string) ([]model.Offer, error)
	Stats(ctx context.Context) (*OfferStats, error)
	// Transition applies a status change and, in the same transaction,
	// persists the outbox message and purchase order it implies (either may
	// be nil). On any error nothing is committed.
	Transition(ctx context.Context, offerID uuid.UUID, updates map[string]interface{}, outbox *model.OutboxMessage, po *model.PurchaseOrder) error
	CountPurchaseOrdersSince(ctx context.Context, day string) (int64, error)
}

type offerRepo struct{ db *gorm.DB }

func NewOfferRepository(db *gorm.DB) OfferRepository { return &offerRepo{db: db} }

func (r *offerRepo) CreateIdempotent(ctx context.Context, o *model.Offer) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(o)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Already seen — load the existing row so callers get stable IDs.
		var existing model.Offer
		if err := r.db.WithContext(ctx).Where("message_id = ?", o.MessageID).First(&existing).Error; err != nil {
			return false, err
		}
		*o = existing
		return false, nil
	}
	return true, nil
}

func (r *offerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	var o model.Offer
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &o, err
}

func (r *offerRepo) ListBySpec(ctx context.Context, spec string, limit int) ([]model.Offer, error) {
	var offers []model.Offer
	q := r.db.WithContext(ctx).
		Where("spec ILIKE ?", "%"+spec+"%").
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&offers).Error
	return offers, err
}

func (r *offerRepo) ListBySupplier(ctx context.Context, supplierEmail string) ([]model.Offer, error) {
	var offers []model.Offer
	err := r.db.WithContext(ctx).
		Where("supplier_email = ?", supplierEmail).
		Order("created_at DESC").
		Find(&offers).Error
	return offers, err
}

func (r *offerRepo) Stats(ctx context.Context) (*OfferStats, error) {
	var stats OfferStats
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)                      AS total_offers,
		       COUNT(DISTINCT supplier_email) AS unique_suppliers,
		       COUNT(DISTINCT spec)           AS unique_specs,
		       AVG(price)                     AS avg_price,
		       MIN(price)                     AS min_price,
		       MAX(price)                     AS max_price,
		       AVG(lead_time)                 AS avg_lead_time
		FROM offers
		WHERE price IS NOT NULL`).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("offer stats: %w", err)
	}
	return &stats, nil
}

func (r *offerRepo) Transition(ctx context.Context, offerID uuid.UUID, updates map[string]interface{}, outbox *model.OutboxMessage, po *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Offer{}).Where("id = ?", offerID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if po != nil {
			if err := tx.Create(po).Error; err != nil {
				return err
			}
		}
		if outbox != nil {
			if err := tx.Create(outbox).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountPurchaseOrdersSince counts POs created on or after the given day
// (YYYY-MM-DD), used to assign the next per-day PO sequence number.
func (r *offerRepo) CountPurchaseOrdersSince(ctx context.Context, day string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.PurchaseOrder{}).
		Where("created_at >= ?::date", day).
		Count(&n).Error
	return n, err
}
