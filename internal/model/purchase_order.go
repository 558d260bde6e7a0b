package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder records the acceptance of an offer. Rows are immutable —
// the PO number is the external reference quoted to the supplier.
type PurchaseOrder struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OfferID   uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Number    string          `gorm:"uniqueIndex;not null"` // PO-YYYYMMDD-NNNN
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PDFPath   *string
	CreatedAt time.Time

	Offer Offer `gorm:"foreignKey:OfferID"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }
