package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteRequest is one RFQ run: a spec sent to a set of suppliers, evaluated
// against a fixed reference list price. The list price never shifts for the
// life of the request — the acceptance target is always ListPrice × 0.95.
type QuoteRequest struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Spec      string          `gorm:"not null;index"`
	ListPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status    string          `gorm:"not null;default:'collecting'"` // collecting | closed
	CreatedAt time.Time
	UpdatedAt time.Time

	Offers []Offer `gorm:"foreignKey:QuoteRequestID"`
}

func (QuoteRequest) TableName() string { return "quote_requests" }
