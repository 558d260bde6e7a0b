package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferStatus is the negotiation state of an Offer.
// Transitions: open → ordered | countered | needs_user; countered → final | open.
// ordered and needs_user are terminal; final is terminal for automation.
type OfferStatus string

const (
	StatusOpen      OfferStatus = "open"
	StatusCountered OfferStatus = "countered"
	StatusFinal     OfferStatus = "final"
	StatusNeedsUser OfferStatus = "needs_user"
	StatusOrdered   OfferStatus = "ordered"
)

// MaxCounterRounds bounds automated counter-offers per offer. Once reached,
// further evaluation escalates to needs_user.
const MaxCounterRounds = 3

// Offer is one supplier's response to one quote request.
// MessageID is the mailbox message identifier of the reply that produced the
// offer; it carries a unique index so re-observing the same message (retried
// poll cycles, concurrent watcher loops, process restarts) can never persist
// a duplicate row.
type Offer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuoteRequestID uuid.UUID `gorm:"type:uuid;not null;index"`
	SupplierID     *uuid.UUID `gorm:"type:uuid;index"`
	SupplierName   string     `gorm:"not null"`
	SupplierEmail  string     `gorm:"not null;index"`
	Spec           string     `gorm:"not null"`
	MessageID      string     `gorm:"uniqueIndex;not null"`

	Price        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Currency     *string
	LeadTime     *int
	LeadTimeUnit *string // day | week | month

	Status       OfferStatus      `gorm:"not null;default:'open'"`
	CounterRound int              `gorm:"not null;default:0"`
	CounterPrice *decimal.Decimal `gorm:"type:decimal(12,2)"`

	RawBody   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	QuoteRequest QuoteRequest `gorm:"foreignKey:QuoteRequestID"`
	Supplier     *Supplier    `gorm:"foreignKey:SupplierID"`
}

func (Offer) TableName() string { return "offers" }

// Terminal reports whether no further automated transition may touch the offer.
func (s OfferStatus) Terminal() bool {
	return s == StatusOrdered || s == StatusNeedsUser
}
