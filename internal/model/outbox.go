package model

import (
	"time"

	"github.com/google/uuid"
)

// Outbox message kinds.
const (
	OutboxKindRFQ           = "rfq"
	OutboxKindCounter       = "counter"
	OutboxKindPurchaseOrder = "purchase_order"
)

// Outbox delivery states.
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxMessage is a pending outbound email, written in the same transaction
// as the status change that caused it. The relay delivers rows asynchronously
// with retry/backoff, so a committed negotiation decision and its email are
// one recoverable unit — a send failure never contradicts a committed status.
type OutboxMessage struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OfferID        *uuid.UUID `gorm:"type:uuid;index"`
	Kind           string     `gorm:"not null"` // rfq | counter | purchase_order
	ToEmail        string     `gorm:"not null"`
	Subject        string     `gorm:"not null"`
	Body           string     `gorm:"type:text;not null"`
	AttachmentPath *string

	Status      string `gorm:"not null;default:'pending';index"`
	Attempts    int    `gorm:"not null;default:0"`
	NextRetryAt *time.Time
	LastError   *string
	SentAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OutboxMessage) TableName() string { return "outbox_messages" }
