package model

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a contacted vendor. Email is the derived correlation address
// (see service.DeriveAddress) and doubles as the natural key for upserts.
type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Offers []Offer `gorm:"foreignKey:SupplierID"`
}

func (Supplier) TableName() string { return "suppliers" }
