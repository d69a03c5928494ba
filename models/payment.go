package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodCOD    PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records the settlement of one order. TransactionID is the
// idempotency key for order assembly: duplicate webhook deliveries and
// repeated client confirmations all resolve to the same row, and the unique
// index makes the database the arbiter when two assemblies race past the
// pre-check.
type Payment struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"order_id"`
	Order         Order         `gorm:"foreignKey:OrderID" json:"-"`
	Method        PaymentMethod `gorm:"not null" json:"method"`
	Status        PaymentStatus `gorm:"default:initiated" json:"status"`
	Amount        float64       `gorm:"not null" json:"amount"`
	Currency      string        `gorm:"default:USD" json:"currency"`
	TransactionID string        `gorm:"uniqueIndex;not null" json:"transaction_id"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
