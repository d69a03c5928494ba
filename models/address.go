package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
)

// Address is a snapshot row: a fresh one is inserted for every order, never
// referenced from a reusable address book, so editing an address later can
// never alter a historical order.
type Address struct {
	ID         uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Type       AddressType `gorm:"not null" json:"type"`
	Line1      string      `gorm:"not null" json:"line1"`
	Line2      string      `json:"line2,omitempty"`
	City       string      `gorm:"not null" json:"city"`
	State      string      `gorm:"not null" json:"state"`
	PostalCode string      `gorm:"not null" json:"postal_code"`
	Country    string      `gorm:"not null" json:"country"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
