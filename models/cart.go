package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart belongs to exactly one identity: a user or a guest session, never both.
// The unique indexes on user_id and guest_id enforce at most one cart per
// identity. Carts and their items are hard-deleted (no gorm.DeletedAt): a
// soft-deleted row would still collide with the (cart_id, variant_id) unique
// index and the add-to-cart upsert would silently resurrect it.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`
	GuestID   *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"guest_id,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one line of a cart. quantity is always >= 1; adding an already
// present variant increments the existing row via an ON CONFLICT upsert, so
// (cart_id, variant_id) stays unique under concurrent adds.
type CartItem struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CartID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_cart_variant" json:"cart_id"`
	Cart      Cart           `gorm:"foreignKey:CartID" json:"-"`
	VariantID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_cart_variant" json:"variant_id"`
	Variant   ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	Quantity  int            `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
