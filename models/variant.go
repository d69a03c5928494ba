package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductVariant is the purchasable unit: a SKU with its own price and stock.
// Prices float while a variant sits in a cart; they are only frozen onto an
// OrderItem at order assembly. in_stock is the one contended column: the only
// writer outside admin CRUD is the conditional decrement in order assembly.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SKU       string    `gorm:"uniqueIndex;not null" json:"sku"`
	Price     float64   `gorm:"not null" json:"price"`
	SalePrice *float64  `json:"sale_price,omitempty"`
	Finish    string    `json:"finish"`
	Size      string    `json:"size"`
	InStock   int       `gorm:"not null;default:0" json:"in_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// CurrentPrice is the display and snapshot price: sale price when one is set,
// list price otherwise.
func (v *ProductVariant) CurrentPrice() float64 {
	if v.SalePrice != nil {
		return *v.SalePrice
	}
	return v.Price
}
