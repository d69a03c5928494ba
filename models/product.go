package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string           `gorm:"not null;index" json:"name"`
	Description string           `json:"description"`
	Brand       string           `json:"brand"`
	CategoryID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    Category         `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	IsPublished bool             `gorm:"default:true" json:"is_published"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	Images      []ProductImage   `gorm:"foreignKey:ProductID" json:"images,omitempty"`

	// Effective price range across variants, filled for list responses only.
	MinPrice *float64 `gorm:"-" json:"min_price,omitempty"`
	MaxPrice *float64 `gorm:"-" json:"max_price,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
