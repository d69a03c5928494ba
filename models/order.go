package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is created exactly once per payment confirmation and is immutable
// afterwards except for forward status transitions. Everything it references
// is a snapshot: item prices, product names and both addresses are copied at
// assembly time so later catalog or address edits never rewrite history.
type Order struct {
	ID                uuid.UUID   `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID            uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	User              User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderNumber       string      `gorm:"uniqueIndex;not null" json:"order_number"`
	Status            OrderStatus `gorm:"default:pending" json:"status"`
	Subtotal          float64     `gorm:"not null" json:"subtotal"`
	ShippingAmount    float64     `gorm:"default:0" json:"shipping_amount"`
	TaxAmount         float64     `gorm:"default:0" json:"tax_amount"`
	DiscountAmount    float64     `gorm:"default:0" json:"discount_amount"`
	TotalAmount       float64     `gorm:"not null" json:"total_amount"`
	Currency          string      `gorm:"default:USD" json:"currency"`
	ShippingAddressID uuid.UUID   `gorm:"type:uuid;not null" json:"shipping_address_id"`
	ShippingAddress   Address     `gorm:"foreignKey:ShippingAddressID" json:"shipping_address,omitempty"`
	BillingAddressID  uuid.UUID   `gorm:"type:uuid;not null" json:"billing_address_id"`
	BillingAddress    Address     `gorm:"foreignKey:BillingAddressID" json:"billing_address,omitempty"`
	Items             []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Payment           *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OrderItem freezes the price (and the product's name and SKU) as they were
// the moment the order was assembled.
type OrderItem struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"order_id"`
	Order           Order          `gorm:"foreignKey:OrderID" json:"-"`
	VariantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"variant_id"`
	Variant         ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	ProductName     string         `gorm:"not null" json:"product_name"`
	SKU             string         `gorm:"not null" json:"sku"`
	Quantity        int            `gorm:"not null" json:"quantity"`
	PriceAtPurchase float64        `gorm:"not null" json:"price_at_purchase"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = "ORD" + time.Now().Format("20060102150405") + o.ID.String()[:8]
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// AllowedTransitions defines the forward-only order status state machine.
// Cancellation is reachable from pending and paid; shipped and delivered
// orders can no longer be cancelled.
var AllowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// IsValidTransition checks if a status transition is allowed.
func IsValidTransition(from, to OrderStatus) bool {
	allowed, exists := AllowedTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
