package handlers

import (
	"errors"
	"fmt"
	"time"

	"maison-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCartEmpty is returned when assembly finds no cart or no cart lines.
// A concurrent assembly that already consumed the cart surfaces as this too,
// which is why the idempotency gate runs before the cart load.
var ErrCartEmpty = errors.New("cart is empty")

// InsufficientStockError reports the first cart line whose quantity could not
// be taken from stock. The whole assembly rolls back when this is returned.
type InsufficientStockError struct {
	VariantID uuid.UUID
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

// AddressInput is the address data captured at checkout, either from the
// payment gateway or from the cash-on-delivery form.
type AddressInput struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// GatewayTotals are the amounts the gateway settled the session at. They are
// authoritative: gateway-side tax or promotions mean the customer paid these
// figures, not whatever the cart sums to locally.
type GatewayTotals struct {
	Total    float64
	Shipping float64
	Tax      float64
	Discount float64
	Currency string
}

// AssembleInput describes one order to build from a cart.
type AssembleInput struct {
	UserID         uuid.UUID
	CartID         uuid.UUID
	Method         models.PaymentMethod
	PaymentStatus  models.PaymentStatus
	TransactionID  string
	ShippingAmount float64
	Totals         *GatewayTotals
	Shipping       AddressInput
	Billing        *AddressInput
	PaidAt         *time.Time
}

// OrderConfirmation is the result of AssembleOrder. Created is false when the
// transaction id had already produced an order and this call was a replay.
type OrderConfirmation struct {
	Order   *models.Order
	Created bool
}

// AssembleOrder turns a cart into an order exactly once per transaction id.
//
// Inside a single database transaction it decrements stock for every cart
// line (failing the whole order if any line cannot be satisfied), snapshots
// addresses, prices, names and SKUs into order rows, records the payment and
// consumes the cart. The unique index on payments.transaction_id backstops
// the initial existence check: when two assemblies race, exactly one commit
// wins and the loser re-reads the winner's order.
func AssembleOrder(db *gorm.DB, in AssembleInput) (*OrderConfirmation, error) {
	if order := findOrderByTransaction(db, in.TransactionID); order != nil {
		return &OrderConfirmation{Order: order, Created: false}, nil
	}

	var created models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Preload("Items.Variant.Product").Where("id = ?", in.CartID).First(&cart).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartEmpty
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrCartEmpty
		}

		// Conditional decrement: the guard clause means the last unit can
		// only be consumed by one committing transaction and stock never
		// goes negative.
		for _, item := range cart.Items {
			res := tx.Model(&models.ProductVariant{}).
				Where("id = ? AND in_stock >= ?", item.VariantID, item.Quantity).
				Update("in_stock", gorm.Expr("in_stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InsufficientStockError{
					VariantID: item.VariantID,
					SKU:       item.Variant.SKU,
					Requested: item.Quantity,
					Available: item.Variant.InStock,
				}
			}
		}

		shipping := models.Address{
			UserID:     in.UserID,
			Type:       models.AddressTypeShipping,
			Line1:      in.Shipping.Line1,
			Line2:      in.Shipping.Line2,
			City:       in.Shipping.City,
			State:      in.Shipping.State,
			PostalCode: in.Shipping.PostalCode,
			Country:    in.Shipping.Country,
		}
		if err := tx.Create(&shipping).Error; err != nil {
			return err
		}

		billingID := shipping.ID
		if in.Billing != nil {
			billing := models.Address{
				UserID:     in.UserID,
				Type:       models.AddressTypeBilling,
				Line1:      in.Billing.Line1,
				Line2:      in.Billing.Line2,
				City:       in.Billing.City,
				State:      in.Billing.State,
				PostalCode: in.Billing.PostalCode,
				Country:    in.Billing.Country,
			}
			if err := tx.Create(&billing).Error; err != nil {
				return err
			}
			billingID = billing.ID
		}

		subtotal := 0.0
		for _, item := range cart.Items {
			subtotal += item.Variant.CurrentPrice() * float64(item.Quantity)
		}

		// The gateway's settled figures win over the local sum; the local
		// computation only covers paths that never touched a gateway (COD).
		shippingAmount := in.ShippingAmount
		taxAmount, discountAmount := 0.0, 0.0
		totalAmount := subtotal + shippingAmount
		currency := "USD"
		if in.Totals != nil {
			shippingAmount = in.Totals.Shipping
			taxAmount = in.Totals.Tax
			discountAmount = in.Totals.Discount
			totalAmount = in.Totals.Total
			if in.Totals.Currency != "" {
				currency = in.Totals.Currency
			}
		}

		status := models.OrderStatusPending
		if in.PaymentStatus == models.PaymentStatusCompleted {
			status = models.OrderStatusPaid
		}

		order := models.Order{
			UserID:            in.UserID,
			Status:            status,
			Subtotal:          subtotal,
			ShippingAmount:    shippingAmount,
			TaxAmount:         taxAmount,
			DiscountAmount:    discountAmount,
			TotalAmount:       totalAmount,
			Currency:          currency,
			ShippingAddressID: shipping.ID,
			BillingAddressID:  billingID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, item := range cart.Items {
			orderItem := models.OrderItem{
				OrderID:         order.ID,
				VariantID:       item.VariantID,
				ProductName:     item.Variant.Product.Name,
				SKU:             item.Variant.SKU,
				Quantity:        item.Quantity,
				PriceAtPurchase: item.Variant.CurrentPrice(),
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
		}

		payment := models.Payment{
			OrderID:       order.ID,
			Method:        in.Method,
			Status:        in.PaymentStatus,
			Amount:        order.TotalAmount,
			Currency:      order.Currency,
			TransactionID: in.TransactionID,
			PaidAt:        in.PaidAt,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Cart{}, "id = ?", cart.ID).Error; err != nil {
			return err
		}

		created = order
		return nil
	})

	if err != nil {
		// A concurrent assembly committed the same transaction id first
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if order := findOrderByTransaction(db, in.TransactionID); order != nil {
				return &OrderConfirmation{Order: order, Created: false}, nil
			}
		}
		return nil, err
	}

	order := findOrderByTransaction(db, in.TransactionID)
	if order == nil {
		order = &created
	}
	return &OrderConfirmation{Order: order, Created: true}, nil
}

func findOrderByTransaction(db *gorm.DB, transactionID string) *models.Order {
	var payment models.Payment
	if err := db.Where("transaction_id = ?", transactionID).First(&payment).Error; err != nil {
		return nil
	}
	var order models.Order
	err := db.Preload("Items").Preload("Payment").Preload("ShippingAddress").Preload("BillingAddress").
		Where("id = ?", payment.OrderID).First(&order).Error
	if err != nil {
		return nil
	}
	return &order
}
