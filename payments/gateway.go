package payments

import "context"

// LineItem is one purchasable line sent to the payment gateway.
// Amounts are in the currency's smallest unit (cents).
type LineItem struct {
	Name       string
	SKU        string
	VariantID  string
	UnitAmount int64
	Quantity   int64
}

// SessionRequest describes a hosted checkout session to create.
type SessionRequest struct {
	CustomerEmail  string
	Currency       string
	Items          []LineItem
	ShippingAmount int64
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
}

// Session is the created hosted checkout session. The frontend
// redirects the customer to URL to complete payment.
type Session struct {
	ID  string
	URL string
}

// Address is the shipping address the gateway collected during checkout.
type Address struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Confirmation is the settled state of a checkout session, fetched
// after the customer returns or a webhook fires. The amounts are what the
// customer actually paid, after any gateway-side tax or promotion, in the
// currency's smallest unit. AmountTotal of zero means the gateway reported
// no figures.
type Confirmation struct {
	SessionID       string
	TransactionID   string
	Paid            bool
	AmountTotal     int64
	AmountShipping  int64
	AmountTax       int64
	AmountDiscount  int64
	Currency        string
	CustomerEmail   string
	CustomerName    string
	ShippingAddress *Address
	Metadata        map[string]string
}

// WebhookEvent is a verified gateway webhook notification.
type WebhookEvent struct {
	Type      string
	SessionID string
}

const EventCheckoutCompleted = "checkout.session.completed"

// Gateway abstracts the hosted-checkout payment provider so handlers
// can be tested without hitting the real API.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetConfirmation(ctx context.Context, sessionID string) (*Confirmation, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
