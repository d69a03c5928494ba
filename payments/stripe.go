package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// checkoutSessionAPI is the slice of the Stripe client the gateway uses.
type checkoutSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeGateway struct {
	sessions      checkoutSessionAPI
	webhookSecret string
	currency      string
	shipCountries []string
}

func NewStripeGateway() *StripeGateway {
	api := client.New(os.Getenv("STRIPE_SECRET_KEY"), nil)

	countries := []string{"US"}
	if raw := os.Getenv("STRIPE_SHIP_COUNTRIES"); raw != "" {
		countries = strings.Split(raw, ",")
		for i := range countries {
			countries[i] = strings.TrimSpace(countries[i])
		}
	}

	currency := os.Getenv("STRIPE_CURRENCY")
	if currency == "" {
		currency = "usd"
	}

	return &StripeGateway{
		sessions:      api.CheckoutSessions,
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		currency:      currency,
		shipCountries: countries,
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	currency := req.Currency
	if currency == "" {
		currency = g.currency
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
					Metadata: map[string]string{
						"sku":        item.SKU,
						"variant_id": item.VariantID,
					},
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems:  lineItems,
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(g.shipCountries),
		},
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{
			{
				ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
					DisplayName: stripe.String("Standard Shipping"),
					Type:        stripe.String("fixed_amount"),
					FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripe.Int64(req.ShippingAmount),
						Currency: stripe.String(currency),
					},
				},
			},
		},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) GetConfirmation(ctx context.Context, sessionID string) (*Confirmation, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	sess, err := g.sessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	conf := &Confirmation{
		SessionID:   sess.ID,
		Paid:        sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal: sess.AmountTotal,
		Currency:    string(sess.Currency),
		Metadata:    sess.Metadata,
	}
	if sess.TotalDetails != nil {
		conf.AmountShipping = sess.TotalDetails.AmountShipping
		conf.AmountTax = sess.TotalDetails.AmountTax
		conf.AmountDiscount = sess.TotalDetails.AmountDiscount
	}
	if sess.PaymentIntent != nil {
		conf.TransactionID = sess.PaymentIntent.ID
	}
	if sess.CustomerDetails != nil {
		conf.CustomerEmail = sess.CustomerDetails.Email
		conf.CustomerName = sess.CustomerDetails.Name
		if sess.CustomerDetails.Address != nil {
			addr := sess.CustomerDetails.Address
			conf.ShippingAddress = &Address{
				Name:       sess.CustomerDetails.Name,
				Line1:      addr.Line1,
				Line2:      addr.Line2,
				City:       addr.City,
				State:      addr.State,
				PostalCode: addr.PostalCode,
				Country:    addr.Country,
			}
		}
	}

	return conf, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	evt := &WebhookEvent{Type: string(event.Type)}
	if event.Type == EventCheckoutCompleted {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to parse webhook session payload: %w", err)
		}
		evt.SessionID = sess.ID
	}

	return evt, nil
}
