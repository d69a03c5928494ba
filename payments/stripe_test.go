package payments

import (
	"context"
	"testing"

	stripe "github.com/stripe/stripe-go/v78"
)

type fakeSessionAPI struct {
	newParams *stripe.CheckoutSessionParams
	getID     string
	getParams *stripe.CheckoutSessionParams
	session   *stripe.CheckoutSession
	err       error
}

func (f *fakeSessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.newParams = params
	return f.session, f.err
}

func (f *fakeSessionAPI) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.getID = id
	f.getParams = params
	return f.session, f.err
}

func TestCreateSessionBuildsParams(t *testing.T) {
	fake := &fakeSessionAPI{
		session: &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.test/cs_test_123"},
	}
	gw := &StripeGateway{sessions: fake, currency: "usd", shipCountries: []string{"US", "CA"}}

	sess, err := gw.CreateSession(context.Background(), SessionRequest{
		CustomerEmail:  "buyer@test.com",
		Items:          []LineItem{{Name: "Oak Table", SKU: "OAK-1", VariantID: "v1", UnitAmount: 12995, Quantity: 2}},
		ShippingAmount: 200,
		SuccessURL:     "https://shop.test/success",
		CancelURL:      "https://shop.test/cart",
		Metadata:       map[string]string{"cart_id": "c1", "user_id": "u1"},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID != "cs_test_123" || sess.URL != "https://checkout.test/cs_test_123" {
		t.Errorf("unexpected session: %+v", sess)
	}

	p := fake.newParams
	if p == nil {
		t.Fatal("expected params passed to gateway")
	}
	if *p.Mode != string(stripe.CheckoutSessionModePayment) {
		t.Errorf("expected payment mode, got %s", *p.Mode)
	}
	if len(p.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(p.LineItems))
	}
	li := p.LineItems[0]
	if *li.Quantity != 2 || *li.PriceData.UnitAmount != 12995 {
		t.Errorf("unexpected line item amounts: qty=%d amount=%d", *li.Quantity, *li.PriceData.UnitAmount)
	}
	if *li.PriceData.ProductData.Name != "Oak Table" {
		t.Errorf("unexpected product name: %s", *li.PriceData.ProductData.Name)
	}
	if *li.PriceData.Currency != "usd" {
		t.Errorf("expected default currency usd, got %s", *li.PriceData.Currency)
	}
	if len(p.ShippingOptions) != 1 || *p.ShippingOptions[0].ShippingRateData.FixedAmount.Amount != 200 {
		t.Error("expected flat shipping option of 200 cents")
	}
	if p.Metadata["cart_id"] != "c1" || p.Metadata["user_id"] != "u1" {
		t.Errorf("metadata not propagated: %v", p.Metadata)
	}
	if *p.CustomerEmail != "buyer@test.com" {
		t.Errorf("customer email not set: %v", p.CustomerEmail)
	}
}

func TestGetConfirmationMapsSession(t *testing.T) {
	fake := &fakeSessionAPI{
		session: &stripe.CheckoutSession{
			ID:            "cs_test_456",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			AmountTotal:   26190,
			Currency:      stripe.CurrencyUSD,
			TotalDetails: &stripe.CheckoutSessionTotalDetails{
				AmountShipping: 200,
				AmountTax:      1990,
				AmountDiscount: 500,
			},
			PaymentIntent: &stripe.PaymentIntent{ID: "pi_test_789"},
			Metadata:      map[string]string{"cart_id": "c2"},
			CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
				Email: "buyer@test.com",
				Name:  "Jordan Buyer",
				Address: &stripe.Address{
					Line1:      "1 Main St",
					City:       "Springfield",
					State:      "IL",
					PostalCode: "62701",
					Country:    "US",
				},
			},
		},
	}
	gw := &StripeGateway{sessions: fake}

	conf, err := gw.GetConfirmation(context.Background(), "cs_test_456")
	if err != nil {
		t.Fatalf("GetConfirmation failed: %v", err)
	}
	if fake.getID != "cs_test_456" {
		t.Errorf("expected session lookup by id, got %s", fake.getID)
	}
	if !conf.Paid {
		t.Error("expected paid confirmation")
	}
	if conf.TransactionID != "pi_test_789" {
		t.Errorf("expected transaction id pi_test_789, got %s", conf.TransactionID)
	}
	if conf.AmountTotal != 26190 {
		t.Errorf("expected amount 26190, got %d", conf.AmountTotal)
	}
	if conf.AmountShipping != 200 || conf.AmountTax != 1990 || conf.AmountDiscount != 500 {
		t.Errorf("expected shipping/tax/discount 200/1990/500, got %d/%d/%d",
			conf.AmountShipping, conf.AmountTax, conf.AmountDiscount)
	}
	if conf.Currency != "usd" {
		t.Errorf("expected currency usd, got %q", conf.Currency)
	}
	if conf.ShippingAddress == nil || conf.ShippingAddress.City != "Springfield" {
		t.Errorf("expected shipping address mapped, got %+v", conf.ShippingAddress)
	}
	if conf.ShippingAddress.Name != "Jordan Buyer" {
		t.Errorf("expected customer name on address, got %s", conf.ShippingAddress.Name)
	}
	if conf.Metadata["cart_id"] != "c2" {
		t.Errorf("expected metadata passthrough, got %v", conf.Metadata)
	}
}

func TestGetConfirmationUnpaid(t *testing.T) {
	fake := &fakeSessionAPI{
		session: &stripe.CheckoutSession{
			ID:            "cs_test_unpaid",
			PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
		},
	}
	gw := &StripeGateway{sessions: fake}

	conf, err := gw.GetConfirmation(context.Background(), "cs_test_unpaid")
	if err != nil {
		t.Fatalf("GetConfirmation failed: %v", err)
	}
	if conf.Paid {
		t.Error("expected unpaid confirmation")
	}
	if conf.TransactionID != "" {
		t.Errorf("expected empty transaction id, got %s", conf.TransactionID)
	}
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	gw := &StripeGateway{webhookSecret: "whsec_test"}

	_, err := gw.ParseWebhook([]byte(`{"type":"checkout.session.completed"}`), "bad-signature")
	if err == nil {
		t.Fatal("expected error for invalid webhook signature")
	}
}
