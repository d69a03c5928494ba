package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"maison-backend/config"
	"maison-backend/models"
	"maison-backend/payments"
	"maison-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckoutHandler struct {
	DB      *gorm.DB
	Gateway payments.Gateway
}

// CreateSession opens a hosted checkout session for the signed-in user's
// cart. The client may send the cart_id it has been showing; a mismatch with
// the server-side cart is rejected. Stock is validated up front so customers
// are not sent to the payment page for items that cannot be fulfilled.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	uid := userID.(uuid.UUID)

	var req struct {
		CartID *uuid.UUID `json:"cart_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart"})
			return
		}
	}

	var cart models.Cart
	err := h.DB.Preload("Items.Variant.Product").Where("user_id = ?", uid).First(&cart).Error
	if err != nil || len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	// The supplied cart id must match the caller's own cart. The error stays
	// generic so cart ids cannot be enumerated.
	if req.CartID != nil && *req.CartID != cart.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart"})
		return
	}

	problems := []gin.H{}
	for _, item := range cart.Items {
		if item.Quantity > item.Variant.InStock {
			problems = append(problems, gin.H{
				"variant_id": item.VariantID,
				"sku":        item.Variant.SKU,
				"requested":  item.Quantity,
				"available":  item.Variant.InStock,
			})
		}
	}
	if len(problems) > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Some items are out of stock", "items": problems})
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", uid).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	lineItems := make([]payments.LineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		lineItems = append(lineItems, payments.LineItem{
			Name:       item.Variant.Product.Name,
			SKU:        item.Variant.SKU,
			VariantID:  item.VariantID.String(),
			UnitAmount: utils.ToCents(item.Variant.CurrentPrice()),
			Quantity:   int64(item.Quantity),
		})
	}

	frontendURL := config.GetEnv("FRONTEND_URL", "http://localhost:3000")
	session, err := h.Gateway.CreateSession(c.Request.Context(), payments.SessionRequest{
		CustomerEmail:  user.Email,
		Items:          lineItems,
		ShippingAmount: utils.ToCents(config.ShippingFlatAmount()),
		SuccessURL:     frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      frontendURL + "/cart",
		Metadata: map[string]string{
			"cart_id": cart.ID.String(),
			"user_id": uid.String(),
		},
	})
	if err != nil {
		log.Printf("Failed to create checkout session for user %s: %v", uid, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"url":        session.URL,
	})
}

// ConfirmSession finalizes an order after the customer returns from the
// hosted checkout page. Safe to call repeatedly: replays return the already
// assembled order.
func (h *CheckoutHandler) ConfirmSession(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	uid := userID.(uuid.UUID)

	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	conf, err := h.Gateway.GetConfirmation(c.Request.Context(), req.SessionID)
	if err != nil {
		log.Printf("Failed to retrieve checkout session %s: %v", req.SessionID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to retrieve checkout session"})
		return
	}

	if conf.Metadata["user_id"] != uid.String() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Session does not belong to this user"})
		return
	}

	result, status, errResp := h.assembleFromConfirmation(conf)
	if errResp != nil {
		c.JSON(status, errResp)
		return
	}

	c.JSON(status, gin.H{
		"order":   result.Order,
		"created": result.Created,
	})
}

// HandleWebhook processes gateway webhook deliveries. checkout.session.completed
// triggers the same assembly path as ConfirmSession, so whichever arrives
// first creates the order and the other is a no-op.
func (h *CheckoutHandler) HandleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	event, err := h.Gateway.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature"})
		return
	}

	if event.Type != payments.EventCheckoutCompleted {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	conf, err := h.Gateway.GetConfirmation(c.Request.Context(), event.SessionID)
	if err != nil {
		log.Printf("Webhook: failed to retrieve session %s: %v", event.SessionID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to retrieve checkout session"})
		return
	}

	if _, status, errResp := h.assembleFromConfirmation(conf); errResp != nil {
		c.JSON(status, errResp)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// assembleFromConfirmation builds an order from a paid gateway session.
// Returns the confirmation, an HTTP status, and a non-nil error body on
// failure.
func (h *CheckoutHandler) assembleFromConfirmation(conf *payments.Confirmation) (*OrderConfirmation, int, gin.H) {
	if !conf.Paid {
		return nil, http.StatusPaymentRequired, gin.H{"error": "Payment not completed"}
	}

	transactionID := conf.TransactionID
	if transactionID == "" {
		transactionID = conf.SessionID
	}

	userID, err := uuid.Parse(conf.Metadata["user_id"])
	if err != nil {
		log.Printf("Checkout session %s has no valid user_id metadata", conf.SessionID)
		return nil, http.StatusBadRequest, gin.H{"error": "Invalid checkout session"}
	}
	cartID, err := uuid.Parse(conf.Metadata["cart_id"])
	if err != nil {
		log.Printf("Checkout session %s has no valid cart_id metadata", conf.SessionID)
		return nil, http.StatusBadRequest, gin.H{"error": "Invalid checkout session"}
	}

	if conf.ShippingAddress == nil {
		log.Printf("Paid transaction %s has no shipping address, refusing to assemble", transactionID)
		return nil, http.StatusBadGateway, gin.H{"error": "Checkout session is missing a shipping address"}
	}

	now := time.Now()
	input := AssembleInput{
		UserID:         userID,
		CartID:         cartID,
		Method:         models.PaymentMethodStripe,
		PaymentStatus:  models.PaymentStatusCompleted,
		TransactionID:  transactionID,
		ShippingAmount: config.ShippingFlatAmount(),
		Shipping: AddressInput{
			Line1:      conf.ShippingAddress.Line1,
			Line2:      conf.ShippingAddress.Line2,
			City:       conf.ShippingAddress.City,
			State:      conf.ShippingAddress.State,
			PostalCode: conf.ShippingAddress.PostalCode,
			Country:    conf.ShippingAddress.Country,
		},
		PaidAt: &now,
	}
	// The session settled at the gateway's figures, which include any
	// gateway-side tax or promotion the local cart knows nothing about.
	if conf.AmountTotal > 0 {
		input.Totals = &GatewayTotals{
			Total:    utils.FromCents(conf.AmountTotal),
			Shipping: utils.FromCents(conf.AmountShipping),
			Tax:      utils.FromCents(conf.AmountTax),
			Discount: utils.FromCents(conf.AmountDiscount),
			Currency: strings.ToUpper(conf.Currency),
		}
	}
	result, err := AssembleOrder(h.DB, input)
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			log.Printf("Paid transaction %s could not be fulfilled: %v", transactionID, stockErr)
			return nil, http.StatusConflict, gin.H{"error": stockErr.Error()}
		}
		if errors.Is(err, ErrCartEmpty) {
			return nil, http.StatusBadRequest, gin.H{"error": "Cart is empty"}
		}
		log.Printf("Failed to assemble order for transaction %s: %v", transactionID, err)
		return nil, http.StatusInternalServerError, gin.H{"error": "Failed to create order"}
	}

	if result.Created {
		var user models.User
		if err := h.DB.Where("id = ?", userID).First(&user).Error; err == nil {
			utils.SendOrderConfirmation(user.Email, user.Name, result.Order.OrderNumber, result.Order.TotalAmount)
		}
	}

	return result, http.StatusOK, nil
}

// CheckoutCOD places a cash-on-delivery order directly from the user's cart,
// with the shipping (and optionally billing) address supplied in the request.
func (h *CheckoutHandler) CheckoutCOD(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	uid := userID.(uuid.UUID)

	type addressReq struct {
		Line1      string `json:"line1" binding:"required"`
		Line2      string `json:"line2"`
		City       string `json:"city" binding:"required"`
		State      string `json:"state" binding:"required"`
		PostalCode string `json:"postal_code" binding:"required"`
		Country    string `json:"country" binding:"required"`
	}
	var req struct {
		Shipping       addressReq  `json:"shipping" binding:"required"`
		BillingSame    bool        `json:"billing_same"`
		Billing        *addressReq `json:"billing"`
		IdempotencyKey string      `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	if !req.BillingSame && req.Billing == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Billing address required when billing_same is false"})
		return
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	var cart models.Cart
	err := h.DB.Where("user_id = ?", uid).First(&cart).Error
	if err != nil {
		// A retried request may arrive after its first attempt already
		// consumed the cart. Answer with that order instead of an error.
		if req.IdempotencyKey != "" {
			if order := findOrderByTransaction(h.DB, "cod_"+key); order != nil {
				c.JSON(http.StatusOK, gin.H{"order": order, "created": false})
				return
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	input := AssembleInput{
		UserID:         uid,
		CartID:         cart.ID,
		Method:         models.PaymentMethodCOD,
		PaymentStatus:  models.PaymentStatusInitiated,
		TransactionID:  "cod_" + key,
		ShippingAmount: config.ShippingFlatAmount(),
		Shipping: AddressInput{
			Line1:      req.Shipping.Line1,
			Line2:      req.Shipping.Line2,
			City:       req.Shipping.City,
			State:      req.Shipping.State,
			PostalCode: req.Shipping.PostalCode,
			Country:    req.Shipping.Country,
		},
	}
	if !req.BillingSame {
		input.Billing = &AddressInput{
			Line1:      req.Billing.Line1,
			Line2:      req.Billing.Line2,
			City:       req.Billing.City,
			State:      req.Billing.State,
			PostalCode: req.Billing.PostalCode,
			Country:    req.Billing.Country,
		}
	}

	result, err := AssembleOrder(h.DB, input)
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			c.JSON(http.StatusConflict, gin.H{
				"error":      stockErr.Error(),
				"variant_id": stockErr.VariantID,
				"requested":  stockErr.Requested,
				"available":  stockErr.Available,
			})
			return
		}
		if errors.Is(err, ErrCartEmpty) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			return
		}
		log.Printf("Failed to place COD order for user %s: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	if result.Created {
		var user models.User
		if err := h.DB.Where("id = ?", uid).First(&user).Error; err == nil {
			utils.SendOrderConfirmation(user.Email, user.Name, result.Order.OrderNumber, result.Order.TotalAmount)
		}
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"order":   result.Order,
		"created": result.Created,
	})
}
