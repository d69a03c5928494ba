package handlers

import (
	"errors"
	"net/http"

	"maison-backend/middleware"
	"maison-backend/models"
	"maison-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartHandler struct {
	DB *gorm.DB
}

// cartFor returns the caller's cart, creating it when create is set.
// Returns nil cart (no error) when the identity has no cart yet.
func (h *CartHandler) cartFor(identity middleware.Identity, create bool) (*models.Cart, error) {
	var cart models.Cart
	query := h.DB
	if identity.UserID != nil {
		query = query.Where("user_id = ?", *identity.UserID)
	} else {
		query = query.Where("guest_id = ?", *identity.GuestID)
	}

	err := query.First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !create {
		return nil, nil
	}

	cart = models.Cart{UserID: identity.UserID, GuestID: identity.GuestID}
	if err := h.DB.Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (h *CartHandler) cartResponse(cartID uuid.UUID) (gin.H, error) {
	var cart models.Cart
	err := h.DB.Preload("Items.Variant.Product").
		Where("id = ?", cartID).First(&cart).Error
	if err != nil {
		return nil, err
	}

	items := make([]gin.H, 0, len(cart.Items))
	subtotal := 0.0
	itemCount := 0
	for _, item := range cart.Items {
		unitPrice := item.Variant.CurrentPrice()
		lineTotal := unitPrice * float64(item.Quantity)
		subtotal += lineTotal
		itemCount += item.Quantity
		items = append(items, gin.H{
			"variant_id":   item.VariantID,
			"product_id":   item.Variant.ProductID,
			"product_name": item.Variant.Product.Name,
			"sku":          item.Variant.SKU,
			"finish":       item.Variant.Finish,
			"size":         item.Variant.Size,
			"quantity":     item.Quantity,
			"unit_price":   unitPrice,
			"line_total":   lineTotal,
			"in_stock":     item.Variant.InStock,
		})
	}

	return gin.H{
		"id":         cart.ID,
		"items":      items,
		"subtotal":   subtotal,
		"item_count": itemCount,
	}, nil
}

func emptyCartResponse() gin.H {
	return gin.H{
		"id":         nil,
		"items":      []gin.H{},
		"subtotal":   0.0,
		"item_count": 0,
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not resolved"})
		return
	}

	cart, err := h.cartFor(identity, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, emptyCartResponse())
		return
	}

	resp, err := h.cartResponse(cart.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not resolved"})
		return
	}

	var req struct {
		VariantID uuid.UUID `json:"variant_id" binding:"required"`
		Quantity  int       `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var variant models.ProductVariant
	if err := h.DB.Preload("Product").Where("id = ?", req.VariantID).First(&variant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product variant not found"})
		return
	}
	if !variant.Product.IsPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product variant not found"})
		return
	}

	cart, err := h.cartFor(identity, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	item := models.CartItem{
		CartID:    cart.ID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	}
	err = h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "variant_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + ?", req.Quantity),
		}),
	}).Create(&item).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
		return
	}

	resp, err := h.cartResponse(cart.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not resolved"})
		return
	}

	variantID, err := uuid.Parse(c.Param("variantID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID"})
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}
	// Quantities below one are clamped; removal is its own endpoint
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	cart, err := h.cartFor(identity, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, emptyCartResponse())
		return
	}

	// Absent lines are a no-op so stale frontends don't error
	err = h.DB.Model(&models.CartItem{}).
		Where("cart_id = ? AND variant_id = ?", cart.ID, variantID).
		Update("quantity", req.Quantity).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
		return
	}

	resp, err := h.cartResponse(cart.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not resolved"})
		return
	}

	variantID, err := uuid.Parse(c.Param("variantID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID"})
		return
	}

	cart, err := h.cartFor(identity, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, emptyCartResponse())
		return
	}

	if err := h.DB.Where("cart_id = ? AND variant_id = ?", cart.ID, variantID).Delete(&models.CartItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove cart item"})
		return
	}

	resp, err := h.cartResponse(cart.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not resolved"})
		return
	}

	cart, err := h.cartFor(identity, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, emptyCartResponse())
		return
	}

	if err := h.DB.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	resp, err := h.cartResponse(cart.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ValidateStock reports every cart line whose quantity exceeds the variant's
// available stock. The frontend calls this before starting checkout.
func (h *CartHandler) ValidateStock(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not resolved"})
		return
	}

	cart, err := h.cartFor(identity, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	problems := []gin.H{}
	if cart != nil {
		var items []models.CartItem
		if err := h.DB.Preload("Variant.Product").Where("cart_id = ?", cart.ID).Find(&items).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate stock"})
			return
		}
		for _, item := range items {
			if item.Quantity > item.Variant.InStock {
				problems = append(problems, gin.H{
					"variant_id":   item.VariantID,
					"product_name": item.Variant.Product.Name,
					"sku":          item.Variant.SKU,
					"requested":    item.Quantity,
					"available":    item.Variant.InStock,
				})
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":    len(problems) == 0,
		"items": problems,
	})
}
