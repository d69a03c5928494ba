package handlers

import (
	"net/http"
	"strconv"

	"maison-backend/models"
	"maison-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductHandler struct {
	DB *gorm.DB
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.Product{}).Where("is_published = ?", true)

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if slug := c.Query("category"); slug != "" {
		var category models.Category
		if err := h.DB.Where("slug = ?", slug).First(&category).Error; err == nil {
			query = query.Where("category_id = ?", category.ID)
		}
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(brand) LIKE LOWER(?)", "%"+search+"%", "%"+search+"%")
	}

	var minPrice, maxPrice float64
	hasMin, hasMax := false, false
	if v := c.Query("min_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			minPrice, hasMin = f, true
		}
	}
	if v := c.Query("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			maxPrice, hasMax = f, true
		}
	}

	sort := c.DefaultQuery("sort", "newest")
	orderBy := "products.created_at DESC"
	switch sort {
	case "price_asc":
		orderBy = "prices.min_price ASC"
	case "price_desc":
		orderBy = "prices.min_price DESC"
	}

	// Price filters and sorts compare against the effective variant price,
	// which is the sale price when one is set.
	if hasMin || hasMax || sort == "price_asc" || sort == "price_desc" {
		prices := h.DB.Model(&models.ProductVariant{}).
			Select("product_id, MIN(COALESCE(sale_price, price)) AS min_price, MAX(COALESCE(sale_price, price)) AS max_price").
			Group("product_id")
		query = query.Joins("JOIN (?) AS prices ON prices.product_id = products.id", prices)
		if hasMin {
			query = query.Where("prices.max_price >= ?", minPrice)
		}
		if hasMax {
			query = query.Where("prices.min_price <= ?", maxPrice)
		}
	}

	var total int64
	query.Count(&total)

	var products []models.Product
	err := query.Preload("Variants").Preload("Images").Preload("Category").
		Order(orderBy).Offset(offset).Limit(limit).Find(&products).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	for i := range products {
		products[i].MinPrice, products[i].MaxPrice = variantPriceRange(products[i].Variants)
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// variantPriceRange returns the lowest and highest effective price across
// variants. Nil when the product has no variants.
func variantPriceRange(variants []models.ProductVariant) (*float64, *float64) {
	var min, max *float64
	for _, v := range variants {
		price := v.Price
		if v.SalePrice != nil {
			price = *v.SalePrice
		}
		if min == nil || price < *min {
			p := price
			min = &p
		}
		if max == nil || price > *max {
			p := price
			max = &p
		}
	}
	return min, max
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	role, _ := c.Get("user_role")

	query := h.DB.Preload("Variants").Preload("Images").Preload("Category").Where("id = ?", id)
	if role != "admin" {
		query = query.Where("is_published = ?", true)
	}

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

type variantRequest struct {
	SKU       string   `json:"sku" binding:"required"`
	Price     float64  `json:"price" binding:"required,gt=0"`
	SalePrice *float64 `json:"sale_price"`
	Finish    string   `json:"finish"`
	Size      string   `json:"size"`
	InStock   int      `json:"in_stock" binding:"gte=0"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req struct {
		Name        string           `json:"name" binding:"required"`
		Description string           `json:"description"`
		Brand       string           `json:"brand"`
		CategoryID  uuid.UUID        `json:"category_id" binding:"required"`
		IsPublished bool             `json:"is_published"`
		Variants    []variantRequest `json:"variants" binding:"required,min=1,dive"`
		Images      []struct {
			URL       string `json:"url" binding:"required"`
			IsPrimary bool   `json:"is_primary"`
		} `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var category models.Category
	if err := h.DB.Where("id = ?", req.CategoryID).First(&category).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
		return
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		CategoryID:  req.CategoryID,
		IsPublished: req.IsPublished,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		for _, v := range req.Variants {
			variant := models.ProductVariant{
				ProductID: product.ID,
				SKU:       v.SKU,
				Price:     v.Price,
				SalePrice: v.SalePrice,
				Finish:    v.Finish,
				Size:      v.Size,
				InStock:   v.InStock,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
		}
		for _, img := range req.Images {
			image := models.ProductImage{
				ProductID: product.ID,
				URL:       img.URL,
				IsPrimary: img.IsPrimary,
			}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	h.DB.Preload("Variants").Preload("Images").Where("id = ?", product.ID).First(&product)
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var req struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		Brand       *string    `json:"brand"`
		CategoryID  *uuid.UUID `json:"category_id"`
		IsPublished *bool      `json:"is_published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Brand != nil {
		updates["brand"] = *req.Brand
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := h.DB.Where("id = ?", *req.CategoryID).First(&category).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
			return
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&product).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
	}

	h.DB.Preload("Variants").Preload("Images").Where("id = ?", id).First(&product)
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// Soft delete: variants stay so existing order items keep their FK target
	if err := h.DB.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (h *ProductHandler) UpdateVariant(c *gin.Context) {
	id := c.Param("variantID")

	var variant models.ProductVariant
	if err := h.DB.Where("id = ?", id).First(&variant).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Variant not found"})
		return
	}

	var req struct {
		Price     *float64 `json:"price"`
		SalePrice *float64 `json:"sale_price"`
		ClearSale bool     `json:"clear_sale"`
		Finish    *string  `json:"finish"`
		Size      *string  `json:"size"`
		InStock   *int     `json:"in_stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	updates := map[string]interface{}{}
	if req.Price != nil {
		if *req.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than zero"})
			return
		}
		updates["price"] = *req.Price
	}
	if req.ClearSale {
		updates["sale_price"] = nil
	} else if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.Finish != nil {
		updates["finish"] = *req.Finish
	}
	if req.Size != nil {
		updates["size"] = *req.Size
	}
	if req.InStock != nil {
		if *req.InStock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Stock cannot be negative"})
			return
		}
		updates["in_stock"] = *req.InStock
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&variant).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update variant"})
			return
		}
	}

	h.DB.Where("id = ?", id).First(&variant)
	c.JSON(http.StatusOK, variant)
}
