package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"maison-backend/models"
	"maison-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderHandler struct {
	DB *gorm.DB
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.Order{}).Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var orders []models.Order
	err := query.Preload("Items").Preload("Payment").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id := c.Param("id")
	role, _ := c.Get("user_role")

	query := h.DB.Preload("Items").Preload("Payment").
		Preload("ShippingAddress").Preload("BillingAddress").
		Where("id = ? OR order_number = ?", id, id)
	// Customers only see their own orders
	if role != "admin" {
		query = query.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var orders []models.Order
	err := query.Preload("Items").Preload("Payment").Preload("User").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// UpdateStatus moves an order along the status state machine. Cancelling a
// pending or paid order returns its units to stock in the same transaction.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var order models.Order
	if err := h.DB.Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	newStatus := models.OrderStatus(req.Status)
	if !models.IsValidTransition(order.Status, newStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Cannot transition order from %s to %s", order.Status, newStatus),
		})
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if newStatus == models.OrderStatusCancelled {
			for _, item := range order.Items {
				err := tx.Model(&models.ProductVariant{}).
					Where("id = ?", item.VariantID).
					Update("in_stock", gorm.Expr("in_stock + ?", item.Quantity)).Error
				if err != nil {
					return err
				}
			}
		}
		return tx.Model(&order).Update("status", newStatus).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order status"})
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", order.UserID).First(&user).Error; err == nil {
		utils.SendOrderStatusUpdate(user.Email, user.Name, order.OrderNumber, string(newStatus))
	}

	h.DB.Preload("Items").Preload("Payment").Where("id = ?", order.ID).First(&order)
	c.JSON(http.StatusOK, order)
}
