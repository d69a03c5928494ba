package routes

import (
	"time"

	"maison-backend/handlers"
	"maison-backend/middleware"
	"maison-backend/payments"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, gateway payments.Gateway) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db}
	productHandler := &handlers.ProductHandler{DB: db}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	cartHandler := &handlers.CartHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db}
	checkoutHandler := &handlers.CheckoutHandler{DB: db, Gateway: gateway}

	// Credential endpoints get a tighter limit than the rest of the API
	authLimiter := middleware.NewRateLimiter(10, 1*time.Minute)

	// Public routes
	api := r.Group("/api")
	{
		// Auth routes
		api.POST("/auth/register", authLimiter.Middleware(), authHandler.Register)
		api.POST("/auth/login", authLimiter.Middleware(), authHandler.Login)
		api.POST("/auth/refresh", authLimiter.Middleware(), authHandler.RefreshTokenHandler)

		// Public catalog routes
		api.GET("/products", productHandler.ListProducts)
		api.GET("/products/:id", productHandler.GetProduct)
		api.GET("/categories", categoryHandler.ListCategories)
		api.GET("/categories/:slug", categoryHandler.GetCategory)

		// Gateway webhook (verified by signature, not by session)
		api.POST("/webhooks/stripe", checkoutHandler.HandleWebhook)
	}

	// Cart routes resolve the caller to a user or guest session
	cart := api.Group("/cart")
	cart.Use(middleware.IdentityMiddleware(db))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddItem)
		cart.PUT("/items/:variantID", cartHandler.UpdateItem)
		cart.DELETE("/items/:variantID", cartHandler.RemoveItem)
		cart.DELETE("", cartHandler.ClearCart)
		cart.GET("/stock", cartHandler.ValidateStock)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		// User profile
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		// Checkout routes
		protected.POST("/checkout/session", checkoutHandler.CreateSession)
		protected.POST("/checkout/confirm", checkoutHandler.ConfirmSession)
		protected.POST("/checkout/cod", checkoutHandler.CheckoutCOD)

		// Order routes
		protected.GET("/orders", orderHandler.ListOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		// Product management
		admin.GET("/products/:id", productHandler.GetProduct)
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.PUT("/variants/:variantID", productHandler.UpdateVariant)

		// Category management
		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		// Order management
		admin.GET("/orders", orderHandler.ListAllOrders)
		admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
