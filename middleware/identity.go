package middleware

import (
	"net/http"
	"strings"
	"time"

	"maison-backend/models"
	"maison-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const GuestCookieName = "guest_session"

// Identity is the resolved caller of a cart or checkout request.
// Exactly one of UserID or GuestID is set.
type Identity struct {
	UserID  *uuid.UUID
	GuestID *uuid.UUID
}

func (i Identity) IsUser() bool {
	return i.UserID != nil
}

// IdentityMiddleware resolves the caller to a signed-in user or a guest
// session. A valid Bearer token always wins. Otherwise the guest cookie
// is looked up; expired sessions are purged and a fresh one is minted.
func IdentityMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := utils.ValidateToken(parts[1]); err == nil {
					uid := claims.UserID
					c.Set("identity", Identity{UserID: &uid})
					c.Set("user_id", claims.UserID)
					c.Set("user_role", claims.Role)
					c.Next()
					return
				}
			}
			// Invalid or expired token falls through to guest resolution
		}

		if token, err := c.Cookie(GuestCookieName); err == nil && token != "" {
			var session models.GuestSession
			if err := db.Where("token = ?", token).First(&session).Error; err == nil {
				if session.Expired() {
					PurgeGuestSession(db, session.ID)
				} else {
					gid := session.ID
					c.Set("identity", Identity{GuestID: &gid})
					c.Next()
					return
				}
			}
		}

		session := models.GuestSession{
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(models.GuestSessionTTL),
		}
		if err := db.Create(&session).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest session"})
			c.Abort()
			return
		}

		c.SetCookie(GuestCookieName, session.Token, int(models.GuestSessionTTL.Seconds()), "/", "", false, true)
		gid := session.ID
		c.Set("identity", Identity{GuestID: &gid})
		c.Next()
	}
}

// GetIdentity returns the identity set by IdentityMiddleware.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get("identity")
	if !exists {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// PurgeGuestSession removes a guest session along with its cart.
func PurgeGuestSession(db *gorm.DB, guestID uuid.UUID) {
	var cart models.Cart
	if err := db.Where("guest_id = ?", guestID).First(&cart).Error; err == nil {
		db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{})
		db.Delete(&models.Cart{}, "id = ?", cart.ID)
	}
	db.Delete(&models.GuestSession{}, "id = ?", guestID)
}
