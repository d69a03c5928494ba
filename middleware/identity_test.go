package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maison-backend/models"
	"maison-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openIdentityTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.GuestSession{}, &models.Cart{}, &models.CartItem{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func setupIdentityRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(IdentityMiddleware(db))
	r.GET("/whoami", func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no identity"})
			return
		}
		resp := gin.H{"is_user": identity.IsUser()}
		if identity.UserID != nil {
			resp["user_id"] = identity.UserID.String()
		}
		if identity.GuestID != nil {
			resp["guest_id"] = identity.GuestID.String()
		}
		c.JSON(http.StatusOK, resp)
	})
	return r
}

func guestCookieValue(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, raw := range w.Header().Values("Set-Cookie") {
		if strings.HasPrefix(raw, GuestCookieName+"=") {
			return strings.SplitN(strings.SplitN(raw, ";", 2)[0], "=", 2)[1]
		}
	}
	return ""
}

func TestIdentityMintsGuestSession(t *testing.T) {
	db := openIdentityTestDB(t)
	router := setupIdentityRouter(db)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/whoami", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	token := guestCookieValue(t, w)
	if token == "" {
		t.Fatal("expected guest_session cookie to be set")
	}

	var session models.GuestSession
	if err := db.Where("token = ?", token).First(&session).Error; err != nil {
		t.Fatalf("expected guest session persisted: %v", err)
	}
	if session.Expired() {
		t.Error("fresh session should not be expired")
	}
}

func TestIdentityReusesExistingGuestSession(t *testing.T) {
	db := openIdentityTestDB(t)
	router := setupIdentityRouter(db)

	session := models.GuestSession{
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(models.GuestSessionTTL),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: session.Token})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), session.ID.String()) {
		t.Errorf("expected identity to carry existing guest id %s, got %s", session.ID, w.Body.String())
	}

	var count int64
	db.Model(&models.GuestSession{}).Count(&count)
	if count != 1 {
		t.Errorf("expected no new session minted, got %d sessions", count)
	}
}

func TestIdentityPurgesExpiredGuestSession(t *testing.T) {
	db := openIdentityTestDB(t)
	router := setupIdentityRouter(db)

	expired := models.GuestSession{
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatal(err)
	}
	gid := expired.ID
	cart := models.Cart{GuestID: &gid}
	if err := db.Create(&cart).Error; err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: expired.Token})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// Old session and its cart are gone, replaced by a fresh session
	var sessionCount int64
	db.Model(&models.GuestSession{}).Where("id = ?", expired.ID).Count(&sessionCount)
	if sessionCount != 0 {
		t.Error("expired session should have been purged")
	}
	var cartCount int64
	db.Model(&models.Cart{}).Where("guest_id = ?", expired.ID).Count(&cartCount)
	if cartCount != 0 {
		t.Error("expired session's cart should have been purged")
	}
	if newToken := guestCookieValue(t, w); newToken == "" || newToken == expired.Token {
		t.Error("expected a fresh guest cookie after expiry")
	}
}

func TestIdentityPrefersBearerToken(t *testing.T) {
	db := openIdentityTestDB(t)
	router := setupIdentityRouter(db)

	userID := uuid.New()
	token, err := utils.GenerateToken(userID, "signedin@test.com", "customer")
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), userID.String()) {
		t.Errorf("expected user identity, got %s", w.Body.String())
	}

	var count int64
	db.Model(&models.GuestSession{}).Count(&count)
	if count != 0 {
		t.Error("signed-in request should not mint a guest session")
	}
}

func TestIdentityInvalidBearerFallsBackToGuest(t *testing.T) {
	db := openIdentityTestDB(t)
	router := setupIdentityRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "guest_id") {
		t.Errorf("expected guest identity fallback, got %s", w.Body.String())
	}
}
