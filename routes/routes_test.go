package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"maison-backend/payments"
	"maison-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubGateway struct{}

func (s *stubGateway) CreateSession(ctx context.Context, req payments.SessionRequest) (*payments.Session, error) {
	return &payments.Session{}, nil
}
func (s *stubGateway) GetConfirmation(ctx context.Context, sessionID string) (*payments.Confirmation, error) {
	return &payments.Confirmation{}, nil
}
func (s *stubGateway) ParseWebhook(payload []byte, signature string) (*payments.WebhookEvent, error) {
	return &payments.WebhookEvent{}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-for-routes")
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	// Only the tables the smoke tests touch
	tables := []string{
		`CREATE TABLE IF NOT EXISTS "products" (
			"id" TEXT PRIMARY KEY, "name" TEXT NOT NULL, "description" TEXT, "brand" TEXT,
			"category_id" TEXT NOT NULL, "is_published" INTEGER DEFAULT 0,
			"created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "categories" (
			"id" TEXT PRIMARY KEY, "name" TEXT NOT NULL, "slug" TEXT NOT NULL UNIQUE,
			"description" TEXT, "created_at" DATETIME, "updated_at" DATETIME, "deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "guest_sessions" (
			"id" TEXT PRIMARY KEY, "token" TEXT NOT NULL UNIQUE, "expires_at" DATETIME NOT NULL,
			"created_at" DATETIME, "updated_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "carts" (
			"id" TEXT PRIMARY KEY, "user_id" TEXT UNIQUE, "guest_id" TEXT UNIQUE,
			"created_at" DATETIME, "updated_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "cart_items" (
			"id" TEXT PRIMARY KEY, "cart_id" TEXT NOT NULL, "variant_id" TEXT NOT NULL,
			"quantity" INTEGER NOT NULL DEFAULT 1, "created_at" DATETIME, "updated_at" DATETIME
		)`,
	}
	for _, sql := range tables {
		if err := db.Exec(sql).Error; err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := setupTestDB(t)
	r := gin.New()
	SetupRoutes(r, db, &stubGateway{})
	return r, db
}

func TestHealthCheck(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPublicProductsRoute(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/products", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCartRouteMintsGuestSession(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/cart", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous cart, got %d: %s", w.Code, w.Body.String())
	}

	var sawCookie bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "guest_session" {
			sawCookie = true
		}
	}
	if !sawCookie {
		t.Error("expected a guest_session cookie on first cart access")
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/orders", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminRouteBlocksNonAdmin(t *testing.T) {
	r, _ := setupRouter(t)
	token, _ := utils.GenerateToken(uuid.New(), "user@test.com", "customer")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}
