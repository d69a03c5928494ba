package database

import (
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"maison-backend/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func migrateTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	// SQLite has no pgcrypto, run AutoMigrate directly
	err := db.AutoMigrate(
		&models.User{},
		&models.GuestSession{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.ProductImage{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Address{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
}

func TestConnectMissingURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	_, err := Connect()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is not set")
	}
}

func TestCreateDefaultAdminSkippedWithoutEnv(t *testing.T) {
	db := openTestDB(t)
	migrateTestDB(t, db)

	os.Unsetenv("ADMIN_EMAIL")
	os.Unsetenv("ADMIN_PASSWORD")

	if err := CreateDefaultAdmin(db); err != nil {
		t.Fatalf("expected nil error when admin env vars missing, got: %v", err)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no users created, got %d", count)
	}
}

func TestCreateDefaultAdmin(t *testing.T) {
	db := openTestDB(t)
	migrateTestDB(t, db)

	os.Setenv("ADMIN_EMAIL", "admin@example.com")
	os.Setenv("ADMIN_PASSWORD", "supersecret")
	defer func() {
		os.Unsetenv("ADMIN_EMAIL")
		os.Unsetenv("ADMIN_PASSWORD")
	}()

	if err := CreateDefaultAdmin(db); err != nil {
		t.Fatalf("CreateDefaultAdmin failed: %v", err)
	}

	var admin models.User
	if err := db.Where("email = ?", "admin@example.com").First(&admin).Error; err != nil {
		t.Fatalf("admin user not found: %v", err)
	}
	if admin.Role != "admin" {
		t.Errorf("expected role admin, got %s", admin.Role)
	}
	if admin.Password == "supersecret" {
		t.Error("admin password should be hashed, not stored in plaintext")
	}

	// Second call should not create a duplicate
	if err := CreateDefaultAdmin(db); err != nil {
		t.Fatalf("second CreateDefaultAdmin failed: %v", err)
	}
	var count int64
	db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 admin, got %d", count)
	}
}
