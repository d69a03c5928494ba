package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func LoadEnv() error {
	// Try to load .env file if it exists (for local development).
	// On production the environment variables are set directly.
	err := godotenv.Load()
	if err != nil {
		// .env file not found is not an error - it might be on production
		// Environment variables are already available in os.Getenv()
		return nil
	}
	return nil
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	// Critical variables - application cannot function without these
	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	// Non-critical variables - log warnings but don't fail
	if os.Getenv("STRIPE_SECRET_KEY") == "" {
		log.Println("WARNING: STRIPE_SECRET_KEY not set - card checkout will fail")
	}
	if os.Getenv("STRIPE_WEBHOOK_SECRET") == "" {
		log.Println("WARNING: STRIPE_WEBHOOK_SECRET not set - payment webhooks will be rejected")
	}
	if os.Getenv("FRONTEND_URL") == "" {
		log.Println("WARNING: FRONTEND_URL not set - CORS and checkout redirects may not work correctly")
	}
	if os.Getenv("SMTP_HOST") == "" {
		log.Println("WARNING: SMTP_HOST not set - email notifications will not work")
	}
	if os.Getenv("SMTP_PORT") == "" {
		log.Println("WARNING: SMTP_PORT not set - email notifications will not work")
	}
	if os.Getenv("SMTP_FROM") == "" {
		log.Println("WARNING: SMTP_FROM not set - email notifications will not work")
	}

	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvFloat reads a float-valued variable, falling back to defaultValue
// when unset or unparseable.
func GetEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("WARNING: %s=%q is not a number, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return f
}

// ShippingFlatAmount is the flat shipping charge applied per order.
func ShippingFlatAmount() float64 {
	return GetEnvFloat("SHIPPING_FLAT_AMOUNT", 2.0)
}
