// Package config loads application configuration from environment
// variables.  The selection mode and guest checkout toggle are read once
// here and injected into the components that need them; nothing re-reads
// them mid-flight, so changing a toggle requires a restart.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	JWTSecret    string // secret used to sign member and guest tokens
	AccessTTLMin int    // member access token time-to-live in minutes
	GuestTTLMin  int    // guest token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	// BookingMode is the system-wide selection policy: "manual" lets the
	// customer name seats, "auto" allocates by category preference.
	BookingMode model.SelectionMode
	// GuestCheckout enables anonymous guest-token checkout.
	GuestCheckout bool

	// HallRows and HallCols size the seat grid built at startup.
	HallRows int
	HallCols int

	// InventoryBackend selects the storage: "memory" or "mysql".
	InventoryBackend string

	DBUser string // database username (mysql backend only)
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name
}

// Load reads configuration from the environment.  JWT_SECRET is required;
// everything else defaults to a sensible development setup.  The database
// variables are validated in main only when the mysql backend is chosen.
func Load() Config {
	cfg := Config{
		Env:              getenv("APP_ENV", "dev"),
		Port:             getenv("APP_PORT", "8080"),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     atoiDefault(getenv("ACCESS_TOKEN_TTL_MIN", "30"), 30),
		GuestTTLMin:      atoiDefault(getenv("GUEST_TOKEN_TTL_MIN", "30"), 30),
		BcryptCost:       atoiDefault(getenv("BCRYPT_COST", "10"), 10),
		GuestCheckout:    getenv("GUEST_CHECKOUT_ENABLED", "true") == "true",
		HallRows:         atoiDefault(getenv("HALL_ROWS", "10"), 10),
		HallCols:         atoiDefault(getenv("HALL_COLS", "10"), 10),
		InventoryBackend: strings.ToLower(getenv("INVENTORY_BACKEND", "memory")),
		DBUser:           os.Getenv("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           os.Getenv("DB_HOST"),
		DBPort:           os.Getenv("DB_PORT"),
		DBName:           os.Getenv("DB_NAME"),
	}
	switch strings.ToLower(getenv("BOOKING_MODE", "manual")) {
	case "auto", "automatic":
		cfg.BookingMode = model.ModeAuto
	default:
		cfg.BookingMode = model.ModeManual
	}
	if cfg.HallRows < 1 || cfg.HallCols < 1 {
		log.Fatalf("invalid hall dimensions: %dx%d", cfg.HallRows, cfg.HallCols)
	}
	return cfg
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// Helper functions shared with cache.go and ratelimit.go.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
