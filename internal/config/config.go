package config

import (
	"fmt"
	"os"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendDrive    = "drive"
	BackendSupabase = "supabase"
	BackendMemory   = "memory"
)

type Config struct {
	// Server
	Port        string
	Environment string
	BaseURL     string

	// Admin panel
	AdminUsername  string
	AdminPassword  string
	AdminJWTSecret string

	// Remote storage
	StorageBackend string
	RootFolderID   string
	RootFolderName string

	// Google Drive backend
	GoogleClientID     string
	GoogleClientSecret string
	GoogleTokenJSON    string
	GoogleTokenFile    string

	// Supabase Storage backend
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	// Token store: Postgres when DatabaseURL is set, JSON file otherwise
	DatabaseURL string
	TokensFile  string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendDrive),
		RootFolderID:   getEnv("ROOT_FOLDER_ID", ""),
		RootFolderName: getEnv("ROOT_FOLDER_NAME", "Ani-Defteri-Siparisler"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleTokenJSON:    getEnv("GOOGLE_TOKENS", ""),
		GoogleTokenFile:    getEnv("GOOGLE_TOKEN_FILE", "tokens.json"),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "orders"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		TokensFile:  getEnv("TOKENS_FILE", "customer-tokens.json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	if c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required")
	}

	switch c.StorageBackend {
	case BackendDrive:
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for the drive backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase backend")
		}
	case BackendMemory:
		// Development only, nothing to validate.
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
