package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"memorybook-backend/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ADMIN_PASSWORD", "sifre")
	t.Setenv("ADMIN_JWT_SECRET", "gizli")
	t.Setenv("STORAGE_BACKEND", config.BackendMemory)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "Ani-Defteri-Siparisler", cfg.RootFolderName)
	assert.Equal(t, "customer-tokens.json", cfg.TokensFile)
}

func TestLoadRequiresAdminSecrets(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("ADMIN_JWT_SECRET", "gizli")
	t.Setenv("STORAGE_BACKEND", config.BackendMemory)

	_, err := config.Load()
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")

	t.Setenv("ADMIN_PASSWORD", "sifre")
	t.Setenv("ADMIN_JWT_SECRET", "")
	_, err = config.Load()
	assert.ErrorContains(t, err, "ADMIN_JWT_SECRET")
}

func TestValidateBackendRequirements(t *testing.T) {
	base := config.Config{
		AdminPassword:  "sifre",
		AdminJWTSecret: "gizli",
	}

	drive := base
	drive.StorageBackend = config.BackendDrive
	assert.ErrorContains(t, drive.Validate(), "GOOGLE_CLIENT_ID")
	drive.GoogleClientID = "id"
	drive.GoogleClientSecret = "secret"
	assert.NoError(t, drive.Validate())

	supabase := base
	supabase.StorageBackend = config.BackendSupabase
	assert.ErrorContains(t, supabase.Validate(), "SUPABASE_URL")
	supabase.SupabaseURL = "https://example.supabase.co"
	supabase.SupabaseServiceKey = "key"
	assert.NoError(t, supabase.Validate())

	unknown := base
	unknown.StorageBackend = "ftp"
	assert.ErrorContains(t, unknown.Validate(), "STORAGE_BACKEND")
}
