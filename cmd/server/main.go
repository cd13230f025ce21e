package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"memorybook-backend/internal/audit"
	"memorybook-backend/internal/config"
	"memorybook-backend/internal/database"
	"memorybook-backend/internal/folders"
	"memorybook-backend/internal/handlers"
	"memorybook-backend/internal/middleware"
	"memorybook-backend/internal/orders"
	"memorybook-backend/internal/services"
	"memorybook-backend/internal/storage"
	"memorybook-backend/internal/tokens"
)

const remoteReadRetries = 3

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	remote, err := newRemote(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	remote = storage.WithRetry(remote, remoteReadRetries)

	tokenStore, cleanup, err := newTokenStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize token store: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	tokenManager := tokens.NewManager(tokenStore)
	resolver := folders.NewResolver(remote, cfg.RootFolderID, cfg.RootFolderName)
	auditLogger := audit.NewLogger(remote, resolver)
	workflow := orders.NewWorkflow(remote, resolver, auditLogger)
	orderService := services.NewOrderService(tokenManager, remote, resolver)

	authHandler := handlers.NewAuthHandler(cfg)
	tokensHandler := handlers.NewTokensHandler(tokenManager, cfg.BaseURL)
	ordersHandler := handlers.NewOrdersHandler(workflow, orderService)
	submitHandler := handlers.NewSubmitHandler(orderService, tokenManager, "./public/order.html")

	router := gin.Default()
	router.Use(middleware.RequestID())
	router.Use(cors.Default())

	router.GET("/health", handlers.HealthHandler)
	router.POST("/admin/login", authHandler.Login)

	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg))
	admin.GET("/tokens", tokensHandler.List)
	admin.POST("/generate-token", tokensHandler.Generate)
	admin.DELETE("/tokens/:token", tokensHandler.Delete)

	adminAPI := router.Group("/api/admin")
	adminAPI.Use(middleware.AdminAuth(cfg))
	adminAPI.GET("/orders", ordersHandler.List)
	adminAPI.POST("/orders/:orderId/status", ordersHandler.UpdateStatus)
	adminAPI.POST("/orders/bulk-update", ordersHandler.BulkUpdate)

	router.GET("/o/:token", submitHandler.TokenLanding)
	router.GET("/api/token/:token", submitHandler.TokenInfo)

	// 5 submissions per 15 minutes per IP, as the original deployment.
	submitLimiter := middleware.SubmitRateLimit(3*time.Minute, 5)
	router.POST("/api/olustur", submitLimiter, submitHandler.Submit)
	router.POST("/api/orders", submitLimiter, submitHandler.Submit)

	log.Printf("Server starting on port %s (storage backend: %s)", cfg.Port, cfg.StorageBackend)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newRemote(ctx context.Context, cfg *config.Config) (storage.Remote, error) {
	switch cfg.StorageBackend {
	case config.BackendDrive:
		return newDriveRemote(ctx, cfg)
	case config.BackendSupabase:
		return storage.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket), nil
	case config.BackendMemory:
		log.Println("Warning: using in-memory storage backend, orders will not survive a restart")
		return storage.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func newDriveRemote(ctx context.Context, cfg *config.Config) (storage.Remote, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drivev3.DriveFileScope},
	}

	tokenJSON := []byte(cfg.GoogleTokenJSON)
	if len(tokenJSON) == 0 {
		data, err := os.ReadFile(cfg.GoogleTokenFile)
		if err != nil {
			return nil, fmt.Errorf("no Google credentials: set GOOGLE_TOKENS or provide %s: %w", cfg.GoogleTokenFile, err)
		}
		tokenJSON = data
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("failed to parse Google token: %w", err)
	}

	return storage.NewDrive(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, &token)))
}

func newTokenStore(cfg *config.Config) (tokens.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Printf("Using file-backed token store: %s", cfg.TokensFile)
		return tokens.NewFileStore(cfg.TokensFile), nil, nil
	}

	migrator, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize migrator: %w", err)
	}
	defer migrator.Close()
	if err := migrator.Run(); err != nil {
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	store, err := tokens.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}
