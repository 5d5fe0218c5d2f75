package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vantage-bot/gateway/internal/adapter/backend"
	"github.com/vantage-bot/gateway/internal/adapter/llm"
	"github.com/vantage-bot/gateway/internal/adapter/telegram"
	"github.com/vantage-bot/gateway/internal/config"
	"github.com/vantage-bot/gateway/internal/script"
	"github.com/vantage-bot/gateway/internal/service"
	"github.com/vantage-bot/gateway/internal/tools"
	handler "github.com/vantage-bot/gateway/internal/transport/http"
	"github.com/vantage-bot/gateway/policy"
)

func main() {
	// Load .env if present; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting gateway...")
	log.Printf("Model: %s via %s", cfg.ModelName, cfg.VLLMURL)
	log.Printf("Backend API: %s", cfg.BackendAPIURL)
	log.Printf("Default project: %s", cfg.DefaultProject)
	log.Printf("Ops HTTP port: %d", cfg.HTTPPort)

	if err := os.MkdirAll(cfg.MediaInboxDir, 0o755); err != nil {
		log.Fatalf("Failed to create media inbox %s: %v", cfg.MediaInboxDir, err)
	}

	// Initialize adapters
	bot := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramToken, 40*time.Second)
	backendClient := backend.NewClient(cfg.BackendAPIURL, 10*time.Second)
	llmClient := llm.NewClient(cfg.VLLMURL, cfg.LLMTimeout)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize tool registry
	runner := script.NewRunner("python3")
	registry, err := tools.NewRegistry(tools.All(runner.Run, tools.Dirs{
		Task:    cfg.TaskScriptsDir,
		RFP:     cfg.RFPScriptsDir,
		Project: cfg.ProjectScriptsDir,
	})...)
	if err != nil {
		log.Fatalf("Failed to build tool registry: %v", err)
	}
	log.Printf("Registered %d tools", len(registry.Names()))

	// Initialize service
	svc := service.New(cfg, bot, backendClient, llmClient, registry, policyEngine)

	// Start ops server
	opsServer := handler.NewServer(cfg, registry)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := opsServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start ops server: %v", err)
		}
	}()
	log.Printf("Ops server started on port %d", cfg.HTTPPort)

	// Run the Telegram poll loop until interrupted.
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Polling Telegram for updates...")
	if err := svc.Run(runCtx); err != nil && runCtx.Err() == nil {
		log.Printf("Poll loop stopped: %v", err)
	}

	log.Println("Shutting down gateway...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown ops server gracefully: %v", err)
	}

	log.Println("Gateway stopped")
}
