package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"microblog/internal/api"
	"microblog/internal/config"
	"microblog/internal/messaging"
	"microblog/internal/metrics"
	"microblog/internal/service"
	"microblog/internal/storage"
	"microblog/internal/worker"

	_ "microblog/docs"
)

// @title Microblog API
// @version 1.0
// @description Account registration, login, and message CRUD with an audit event pipeline
// @host localhost:8080
// @BasePath /
// @schemes http
func main() {
	// Init Metrics
	metrics.Init()

	// Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded")

	// Init PostgreSQL
	db, err := storage.NewStorage(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.DB.Close()
	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("PostgreSQL connected")

	// Init RabbitMQ
	rabbitClient, err := messaging.NewRabbitClient(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitClient.Close()
	if err := rabbitClient.DeclareEventQueue(); err != nil {
		log.Fatalf("Failed to declare event queue: %v", err)
	}
	log.Println("RabbitMQ connected")

	// Init Services
	accounts := service.NewAccountService(db)
	messages := service.NewMessageService(db, db)

	// Start audit worker pool
	pool, err := worker.NewPool(rabbitClient, db, cfg.Workers)
	if err != nil {
		log.Fatalf("Failed to create worker pool: %v", err)
	}
	if err := pool.Start(); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	// Graceful Shutdown Setup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background loop for updating the queue depth gauge
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rabbitClient.UpdateQueueDepth()
			}
		}
	}()

	// Init API
	apiHandler := api.NewAPI(accounts, messages, rabbitClient, cfg)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: apiHandler.Router(),
	}

	go func() {
		log.Printf("🚀 Starting API server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done() // Wait for interrupt signal
	log.Println("Shutdown initiated...")

	// Shutdown sequence
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	// Stop the audit workers
	pool.Stop()

	log.Println("Graceful shutdown complete")
}
