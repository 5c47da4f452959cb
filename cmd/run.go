package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"brawler/config"
	"brawler/database"
	"brawler/events"
	"brawler/repository"
	"brawler/resolver"
	"brawler/service"
	"brawler/web"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting brawler arena...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// External collaborators (combat resolver + moderation service)
	resolverClient := resolver.NewClient(cfg)

	// Initialize services
	log.Println("Initializing services...")
	settlementEngine := service.NewSettlementEngine(uowFactory, cfg)
	moderation := service.NewModerationPipeline(uowFactory, resolverClient, cfg)
	submissions := service.NewSubmissionService(uowFactory, cfg)
	rosterService := service.NewRosterService(uowFactory)
	arena := service.NewArena(uowFactory, resolverClient, settlementEngine, moderation, eventBus, cfg)
	log.Println("Services initialized successfully")

	// Spectator transport
	hub := web.NewHub()
	hub.Attach(eventBus)
	go hub.Run(ctx)

	server := web.NewServer(hub, arena, rosterService, submissions)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}
	go func() {
		log.Printf("HTTP server listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Event loop
	go arena.Run(ctx)

	// Wait for context cancellation
	log.Printf("Arena is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
