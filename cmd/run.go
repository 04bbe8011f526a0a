package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"tokendraw/api"
	"tokendraw/config"
	"tokendraw/database"
	"tokendraw/events"
	"tokendraw/notification"
	"tokendraw/repository"
	"tokendraw/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting tokendraw engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	ledgerService := service.NewTokenLedgerService(uowFactory)
	drawService := service.NewDrawService(uowFactory)
	prizeService := service.NewPrizeService(uowFactory)

	// Wire the prize delivery notifier
	var notifier notification.Notifier
	if cfg.NATSURL != "" {
		log.Println("Connecting to NATS...")
		natsNotifier, err := notification.NewNATSNotifier(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		notifier = natsNotifier
	} else {
		log.Println("NATS not configured, delivery notifications disabled")
		notifier = notification.NoopNotifier{}
	}
	notification.SubscribeToBus(eventBus, notifier)

	// Start the expiry sweep worker
	stopSweep := service.StartExpirySweepWorker(ctx, drawService, cfg.SweepInterval)

	// Start the HTTP server
	server := api.NewServer(cfg.HTTPAddr, ledgerService, drawService, prizeService)
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	log.Printf("Engine is running in %s mode...", cfg.Environment)

	select {
	case err := <-serverErr:
		stopSweep()
		db.Close()
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	stopSweep()
	notifier.Close()

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")

	return nil
}
