package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// StartExpirySweepWorker starts a background worker that periodically
// activates due draws and resolves expired ones. It also backstops the
// capacity trigger: a resolution that failed post-commit is retried here.
// Returns a cleanup function to stop the worker gracefully.
func StartExpirySweepWorker(ctx context.Context, draws DrawService, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	stopChan := make(chan struct{})

	sweep := func() {
		if err := draws.SweepExpiredDraws(context.Background()); err != nil {
			log.Errorf("Error sweeping expired draws: %v", err)
		}
	}

	go func() {
		log.Info("Draw expiry sweep worker started")

		// Run immediately on startup
		sweep()

		for {
			select {
			case <-ctx.Done():
				log.Info("Draw expiry sweep worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Draw expiry sweep worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}
