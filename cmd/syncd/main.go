// Command syncd runs on a terminal. It keeps the offline mutation queue and
// replays it against the API whenever the API is reachable.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/offline"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("syncd exited")
	}
}

func run() error {
	cfg, err := config.LoadSync()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue, err := offline.OpenQueue(cfg.QueuePath)
	if err != nil {
		return err
	}
	defer queue.Close()

	transport := offline.NewHTTPTransport(cfg.APIURL, cfg.APIToken, cfg.SendTimeout)
	syncer := offline.NewSyncer(queue, transport, cfg.SyncInterval, cfg.SendTimeout)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           offline.NewLocalHandler(queue, syncer).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(log.Fields{"api": cfg.APIURL, "queue": cfg.QueuePath}).Info("sync agent started")
		return syncer.Run(ctx)
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Acknowledged entries are kept for a while so staff can see what synced.
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := queue.Prune(ctx, time.Now().Add(-cfg.PruneAfter))
				if err != nil {
					log.WithError(err).Warn("prune queue")
					continue
				}
				if n > 0 {
					log.WithField("entries", n).Debug("pruned acknowledged entries")
				}
			}
		}
	})

	return g.Wait()
}
