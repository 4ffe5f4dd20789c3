package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/tableside-pos/api/internal/catalog"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/discovery"
	"github.com/tableside-pos/api/internal/dispatch"
	"github.com/tableside-pos/api/internal/router"
	"github.com/tableside-pos/api/internal/ws"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	queries := database.New(pool)

	// Print dispatch
	var printer dispatch.Printer = dispatch.LogPrinter{}
	if cfg.AMQPURL != "" {
		broker, err := dispatch.ConnectBroker(cfg.AMQPURL, cfg.PrintExchange)
		if err != nil {
			return err
		}
		defer broker.Close()
		printer = dispatch.NewAMQPPrinter(broker.Channel, cfg.PrintExchange, cfg.PrintTimeout)
	} else {
		log.Warn("AMQP_URL not set, tickets are written to the log")
	}

	// Menu catalog
	cacheDB, err := catalog.OpenCacheDB(cfg.CatalogCacheDir)
	if err != nil {
		return err
	}
	defer cacheDB.Close()
	menu := catalog.NewCache(cacheDB, catalog.NewPostgresProvider(queries), cfg.CatalogCacheTTL)

	hub := ws.NewHub()
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, queries, pool, hub, menu, printer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.MDNSEnabled {
		g.Go(func() error {
			host, _ := os.Hostname()
			if err := discovery.Advertise(ctx, "Tableside POS "+host, cfg.Port); err != nil {
				// Discovery is a convenience; terminals can still be configured by hand.
				log.WithError(err).Warn("mdns disabled")
			}
			return nil
		})
	}

	return g.Wait()
}
