package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drachma-games/casino/internal/api"
	"github.com/drachma-games/casino/internal/config"
	"github.com/drachma-games/casino/internal/store"
)

func main() {
	configPath := flag.String("config", "casino.yaml", "path to YAML config file")
	flag.Parse()

	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	db, err := store.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("open database %s: %v", cfg.DatabasePath, err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	server := api.NewServer(db, api.Options{
		StartingBalance: cfg.StartingBalance,
		LeaderboardSize: cfg.LeaderboardSize,
	})

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s db=%s", cfg.ListenAddr, cfg.DatabasePath)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server: %v", err)
		}
	case sig := <-sigCh:
		logger.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}
}
