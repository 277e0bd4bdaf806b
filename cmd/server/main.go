package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Edw01/Taller-integro/config"
	"github.com/Edw01/Taller-integro/internal/actions"
	"github.com/Edw01/Taller-integro/internal/auth"
	"github.com/Edw01/Taller-integro/internal/capacity"
	"github.com/Edw01/Taller-integro/internal/chat"
	"github.com/Edw01/Taller-integro/internal/database"
	"github.com/Edw01/Taller-integro/internal/lifecycle"
	"github.com/Edw01/Taller-integro/internal/matching"
	"github.com/Edw01/Taller-integro/internal/notify"
	"github.com/Edw01/Taller-integro/internal/registry"
	"github.com/Edw01/Taller-integro/internal/token"
	"github.com/Edw01/Taller-integro/internal/web/handlers"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("coordination-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	cfg := config.Load()

	if cfg.JWT.SigningKey == "" {
		key, err := token.GenerateSigningKey()
		if err != nil {
			log.Fatalf("Failed to generate JWT signing key: %v", err)
		}
		log.Println("WARNING: JWT_SIGNING_KEY is empty, using a random per-boot key (tokens will not survive restarts)")
		cfg.JWT.SigningKey = key
	}

	// Initialize SQLite database.
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Notifications go through Kafka when brokers are configured.
	var publisher notify.Publisher = notify.Discard{}
	if cfg.Kafka.Brokers != "" {
		publisher = notify.NewKafkaPublisher(strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.NotifyTopic)
	}
	defer publisher.Close()

	authService := auth.New(db, cfg)
	if admin, err := authService.SeedAdmin(); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	} else if admin != nil {
		log.Printf("Seeded admin account: %s (%s)", admin.Email, admin.ID)
	}

	h := handlers.New(handlers.Deps{
		Cfg:       cfg,
		DB:        db,
		Auth:      authService,
		Tokens:    token.New(cfg.JWT.SigningKey, cfg.JWT.Issuer),
		Registry:  registry.New(db),
		Lifecycle: lifecycle.New(db, publisher),
		Matching:  matching.New(db, publisher),
		Chat:      chat.New(db, publisher),
		Capacity:  capacity.New(db),
		Actions:   actions.New(),
	})

	// Expired sessions get cleaned up in the background.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := authService.CleanExpiredSessions(); err != nil {
				log.Printf("Session cleanup error: %v", err)
			}
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Coordination server starting on %s (env: %s)", addr, cfg.Server.Env)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
