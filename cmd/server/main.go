package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"afkbot/internal/bot"
	"afkbot/internal/conn"
	"afkbot/internal/realtime"
	"afkbot/internal/seed"
	"afkbot/internal/store"
)

// Config holds server configuration, loaded from environment variables.
type Config struct {
	Port      int
	StaticDir string
	SeedFile  string
}

func loadConfig() Config {
	cfg := Config{
		Port:      5000,
		StaticDir: "./frontend/dist",
	}

	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := os.Getenv("SEED_FILE"); v != "" {
		cfg.SeedFile = v
	}

	return cfg
}

func main() {
	cfg := loadConfig()

	// Initialize the session repository and orchestrator.
	st := store.NewMemStore()
	bots := bot.New(st, conn.NewSimDialer())

	// Initialize realtime server and attach it as the event broadcaster.
	rtServer := realtime.New(bots, st, cfg.StaticDir)
	bots.SetBroadcaster(rtServer)

	// Seed configs from file, auto-starting flagged entries, and keep
	// watching the file for edits.
	var seedWatch *seed.Watcher
	if cfg.SeedFile != "" {
		var err error
		seedWatch, err = seed.Watch(cfg.SeedFile, st, func(res seed.Result) {
			for _, id := range res.AutoStart {
				if err := bots.Start(id); err != nil {
					log.Printf("auto-start config %d: %v", id, err)
				}
			}
		})
		if err != nil {
			log.Fatalf("seed file error: %v", err)
		}
	}

	// Set up HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: rtServer.Handler(),
	}

	// Graceful shutdown on signals.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		if seedWatch != nil {
			seedWatch.Close()
		}
		bots.Shutdown()
		httpServer.Close()
	}()

	log.Printf("AFK bot server running on http://localhost:%d", cfg.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
