package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/previewd/previewd/internal/infrastructure/config"
	"github.com/previewd/previewd/internal/infrastructure/server"
)

func main() {
	configFile := flag.String("config", "", "Optional YAML config file overlaid on environment values")
	port := flag.String("port", "", "Server port (overrides config)")
	root := flag.String("root", "", "Default workspace root for new sessions (overrides config)")
	flag.Parse()

	cfg := loadConfig(*configFile)
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Preview.Root = *root
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.LoadOrDefault()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", path, err)
	}
	return cfg
}
