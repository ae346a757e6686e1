package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/duskcast/streampipe/internal/config"
)

func main() {
	cfg := config.DefaultConfig()

	if url := os.Getenv("STREAMPIPE_RELAY_URL"); url != "" {
		cfg.WebSocket.URL = url
	}
	enableDebug := os.Getenv("STREAMPIPE_DEBUG") == "1"

	app := NewApp(cfg, enableDebug)
	if err := app.Start(); err != nil {
		log.Fatalf("streampipe: start: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("streampipe: shutting down")
	app.Stop()
}
