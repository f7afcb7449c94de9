package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fkcurrie/matrix-rain-golang/internal/config"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
	"github.com/fkcurrie/matrix-rain-golang/pkg/gpio"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	interval := flag.Duration("interval", 20*time.Millisecond, "How often to read the buttons")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config from %s: %v", *configPath, err)
		log.Printf("Using default configuration")
		cfg = config.DefaultConfig()
	}

	// Set up signal handler for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Println("Starting button test...")
	buttons, err := gpio.NewButtons(cfg.ButtonConfig())
	if err != nil {
		log.Fatalf("Failed to open buttons: %v", err)
	}
	defer buttons.Close()
	log.Println("Press a, b, x or y; Ctrl-C to stop")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	held := make(map[types.Button]bool)
	for {
		select {
		case <-sigChan:
			log.Println("Shutting down...")
			return
		case <-ticker.C:
			for _, b := range types.Buttons {
				pressed := buttons.IsPressed(b)
				if pressed == held[b] {
					continue
				}
				held[b] = pressed
				if pressed {
					log.Printf("Button %s pressed", b)
				} else {
					log.Printf("Button %s released", b)
				}
			}
		}
	}
}
