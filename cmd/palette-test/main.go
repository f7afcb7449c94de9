package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/fkcurrie/matrix-rain-golang/internal/config"
	"github.com/fkcurrie/matrix-rain-golang/internal/driver/setup"
	"github.com/fkcurrie/matrix-rain-golang/internal/palette"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	driverName := flag.String("driver", "", "Display driver: terminal, window, hub75 or headless")
	delay := flag.Duration("delay", 2*time.Second, "How long each palette is shown")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("Failed to load config from %s: %v", *configPath, err)
		log.Printf("Using default configuration")
		cfg = config.DefaultConfig()
	}
	if *driverName != "" {
		cfg.Display.Driver = *driverName
	}
	tables, err := cfg.Tables()
	if err != nil {
		log.Fatalf("Invalid palettes: %v", err)
	}

	hw, err := setup.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open display: %v", err)
	}
	defer hw.Close()

	if err := hw.Display.Init(); err != nil {
		log.Fatalf("Failed to initialize display: %v", err)
	}
	defer func() {
		if err := types.Clear(hw.Display); err != nil {
			log.Printf("Failed to clear display: %v", err)
		}
		hw.Display.Close()
	}()

	viewer, err := palette.New(hw.Display, tables.Palettes)
	if err != nil {
		log.Fatalf("Failed to create palette viewer: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if hw.Quit != nil {
		go func() {
			select {
			case <-hw.Quit:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	// Show every palette once, then stop
	go func() {
		defer cancel()
		viewer.Trigger(types.TriggerRun)
		for i := 1; ; i++ {
			log.Printf("Showing palette %d/%d", viewer.Index()+1, len(tables.Palettes))
			select {
			case <-ctx.Done():
				return
			case <-time.After(*delay):
			}
			if i == len(tables.Palettes) {
				return
			}
			viewer.Trigger(types.TriggerCycleColor)
		}
	}()

	if hw.Main != nil {
		go func() {
			<-ctx.Done()
			hw.Stop()
		}()
		if err := hw.Main(); err != nil {
			log.Printf("Display loop failed: %v", err)
		}
		cancel()
	}
	<-ctx.Done()
	log.Println("Palette test completed")
}
