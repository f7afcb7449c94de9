package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fkcurrie/matrix-rain-golang/internal/appmgr"
	"github.com/fkcurrie/matrix-rain-golang/internal/config"
	"github.com/fkcurrie/matrix-rain-golang/internal/control"
	"github.com/fkcurrie/matrix-rain-golang/internal/display"
	"github.com/fkcurrie/matrix-rain-golang/internal/driver/setup"
	"github.com/fkcurrie/matrix-rain-golang/internal/palette"
	"github.com/fkcurrie/matrix-rain-golang/internal/rain"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	driverName := flag.String("driver", "", "Display driver: terminal, window, hub75 or headless")
	logPath := flag.String("log", "", "Log file; the terminal driver logs to matrix-rain.log by default")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		log.Printf("No config at %s, using default configuration", *configPath)
		cfg = config.DefaultConfig()
	}
	if *driverName != "" {
		cfg.Display.Driver = *driverName
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	// Logging to stderr would scribble over the terminal display
	if *logPath == "" && cfg.Display.Driver == config.DriverTerminal {
		*logPath = "matrix-rain.log"
	}
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	rainOpts, err := cfg.RainOptions()
	if err != nil {
		log.Fatalf("Invalid animation settings: %v", err)
	}
	controlCfg, err := cfg.ControlConfig()
	if err != nil {
		log.Fatalf("Invalid controls: %v", err)
	}

	hw, err := setup.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open display: %v", err)
	}
	defer hw.Close()

	// Mirror the frames when a preview is wanted
	disp := hw.Display
	var renderer *display.Renderer
	if cfg.Preview.Path != "" {
		mirror, err := display.NewMirror(disp)
		if err != nil {
			log.Fatalf("Failed to create preview mirror: %v", err)
		}
		renderer, err = display.NewRenderer(cfg.RendererConfig())
		if err != nil {
			log.Fatalf("Failed to create preview renderer: %v", err)
		}
		renderer.SetSource(mirror)
		disp = mirror
	}

	apps := []appmgr.Factory{
		func(d types.Display) (types.App, error) {
			width, height := d.Size()
			log.Printf("Starting rain animation on %dx%d display", width, height)
			s, err := rain.New(d, rainOpts)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		func(d types.Display) (types.App, error) {
			return palette.New(d, rainOpts.Tables.Palettes)
		},
	}
	mgr, err := appmgr.NewManager(disp, apps, 0)
	if err != nil {
		log.Fatalf("Failed to create app manager: %v", err)
	}
	if err := mgr.Start(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer mgr.Close()

	dispatcher, err := control.NewDispatcher(hw.Buttons, mgr, controlCfg)
	if err != nil {
		log.Fatalf("Failed to create dispatcher: %v", err)
	}

	// Handle shutdown gracefully
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := dispatcher.Run(ctx); err == nil {
			// the apps have exited
			cancel()
		}
	}()
	if renderer != nil {
		go renderer.Start(ctx)
	}
	if hw.Quit != nil {
		go func() {
			select {
			case <-hw.Quit:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

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
	log.Println("Shutting down...")
}
