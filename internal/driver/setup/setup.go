// Package setup opens the display and buttons named by the configuration.
package setup

import (
	"fmt"
	"log"

	"github.com/fkcurrie/matrix-rain-golang/internal/config"
	"github.com/fkcurrie/matrix-rain-golang/internal/display"
	"github.com/fkcurrie/matrix-rain-golang/internal/driver/terminal"
	"github.com/fkcurrie/matrix-rain-golang/internal/driver/tinydisplay"
	"github.com/fkcurrie/matrix-rain-golang/internal/driver/window"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
	"github.com/fkcurrie/matrix-rain-golang/pkg/gpio"
	"github.com/fkcurrie/matrix-rain-golang/pkg/hub75"
)

// Hardware is an opened display with its buttons
type Hardware struct {
	Display types.Display
	Buttons types.ButtonReader
	// Quit is closed when the user asks to leave from the driver; nil if it never is
	Quit <-chan struct{}
	// Main, when set, must run on the main goroutine until the driver is done
	Main func() error
	// Stop makes Main return
	Stop func()

	closers []func() error
}

// NoButtons never reports a press
type NoButtons struct{}

// IsPressed always returns false
func (NoButtons) IsPressed(types.Button) bool { return false }

// Open creates the driver selected by cfg.Display.Driver. The display is not
// initialized yet; that is left to whoever runs the apps.
func Open(cfg *config.Config) (*Hardware, error) {
	width, height := cfg.Display.Width, cfg.Display.Height
	log.Printf("Opening %s driver for a %dx%d display", cfg.Display.Driver, width, height)

	switch cfg.Display.Driver {
	case config.DriverHeadless:
		fb, err := display.NewFrameBuffer(width, height)
		if err != nil {
			return nil, err
		}
		return &Hardware{Display: fb, Buttons: NoButtons{}}, nil

	case config.DriverTerminal:
		d, err := terminal.New(width, height)
		if err != nil {
			return nil, err
		}
		return &Hardware{Display: d, Buttons: d, Quit: d.Quit()}, nil

	case config.DriverWindow:
		scale := cfg.Display.Scale
		game, err := window.New(width*scale, height*scale)
		if err != nil {
			return nil, err
		}
		d, err := tinydisplay.New(game, width, height, scale)
		if err != nil {
			return nil, err
		}
		return &Hardware{Display: d, Buttons: game, Quit: game.Quit(), Main: game.RunGame, Stop: game.Stop}, nil

	case config.DriverHUB75:
		m, err := hub75.New(cfg.PanelConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create HUB75 panel: %w", err)
		}
		hw := &Hardware{Display: m, Buttons: NoButtons{}}
		buttons, err := gpio.NewButtons(cfg.ButtonConfig())
		if err != nil {
			log.Printf("Buttons unavailable, running without controls: %v", err)
			return hw, nil
		}
		hw.Buttons = buttons
		hw.closers = append(hw.closers, buttons.Close)
		return hw, nil
	}
	return nil, fmt.Errorf("unknown display driver %q", cfg.Display.Driver)
}

// Close releases everything but the display, which its user closes
func (h *Hardware) Close() error {
	var first error
	for _, c := range h.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	h.closers = nil
	return first
}
