// Package tinydisplay draws the LED grid on any TinyGo display driver, such
// as a small SPI screen, scaling each LED to a square block of device pixels.
package tinydisplay

import (
	"fmt"
	"image/color"
	"sync"

	"tinygo.org/x/drivers"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// Display adapts a drivers.Displayer to types.Display
type Display struct {
	dev    drivers.Displayer
	width  int
	height int
	scale  int

	mu          sync.Mutex
	initialized bool
}

// New creates a width x height grid on dev; scale <= 0 fits the grid to the device
func New(dev drivers.Displayer, width, height, scale int) (*Display, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	dw, dh := dev.Size()
	if scale <= 0 {
		scale = min(int(dw)/width, int(dh)/height)
	}
	if scale <= 0 || width*scale > int(dw) || height*scale > int(dh) {
		return nil, fmt.Errorf("%dx%d grid does not fit a %dx%d display", width, height, dw, dh)
	}
	return &Display{dev: dev, width: width, height: height, scale: scale}, nil
}

// Init marks the display ready; the device itself is configured by its driver
func (d *Display) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	return nil
}

// Size returns the grid dimensions
func (d *Display) Size() (width, height int) {
	return d.width, d.height
}

// SetPixel fills the block of one LED
func (d *Display) SetPixel(x, y int, c color.RGBA) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return types.ErrNotInitialized
	}
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return fmt.Errorf("coordinates out of bounds: (%d, %d)", x, y)
	}
	for py := y * d.scale; py < (y+1)*d.scale; py++ {
		for px := x * d.scale; px < (x+1)*d.scale; px++ {
			d.dev.SetPixel(int16(px), int16(py), c)
		}
	}
	return nil
}

// Show flushes the device buffer
func (d *Display) Show() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return types.ErrNotInitialized
	}
	return d.dev.Display()
}

// Close stops drawing; the device stays with its driver
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	return nil
}
