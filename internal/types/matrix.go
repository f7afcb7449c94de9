package types

import (
	"errors"
	"image/color"
)

// ErrNotInitialized is returned by a display that is used before Init
var ErrNotInitialized = errors.New("display not initialized")

// Display represents an RGB LED grid
type Display interface {
	// Init prepares the display for use; it must be called once before anything else
	Init() error
	// Size returns the grid dimensions
	Size() (width, height int)
	// SetPixel sets a pixel at the given coordinates to the given color
	SetPixel(x, y int, c color.RGBA) error
	// Show pushes buffered pixels to the device
	Show() error
	// Close releases the display
	Close() error
}

// Black is the "off" color
var Black = color.RGBA{A: 255}

// RGB builds an opaque color
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Clear turns off every pixel of the display
func Clear(d Display) error {
	width, height := d.Size()
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			if err := d.SetPixel(x, y, Black); err != nil {
				return err
			}
		}
	}
	return d.Show()
}
