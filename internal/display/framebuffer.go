package display

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// FrameBuffer is an in-memory display. It backs the headless driver and the
// preview renderer, and stands in for hardware in tests.
type FrameBuffer struct {
	width  int
	height int

	mu          sync.RWMutex
	initialized bool
	pixels      []color.RGBA
	shows       int
}

// NewFrameBuffer creates a framebuffer of the given size
func NewFrameBuffer(width, height int) (*FrameBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	return &FrameBuffer{
		width:  width,
		height: height,
		pixels: make([]color.RGBA, width*height),
	}, nil
}

// Init marks the framebuffer ready and turns every pixel off
func (f *FrameBuffer) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.pixels {
		f.pixels[i] = types.Black
	}
	f.initialized = true
	return nil
}

// Size returns the dimensions of the framebuffer
func (f *FrameBuffer) Size() (width, height int) {
	return f.width, f.height
}

// SetPixel sets a pixel at the given coordinates to the given color
func (f *FrameBuffer) SetPixel(x, y int, c color.RGBA) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return types.ErrNotInitialized
	}
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return fmt.Errorf("coordinates out of bounds: (%d, %d)", x, y)
	}
	f.pixels[y*f.width+x] = c
	return nil
}

// Pixel returns the color at the given coordinates
func (f *FrameBuffer) Pixel(x, y int) (color.RGBA, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.initialized {
		return color.RGBA{}, types.ErrNotInitialized
	}
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return color.RGBA{}, fmt.Errorf("coordinates out of bounds: (%d, %d)", x, y)
	}
	return f.pixels[y*f.width+x], nil
}

// Show counts the frames pushed so far
func (f *FrameBuffer) Show() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return types.ErrNotInitialized
	}
	f.shows++
	return nil
}

// Shows returns how many times Show was called
func (f *FrameBuffer) Shows() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.shows
}

// Image returns a copy of the current frame, one image pixel per LED
func (f *FrameBuffer) Image() *image.RGBA {
	f.mu.RLock()
	defer f.mu.RUnlock()

	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			img.SetRGBA(x, y, f.pixels[y*f.width+x])
		}
	}
	return img
}

// Close releases the framebuffer
func (f *FrameBuffer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.initialized = false
	return nil
}
