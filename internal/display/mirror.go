package display

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// Mirror forwards drawing to a display and keeps a copy of every frame, so a
// preview can be rendered whatever the driver
type Mirror struct {
	types.Display
	copy *FrameBuffer
}

// NewMirror wraps d
func NewMirror(d types.Display) (*Mirror, error) {
	width, height := d.Size()
	fb, err := NewFrameBuffer(width, height)
	if err != nil {
		return nil, err
	}
	return &Mirror{Display: d, copy: fb}, nil
}

// Init initializes both the display and the copy
func (m *Mirror) Init() error {
	if err := m.Display.Init(); err != nil {
		return err
	}
	return m.copy.Init()
}

// SetPixel sets the pixel on both the display and the copy
func (m *Mirror) SetPixel(x, y int, c color.RGBA) error {
	if err := m.Display.SetPixel(x, y, c); err != nil {
		return err
	}
	return m.copy.SetPixel(x, y, c)
}

// Show pushes the frame to the display
func (m *Mirror) Show() error {
	if err := m.Display.Show(); err != nil {
		return err
	}
	return m.copy.Show()
}

// Image returns the last frame drawn
func (m *Mirror) Image() *image.RGBA {
	return m.copy.Image()
}

// Close closes the display
func (m *Mirror) Close() error {
	if err := m.copy.Close(); err != nil {
		return fmt.Errorf("failed to close mirror: %w", err)
	}
	return m.Display.Close()
}
