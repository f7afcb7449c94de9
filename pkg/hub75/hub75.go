// Package hub75 drives a HUB75 RGB LED panel by bit-banging GPIO lines through
// the character device.
package hub75

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// Pins holds the line offsets of the HUB75 connector
type Pins struct {
	R1, G1, B1 int // upper half data
	R2, G2, B2 int // lower half data
	CLK        int
	OE         int
	LAT        int
	A, B, C, D int // row address
	E          int // only used by 64 high panels
}

func (p Pins) all() []int {
	return []int{p.R1, p.G1, p.B1, p.R2, p.G2, p.B2, p.CLK, p.OE, p.LAT, p.A, p.B, p.C, p.D, p.E}
}

// Config describes the panel and how the LED grid is scaled onto it
type Config struct {
	Chip string
	Pins Pins
	// Width and Height are the logical grid the animation draws on
	Width, Height int
	// Scale is the side of the block of panel pixels lighting one grid LED
	Scale                   int
	PanelWidth, PanelHeight int
	Brightness              int
	// Planes is the number of color bits shown, most significant first
	Planes int
}

// output is the part of *gpiocdev.Line the panel uses
type output interface {
	SetValue(value int) error
	Close() error
}

// Matrix is a types.Display on a HUB75 panel
type Matrix struct {
	cfg     Config
	request func(chip string, offset int) (output, error)

	mu     sync.Mutex
	lines  map[int]output
	pixels []color.RGBA
	planes [][][]byte

	cancel context.CancelFunc
	done   chan struct{}
}

// New validates cfg and creates a panel; lines are requested by Init
func New(cfg Config) (*Matrix, error) {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.Planes <= 0 || cfg.Planes > 8 {
		cfg.Planes = 3
	}
	switch {
	case cfg.Width <= 0 || cfg.Height <= 0:
		return nil, fmt.Errorf("invalid dimensions: %dx%d", cfg.Width, cfg.Height)
	case cfg.PanelHeight <= 0 || cfg.PanelHeight%2 != 0 || cfg.PanelHeight > 64:
		return nil, fmt.Errorf("invalid panel height %d", cfg.PanelHeight)
	case cfg.Width*cfg.Scale > cfg.PanelWidth || cfg.Height*cfg.Scale > cfg.PanelHeight:
		return nil, fmt.Errorf("%dx%d grid at scale %d does not fit a %dx%d panel",
			cfg.Width, cfg.Height, cfg.Scale, cfg.PanelWidth, cfg.PanelHeight)
	case cfg.Brightness < 0 || cfg.Brightness > 255:
		return nil, fmt.Errorf("brightness must be between 0 and 255")
	}

	return &Matrix{
		cfg: cfg,
		request: func(chip string, offset int) (output, error) {
			return gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("matrix-rain"))
		},
		pixels: make([]color.RGBA, cfg.Width*cfg.Height),
	}, nil
}

// Init requests the GPIO lines and starts refreshing the panel
func (m *Matrix) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lines != nil {
		return nil
	}
	m.lines = make(map[int]output)
	log.Println("Requesting GPIO lines...")
	for _, pin := range m.cfg.Pins.all() {
		line, err := m.request(m.cfg.Chip, pin)
		if err != nil {
			m.closeLines()
			return fmt.Errorf("failed to request GPIO pin %d: %w", pin, err)
		}
		m.lines[pin] = line
	}
	for i := range m.pixels {
		m.pixels[i] = types.Black
	}
	m.planes = m.pack()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.refresh(ctx, m.done)
	return nil
}

// Size returns the logical grid dimensions
func (m *Matrix) Size() (width, height int) {
	return m.cfg.Width, m.cfg.Height
}

// SetPixel sets a pixel of the back buffer
func (m *Matrix) SetPixel(x, y int, c color.RGBA) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lines == nil {
		return types.ErrNotInitialized
	}
	if x < 0 || x >= m.cfg.Width || y < 0 || y >= m.cfg.Height {
		return fmt.Errorf("pixel coordinates out of bounds: %d,%d", x, y)
	}
	m.pixels[y*m.cfg.Width+x] = c
	return nil
}

// Show hands the back buffer to the refresh loop
func (m *Matrix) Show() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lines == nil {
		return types.ErrNotInitialized
	}
	m.planes = m.pack()
	return nil
}

// pack returns the bit planes of the back buffer; the caller holds m.mu
func (m *Matrix) pack() [][][]byte {
	planes := make([][][]byte, m.cfg.Planes)
	for i := range planes {
		planes[i] = PackFrame(m.pixels, m.cfg, uint(7-i))
	}
	return planes
}

// PackFrame lays one bit plane of the grid out in HUB75 scan order: one slice
// per address row, 6 bytes per panel column holding R1 G1 B1 R2 G2 B2
func PackFrame(pixels []color.RGBA, cfg Config, plane uint) [][]byte {
	rows := cfg.PanelHeight / 2
	frame := make([][]byte, rows)
	for i := range frame {
		frame[i] = make([]byte, cfg.PanelWidth*6)
	}

	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	for py := 0; py < cfg.Height*scale; py++ {
		for px := 0; px < cfg.Width*scale; px++ {
			c := pixels[(py/scale)*cfg.Width+px/scale]
			idx := px * 6
			row := py
			if py >= rows {
				idx += 3
				row -= rows
			}
			frame[row][idx+0] = bit(c.R, cfg.Brightness, plane)
			frame[row][idx+1] = bit(c.G, cfg.Brightness, plane)
			frame[row][idx+2] = bit(c.B, cfg.Brightness, plane)
		}
	}
	return frame
}

func bit(v uint8, brightness int, plane uint) byte {
	scaled := int(v) * brightness / 255
	return byte(scaled>>plane) & 1
}

// refresh scans the panel until ctx is cancelled. Plane i is shown 2^(n-1-i)
// times per frame, so brighter bits stay lit longer.
func (m *Matrix) refresh(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.mu.Lock()
		planes := m.planes
		m.mu.Unlock()

		for i, frame := range planes {
			for n := 0; n < 1<<(len(planes)-1-i); n++ {
				if err := m.RenderFrame(frame); err != nil {
					log.Printf("Error rendering frame: %v", err)
					return
				}
			}
		}
	}
}

// RenderFrame clocks one packed frame out to the panel
func (m *Matrix) RenderFrame(frame [][]byte) error {
	for row, data := range frame {
		if err := m.UpdateRow(row, data); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRow clocks one address row out and latches it
func (m *Matrix) UpdateRow(row int, data []byte) error {
	p := m.cfg.Pins
	addr := row & 0x1F
	for i, pin := range []int{p.A, p.B, p.C, p.D, p.E} {
		if err := m.setPin(pin, (addr>>i)&1); err != nil {
			return err
		}
	}

	// output off while shifting
	if err := m.setPin(p.OE, 1); err != nil {
		return err
	}
	data6 := []int{p.R1, p.G1, p.B1, p.R2, p.G2, p.B2}
	for idx := 0; idx+5 < len(data); idx += 6 {
		for i, pin := range data6 {
			if err := m.setPin(pin, int(data[idx+i])); err != nil {
				return err
			}
		}
		if err := m.pulse(p.CLK); err != nil {
			return err
		}
	}
	if err := m.pulse(p.LAT); err != nil {
		return err
	}
	return m.setPin(p.OE, 0)
}

func (m *Matrix) pulse(pin int) error {
	if err := m.setPin(pin, 1); err != nil {
		return err
	}
	return m.setPin(pin, 0)
}

func (m *Matrix) setPin(pin, value int) error {
	line, ok := m.lines[pin]
	if !ok {
		return fmt.Errorf("GPIO pin %d not requested", pin)
	}
	return line.SetValue(value)
}

// Close stops refreshing, blanks the panel and releases the lines
func (m *Matrix) Close() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			log.Println("Timed out waiting for the refresh loop")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lines == nil {
		return nil
	}
	if err := m.setPin(m.cfg.Pins.OE, 1); err != nil {
		log.Printf("Failed to blank panel: %v", err)
	}
	m.closeLines()
	return nil
}

// closeLines releases every requested line; the caller holds m.mu
func (m *Matrix) closeLines() {
	for pin, line := range m.lines {
		if err := line.Close(); err != nil {
			log.Printf("Error closing pin %d: %v", pin, err)
		}
	}
	m.lines = nil
}
