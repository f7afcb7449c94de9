// Package terminal shows the LED grid in a true-color terminal and reads the
// buttons from the keyboard.
package terminal

import (
	"fmt"
	"image/color"
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/fkcurrie/matrix-rain-golang/internal/driver"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// cellsPerLED keeps LEDs roughly square, terminal cells being twice as tall as wide
const cellsPerLED = 2

// Display draws each LED as a block of background-colored cells
type Display struct {
	width     int
	height    int
	newScreen func() (tcell.Screen, error)

	keys *driver.KeyState
	quit chan struct{}

	mu     sync.Mutex
	screen tcell.Screen
	once   sync.Once
}

// New creates a terminal display; the screen is taken over by Init
func New(width, height int) (*Display, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	return &Display{
		width:     width,
		height:    height,
		newScreen: tcell.NewScreen,
		keys:      driver.NewKeyState(0),
		quit:      make(chan struct{}),
	}, nil
}

// Init takes over the terminal and starts reading keys
func (d *Display) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen != nil {
		return nil
	}
	screen, err := d.newScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	screen.HideCursor()
	screen.Clear()
	d.screen = screen

	go d.pollEvents(screen)
	return nil
}

// pollEvents feeds key presses to the key state until the screen is finalized
func (d *Display) pollEvents(screen tcell.Screen) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				d.requestQuit()
			case tcell.KeyRune:
				if ev.Rune() == 'q' {
					d.requestQuit()
				} else {
					d.keys.Press(ev.Rune())
				}
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

func (d *Display) requestQuit() {
	d.once.Do(func() {
		log.Println("Quit requested from the keyboard")
		close(d.quit)
	})
}

// Quit is closed when the user asks to leave
func (d *Display) Quit() <-chan struct{} {
	return d.quit
}

// IsPressed reports whether the key of b was pressed recently
func (d *Display) IsPressed(b types.Button) bool {
	return d.keys.IsPressed(b)
}

// Size returns the grid dimensions
func (d *Display) Size() (width, height int) {
	return d.width, d.height
}

// SetPixel colors the cells of one LED
func (d *Display) SetPixel(x, y int, c color.RGBA) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen == nil {
		return types.ErrNotInitialized
	}
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return fmt.Errorf("coordinates out of bounds: (%d, %d)", x, y)
	}
	style := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
	for i := 0; i < cellsPerLED; i++ {
		d.screen.SetContent(x*cellsPerLED+i, y, ' ', nil, style)
	}
	return nil
}

// Show flushes the cells to the terminal
func (d *Display) Show() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen == nil {
		return types.ErrNotInitialized
	}
	d.screen.Show()
	return nil
}

// Close gives the terminal back
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.screen != nil {
		d.screen.Fini()
		d.screen = nil
	}
	return nil
}
