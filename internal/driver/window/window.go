// Package window shows the LED grid in a desktop window and reads the buttons
// from the keyboard.
package window

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"tinygo.org/x/drivers"

	"github.com/fkcurrie/matrix-rain-golang/internal/driver"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

var _ drivers.Displayer = (*Game)(nil)

var buttonKeys = map[ebiten.Key][]types.Button{
	ebiten.KeyA: driver.KeyButtons('a'),
	ebiten.KeyB: driver.KeyButtons('b'),
	ebiten.KeyX: driver.KeyButtons('x'),
	ebiten.KeyY: driver.KeyButtons('y'),
	ebiten.KeyP: driver.KeyButtons('p'),
	ebiten.KeyN: driver.KeyButtons('n'),
}

// Game is a drivers.Displayer drawn in a desktop window, and the ebiten.Game
// showing it. RunGame must be called from the main goroutine; the animation
// draws from its own through a tinydisplay.Display.
type Game struct {
	width  int
	height int
	keys   *driver.KeyState

	quit     chan struct{}
	quitOnce sync.Once

	mu      sync.Mutex
	stopped bool
	back    []byte
	front   []byte
}

// New creates a window of width x height device pixels
func New(width, height int) (*Game, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	g := &Game{
		width:  width,
		height: height,
		keys:   driver.NewKeyState(0),
		quit:   make(chan struct{}),
		back:   make([]byte, width*height*4),
		front:  make([]byte, width*height*4),
	}
	for i := 3; i < len(g.back); i += 4 {
		g.back[i] = 0xff
	}
	copy(g.front, g.back)

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("Matrix Rain")
	return g, nil
}

// RunGame opens the window and blocks until it is closed
func (g *Game) RunGame() error {
	defer g.requestQuit()
	return ebiten.RunGame(g)
}

// Update reads the keyboard
func (g *Game) Update() error {
	g.mu.Lock()
	stopped := g.stopped
	g.mu.Unlock()
	if stopped || ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		g.requestQuit()
		return ebiten.Termination
	}

	held := make(map[types.Button]bool)
	for key, buttons := range buttonKeys {
		if ebiten.IsKeyPressed(key) {
			for _, b := range buttons {
				held[b] = true
			}
		}
	}
	for _, b := range types.Buttons {
		g.keys.Set(b, held[b])
	}
	return nil
}

// Draw copies the last displayed frame to the window
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()
	screen.WritePixels(g.front)
}

// Layout keeps one screen pixel per device pixel
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

func (g *Game) requestQuit() {
	g.quitOnce.Do(func() { close(g.quit) })
}

// Quit is closed when the window goes away
func (g *Game) Quit() <-chan struct{} {
	return g.quit
}

// Stop closes the window on the next update
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
}

// IsPressed reports whether the key of b is held
func (g *Game) IsPressed(b types.Button) bool {
	return g.keys.IsPressed(b)
}

// Size returns the window size in device pixels
func (g *Game) Size() (x, y int16) {
	return int16(g.width), int16(g.height)
}

// SetPixel sets a pixel of the back buffer; out of range pixels are ignored
func (g *Game) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || int(x) >= g.width || y < 0 || int(y) >= g.height {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i := (int(y)*g.width + int(x)) * 4
	g.back[i], g.back[i+1], g.back[i+2], g.back[i+3] = c.R, c.G, c.B, 0xff
}

// Display makes the back buffer the next frame drawn
func (g *Game) Display() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	copy(g.front, g.back)
	return nil
}
