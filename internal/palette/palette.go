// Package palette shows the rain palettes as color swatches, one at a time.
package palette

import (
	"fmt"
	"log"
	"sync"

	"github.com/fkcurrie/matrix-rain-golang/internal/rain"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// Viewer is an app drawing the start, body and gap colors of one palette as
// three vertical bands. Color moves to the next palette; other cycles are ignored.
type Viewer struct {
	display  types.Display
	palettes []rain.Palette

	mu    sync.Mutex
	index int
	state types.Trigger
}

// New creates a viewer on an initialized display
func New(display types.Display, palettes []rain.Palette) (*Viewer, error) {
	if len(palettes) == 0 {
		return nil, fmt.Errorf("no palettes to show")
	}
	return &Viewer{
		display:  display,
		palettes: palettes,
		state:    types.TriggerPause,
	}, nil
}

// Index returns the palette on show
func (v *Viewer) Index() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.index
}

// State returns the active trigger
func (v *Viewer) State() types.Trigger {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Trigger applies t and returns the resulting state
func (v *Viewer) Trigger(t types.Trigger) types.Trigger {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case v.state == types.TriggerExit:
	case t == types.TriggerExit, t == types.TriggerPause:
		v.state = t
	case t == types.TriggerRun:
		v.state = t
		v.draw()
	case t == types.TriggerCycleColor:
		v.index = (v.index + 1) % len(v.palettes)
		log.Printf("Palette %d/%d", v.index+1, len(v.palettes))
		v.state = types.TriggerRun
		v.draw()
	case t.IsCycle():
		v.state = types.TriggerRun
	}
	return v.state
}

// draw paints the current palette; the caller holds v.mu
func (v *Viewer) draw() {
	p := v.palettes[v.index]
	width, height := v.display.Size()
	for x := 0; x < width; x++ {
		kind := x * len(p) / width
		for y := 0; y < height; y++ {
			if err := v.display.SetPixel(x, y, p[kind]); err != nil {
				log.Printf("Failed to draw palette: %v", err)
				return
			}
		}
	}
	if err := v.display.Show(); err != nil {
		log.Printf("Failed to show palette: %v", err)
	}
}
