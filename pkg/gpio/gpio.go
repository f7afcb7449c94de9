package gpio

import (
	"fmt"
	"log"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// ButtonConfig maps logical buttons to GPIO line offsets on one chip
type ButtonConfig struct {
	Chip  string
	Lines map[types.Button]int
	// ActiveLow is set for buttons wired to ground with a pull-up
	ActiveLow bool
}

// lineReader is the part of *gpiocdev.Lines the buttons use
type lineReader interface {
	Values(values []int) error
	Close() error
}

// Buttons reads push buttons through the GPIO character device
type Buttons struct {
	mu     sync.Mutex
	lines  lineReader
	index  map[types.Button]int
	values []int
}

// NewButtons requests the button lines as inputs
func NewButtons(cfg ButtonConfig) (*Buttons, error) {
	if len(cfg.Lines) == 0 {
		return nil, fmt.Errorf("no button lines configured")
	}

	index := make(map[types.Button]int, len(cfg.Lines))
	offsets := make([]int, 0, len(cfg.Lines))
	for _, b := range types.Buttons {
		offset, ok := cfg.Lines[b]
		if !ok {
			continue
		}
		index[b] = len(offsets)
		offsets = append(offsets, offset)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithConsumer("matrix-rain")}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow, gpiocdev.WithPullUp)
	} else {
		opts = append(opts, gpiocdev.WithPullDown)
	}

	log.Printf("Requesting button lines %v on %s", offsets, cfg.Chip)
	lines, err := gpiocdev.RequestLines(cfg.Chip, offsets, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to request button lines: %w", err)
	}
	return newButtons(lines, index), nil
}

func newButtons(lines lineReader, index map[types.Button]int) *Buttons {
	return &Buttons{
		lines:  lines,
		index:  index,
		values: make([]int, len(index)),
	}
}

// IsPressed reports whether b is held down; unmapped buttons are never pressed
func (b *Buttons) IsPressed(button types.Button) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[button]
	if !ok || b.lines == nil {
		return false
	}
	if err := b.lines.Values(b.values); err != nil {
		log.Printf("Failed to read buttons: %v", err)
		return false
	}
	// the line is configured active-low when needed, so 1 is always pressed
	return b.values[i] == 1
}

// Close releases the button lines
func (b *Buttons) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lines == nil {
		return nil
	}
	err := b.lines.Close()
	b.lines = nil
	return err
}
