// Package driver holds what the desktop display drivers share: keyboard keys
// standing in for the four buttons of the LED board.
package driver

import (
	"sync"
	"time"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// DefaultHold keeps a key press visible for longer than one dispatcher poll
const DefaultHold = 250 * time.Millisecond

// KeyButtons returns the buttons a key stands for. Besides a, b, x and y, p
// holds a+b (pause) and n holds a+x (exit).
func KeyButtons(r rune) []types.Button {
	switch r {
	case 'a', 'A':
		return []types.Button{types.ButtonA}
	case 'b', 'B':
		return []types.Button{types.ButtonB}
	case 'x', 'X':
		return []types.Button{types.ButtonX}
	case 'y', 'Y':
		return []types.Button{types.ButtonY}
	case 'p', 'P':
		return []types.Button{types.ButtonA, types.ButtonB}
	case 'n', 'N':
		return []types.Button{types.ButtonA, types.ButtonX}
	}
	return nil
}

// KeyState turns key events into held buttons. Terminals only report key
// presses, so a button reads as pressed for a hold window after its key.
type KeyState struct {
	hold time.Duration
	now  func() time.Time

	mu      sync.Mutex
	pressed map[types.Button]time.Time
}

// NewKeyState creates a key state; hold <= 0 means DefaultHold
func NewKeyState(hold time.Duration) *KeyState {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &KeyState{
		hold:    hold,
		now:     time.Now,
		pressed: make(map[types.Button]time.Time),
	}
}

// Press records a key press; it reports whether the key maps to any button
func (k *KeyState) Press(r rune) bool {
	buttons := KeyButtons(r)
	if len(buttons) == 0 {
		return false
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	for _, b := range buttons {
		k.pressed[b] = now
	}
	return true
}

// Set marks a button held or released, for drivers that see key releases
func (k *KeyState) Set(b types.Button, held bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if held {
		// far enough ahead to outlast any hold window
		k.pressed[b] = k.now().Add(24 * time.Hour)
	} else {
		delete(k.pressed, b)
	}
}

// IsPressed reports whether b was pressed within the hold window
func (k *KeyState) IsPressed(b types.Button) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	at, ok := k.pressed[b]
	if !ok {
		return false
	}
	if k.now().Sub(at) >= k.hold {
		delete(k.pressed, b)
		return false
	}
	return true
}
