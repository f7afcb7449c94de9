package appmgr

import (
	"fmt"
	"log"
	"sync"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// Factory creates an app drawing on an initialized display
type Factory func(display types.Display) (types.App, error)

// Manager switches between interchangeable apps sharing one display. It is the
// target of the button dispatcher: Exit moves on to the next app, every other
// trigger goes to the current one.
type Manager struct {
	display   types.Display
	factories []Factory

	mu      sync.Mutex
	index   int
	current types.App
}

// NewManager creates a manager starting with the app at index start
func NewManager(display types.Display, factories []Factory, start int) (*Manager, error) {
	if len(factories) == 0 {
		return nil, fmt.Errorf("no apps registered")
	}
	if start < 0 || start >= len(factories) {
		return nil, fmt.Errorf("app index %d out of range [0, %d)", start, len(factories))
	}
	return &Manager{
		display:   display,
		factories: factories,
		index:     start,
	}, nil
}

// Start initializes the display and runs the first app
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.display.Init(); err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	if err := types.Clear(m.display); err != nil {
		return fmt.Errorf("failed to clear display: %w", err)
	}
	return m.launch()
}

// launch creates and runs the app at m.index; the caller holds m.mu
func (m *Manager) launch() error {
	app, err := m.factories[m.index](m.display)
	if err != nil {
		return fmt.Errorf("failed to create app %d: %w", m.index, err)
	}
	m.current = app
	log.Printf("Running app %d/%d", m.index+1, len(m.factories))
	if state := app.Trigger(types.TriggerRun); state != types.TriggerRun {
		return fmt.Errorf("app %d did not start, state %v", m.index, state)
	}
	return nil
}

// Trigger forwards t to the current app, switching apps on Exit
func (m *Manager) Trigger(t types.Trigger) types.Trigger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return types.TriggerExit
	}
	if t != types.TriggerExit {
		return m.current.Trigger(t)
	}

	m.current.Trigger(types.TriggerExit)
	m.current = nil
	if err := types.Clear(m.display); err != nil {
		log.Printf("Failed to clear display: %v", err)
	}

	m.index = (m.index + 1) % len(m.factories)
	if err := m.launch(); err != nil {
		log.Printf("Failed to switch app: %v", err)
		m.current = nil
		return types.TriggerExit
	}
	return m.current.State()
}

// State returns the state of the current app, Exit when none is running
func (m *Manager) State() types.Trigger {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return types.TriggerExit
	}
	return m.current.State()
}

// Close exits the current app, clears and closes the display
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Trigger(types.TriggerExit)
		m.current = nil
	}
	if err := types.Clear(m.display); err != nil {
		log.Printf("Failed to clear display: %v", err)
	}
	return m.display.Close()
}
