package control

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

const (
	// DefaultPollInterval is how often buttons are read
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultCooldown keeps one press from firing a burst of triggers
	DefaultCooldown = 300 * time.Millisecond
)

// Binding maps a set of buttons pressed together to a trigger
type Binding struct {
	Buttons []types.Button
	Trigger types.Trigger
}

func (b Binding) String() string {
	names := make([]string, len(b.Buttons))
	for i, button := range b.Buttons {
		names[i] = string(button)
	}
	return fmt.Sprintf("%s -> %v", strings.Join(names, "+"), b.Trigger)
}

// DefaultBindings returns the Pico Unicorn button layout
func DefaultBindings() []Binding {
	return []Binding{
		{Buttons: []types.Button{types.ButtonA, types.ButtonX}, Trigger: types.TriggerExit},
		{Buttons: []types.Button{types.ButtonA, types.ButtonB}, Trigger: types.TriggerTogglePause},
		{Buttons: []types.Button{types.ButtonA}, Trigger: types.TriggerCycleColor},
		{Buttons: []types.Button{types.ButtonB}, Trigger: types.TriggerCycleSpeed},
		{Buttons: []types.Button{types.ButtonX}, Trigger: types.TriggerCycleDirection},
		{Buttons: []types.Button{types.ButtonY}, Trigger: types.TriggerCycleComposition},
	}
}

// Config holds the dispatcher timing and bindings
type Config struct {
	PollInterval time.Duration
	Cooldown     time.Duration
	Bindings     []Binding
}

// Dispatcher turns button presses into triggers for an app
type Dispatcher struct {
	buttons  types.ButtonReader
	target   types.App
	poll     time.Duration
	cooldown time.Duration
	bindings []Binding
}

// NewDispatcher creates a dispatcher; zero config values take the defaults
func NewDispatcher(buttons types.ButtonReader, target types.App, cfg Config) (*Dispatcher, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Cooldown < 0 {
		return nil, fmt.Errorf("negative cooldown %v", cfg.Cooldown)
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	bindings := cfg.Bindings
	if len(bindings) == 0 {
		bindings = DefaultBindings()
	}
	for _, b := range bindings {
		if err := validateBinding(b); err != nil {
			return nil, err
		}
	}

	// combos first, so A+X is not read as a plain A
	sorted := append([]Binding(nil), bindings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Buttons) > len(sorted[j].Buttons)
	})

	return &Dispatcher{
		buttons:  buttons,
		target:   target,
		poll:     cfg.PollInterval,
		cooldown: cfg.Cooldown,
		bindings: sorted,
	}, nil
}

func validateBinding(b Binding) error {
	if len(b.Buttons) == 0 {
		return fmt.Errorf("binding for %v has no buttons", b.Trigger)
	}
	switch {
	case b.Trigger.IsCycle(), b.Trigger == types.TriggerExit,
		b.Trigger == types.TriggerPause, b.Trigger == types.TriggerTogglePause:
		return nil
	}
	return fmt.Errorf("binding %v: trigger cannot be bound to a button", b)
}

// Poll reads the buttons once and returns the trigger of the first pressed
// binding; ok is false when nothing is pressed
func (d *Dispatcher) Poll() (t types.Trigger, ok bool) {
	for _, b := range d.bindings {
		if !d.pressed(b.Buttons) {
			continue
		}
		if b.Trigger == types.TriggerTogglePause {
			if d.target.State() == types.TriggerPause {
				return types.TriggerRun, true
			}
			return types.TriggerPause, true
		}
		return b.Trigger, true
	}
	return types.TriggerRun, false
}

func (d *Dispatcher) pressed(buttons []types.Button) bool {
	for _, b := range buttons {
		if !d.buttons.IsPressed(b) {
			return false
		}
	}
	return true
}

// Run polls the buttons and dispatches triggers until ctx is cancelled or the
// target has exited
func (d *Dispatcher) Run(ctx context.Context) error {
	timer := time.NewTimer(d.poll)
	defer timer.Stop()

	for {
		wait := d.poll
		if t, ok := d.Poll(); ok {
			state := d.target.Trigger(t)
			log.Printf("Dispatched %v, state %v", t, state)
			if state == types.TriggerExit {
				return nil
			}
			wait = d.cooldown
		}

		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
