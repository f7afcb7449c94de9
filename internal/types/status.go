package types

import (
	"fmt"
	"strings"
)

// Trigger is a discrete command that alters the animation state
type Trigger int32

const (
	// Trigger codes, stable so an outer shell can pass them around as plain ints
	TriggerExit             Trigger = -1
	TriggerPause            Trigger = 0
	TriggerRun              Trigger = 1
	TriggerCycleColor       Trigger = 2
	TriggerCycleSpeed       Trigger = 3
	TriggerCycleDirection   Trigger = 4
	TriggerCycleComposition Trigger = 5

	// TriggerTogglePause is resolved by the dispatcher into Pause or Run
	TriggerTogglePause Trigger = 100
)

var triggerNames = map[Trigger]string{
	TriggerExit:             "exit",
	TriggerPause:            "pause",
	TriggerRun:              "run",
	TriggerCycleColor:       "color",
	TriggerCycleSpeed:       "speed",
	TriggerCycleDirection:   "direction",
	TriggerCycleComposition: "composition",
	TriggerTogglePause:      "toggle-pause",
}

func (t Trigger) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return fmt.Sprintf("trigger(%d)", int32(t))
}

// IsCycle reports whether the trigger cycles one of the animation parameters
func (t Trigger) IsCycle() bool {
	return t >= TriggerCycleColor && t <= TriggerCycleComposition
}

// ParseTrigger resolves a trigger name as used in configuration files
func ParseTrigger(name string) (Trigger, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range triggerNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown trigger %q", name)
}

// Button is a logical button id
type Button string

const (
	ButtonA Button = "a"
	ButtonB Button = "b"
	ButtonX Button = "x"
	ButtonY Button = "y"
)

// Buttons lists the logical buttons in a fixed order
var Buttons = []Button{ButtonA, ButtonB, ButtonX, ButtonY}

// ParseButton resolves a button name
func ParseButton(name string) (Button, error) {
	b := Button(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Buttons {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown button %q", name)
}

// ButtonReader reports the current state of the logical buttons
type ButtonReader interface {
	IsPressed(b Button) bool
}

// App is an animation that can be driven by an outer shell
type App interface {
	// Trigger applies a trigger and returns the resulting state
	Trigger(t Trigger) Trigger
	// State returns the active trigger
	State() Trigger
}
