package rain

import (
	"fmt"
	"image/color"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// Default grid of the Pico Unicorn
const (
	DefaultWidth  = 16
	DefaultHeight = 7
)

// SegmentKind tags a dot as part of the head, the trail or the gap of a drop
type SegmentKind uint8

const (
	Start SegmentKind = iota
	Body
	Gap

	numKinds = 3
)

func (k SegmentKind) String() string {
	switch k {
	case Start:
		return "start"
	case Body:
		return "body"
	case Gap:
		return "gap"
	}
	return "unknown"
}

// next returns the kind following k in the Start, Body, Gap cycle
func (k SegmentKind) next() SegmentKind {
	return (k + 1) % numKinds
}

// Range is an inclusive integer range
type Range struct {
	Min, Max int
}

// FloatRange is an inclusive range of seconds
type FloatRange struct {
	Min, Max float64
}

// Composition holds the run length of each segment kind
type Composition [numKinds]Range

// Palette holds the color of each segment kind
type Palette [numKinds]color.RGBA

// Direction maps logical rows to physical rows
type Direction int

const (
	// TopDown renders the front of the queue on the bottom row, so drops fall
	TopDown Direction = iota
	// BottomUp renders the front of the queue on the top row, so drops rise
	BottomUp
	// RandomDirection picks TopDown or BottomUp afresh on every render
	RandomDirection
)

func (d Direction) String() string {
	switch d {
	case TopDown:
		return "top-down"
	case BottomUp:
		return "bottom-up"
	case RandomDirection:
		return "random"
	}
	return "unknown"
}

// Resolve picks the concrete direction for one render
func (d Direction) Resolve(coin func() bool) Direction {
	if d != RandomDirection {
		return d
	}
	if coin() {
		return BottomUp
	}
	return TopDown
}

// Row returns the physical row for logical row y of a resolved direction
func (d Direction) Row(y, height int) int {
	if d == BottomUp {
		return y
	}
	return height - 1 - y
}

var black = types.Black

// Palettes: start, body and gap color
var Palettes = []Palette{
	{types.RGB(0, 120, 0), types.RGB(0, 40, 0), black},          // green
	{types.RGB(180, 0, 0), types.RGB(70, 0, 0), black},          // red
	{types.RGB(0, 0, 120), types.RGB(0, 0, 50), black},          // blue
	{types.RGB(80, 80, 80), types.RGB(30, 30, 30), black},       // white
	{types.RGB(0, 255, 0), types.RGB(0, 90, 0), black},          // bright green
	{types.RGB(255, 0, 0), types.RGB(90, 0, 0), black},          // bright red
	{types.RGB(0, 0, 255), types.RGB(0, 0, 90), black},          // bright blue
	{types.RGB(255, 255, 255), types.RGB(100, 100, 100), black}, // bright white
	{types.RGB(0, 60, 0), types.RGB(0, 20, 0), black},           // dark green
	{types.RGB(90, 0, 0), types.RGB(25, 0, 0), black},           // dark red
	{types.RGB(0, 0, 60), types.RGB(0, 0, 25), black},           // dark blue
	{types.RGB(50, 50, 50), types.RGB(20, 20, 20), black},       // dark white
}

// Speeds are delay ranges in seconds, the lower the faster
var Speeds = []FloatRange{
	{0.2, 0.4},
	{0.1, 0.2},
	{0.07, 0.1},
	{0.05, 0.07},
	{0.03, 0.05},
	{0.02, 0.03},
	{0.01, 0.02},
	{0.005, 0.01},
}

// Compositions are the run lengths of start, body and gap segments
var Compositions = []Composition{
	{{1, 1}, {4, 15}, {1, 3}},
	{{1, 2}, {7, 25}, {2, 4}},
	{{1, 1}, {3, 10}, {1, 2}},
	{{1, 2}, {4, 15}, {0, 0}}, // no gaps
}

// Directions in cycling order
var Directions = []Direction{TopDown, BottomUp, RandomDirection}

// Tables is the set of presets an animation cycles through
type Tables struct {
	Palettes     []Palette
	Speeds       []FloatRange
	Compositions []Composition
	Directions   []Direction
}

// DefaultTables returns the built-in presets
func DefaultTables() Tables {
	return Tables{
		Palettes:     Palettes,
		Speeds:       Speeds,
		Compositions: Compositions,
		Directions:   Directions,
	}
}

// next returns the index after i, wrapping to 0 past the last entry
func next(i, n int) int {
	if i+1 < n {
		return i + 1
	}
	return 0
}

// Validate checks that every table is non-empty and every preset is usable
func (t Tables) Validate() error {
	switch {
	case len(t.Palettes) == 0:
		return fmt.Errorf("no palettes configured")
	case len(t.Speeds) == 0:
		return fmt.Errorf("no speed presets configured")
	case len(t.Compositions) == 0:
		return fmt.Errorf("no compositions configured")
	case len(t.Directions) == 0:
		return fmt.Errorf("no directions configured")
	}
	for i, s := range t.Speeds {
		if s.Min <= 0 || s.Max < s.Min {
			return fmt.Errorf("speed preset %d: invalid range %v", i, s)
		}
	}
	for i, c := range t.Compositions {
		total := 0
		for kind, r := range c {
			if r.Min < 0 || r.Max < r.Min {
				return fmt.Errorf("composition %d: invalid %s range %v", i, SegmentKind(kind), r)
			}
			total += r.Min
		}
		// every Start-Body-Gap cycle must add at least one dot or top-up never ends
		if total == 0 {
			return fmt.Errorf("composition %d: segments may all be empty", i)
		}
	}
	for i, d := range t.Directions {
		if d < TopDown || d > RandomDirection {
			return fmt.Errorf("direction %d: unknown direction %d", i, d)
		}
	}
	return nil
}
