package rain

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// trimFactor times the grid height is the longest queue a composition change tolerates
const trimFactor = 3

// Options selects the initial presets of an animation
type Options struct {
	Palette     int
	Speed       int
	Composition int
	Direction   int

	// Tables defaults to DefaultTables
	Tables *Tables
	// Generator defaults to a time-seeded generator
	Generator *Generator
	// Logger defaults to the standard logger
	Logger *log.Logger
}

// Surface owns every column of the rain, the selected presets and the cache of
// the last rendered frame
type Surface struct {
	display       types.Display
	width, height int
	tables        Tables
	rnd           *Generator
	logger        *log.Logger

	state *TriggerState

	mu          sync.RWMutex
	palette     int
	speed       int
	composition int
	direction   int
	lines       []*line
	cache       [][]SegmentKind // [x][physical row]

	runMu   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a rain animation on an initialized display
func New(display types.Display, opts Options) (*Surface, error) {
	tables := DefaultTables()
	if opts.Tables != nil {
		tables = *opts.Tables
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tables: %w", err)
	}
	if err := checkIndex("palette", opts.Palette, len(tables.Palettes)); err != nil {
		return nil, err
	}
	if err := checkIndex("speed", opts.Speed, len(tables.Speeds)); err != nil {
		return nil, err
	}
	if err := checkIndex("composition", opts.Composition, len(tables.Compositions)); err != nil {
		return nil, err
	}
	if err := checkIndex("direction", opts.Direction, len(tables.Directions)); err != nil {
		return nil, err
	}

	width, height := display.Size()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}

	rnd := opts.Generator
	if rnd == nil {
		rnd = NewSeededGenerator(uint64(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Surface{
		display:     display,
		width:       width,
		height:      height,
		tables:      tables,
		rnd:         rnd,
		logger:      logger,
		state:       NewTriggerState(types.TriggerPause),
		palette:     opts.Palette,
		speed:       opts.Speed,
		composition: opts.Composition,
		direction:   opts.Direction,
		lines:       make([]*line, width),
		cache:       make([][]SegmentKind, width),
	}
	for x := 0; x < width; x++ {
		s.lines[x] = newLine(x, height, tables.Speeds[s.speed], rnd)
		s.cache[x] = make([]SegmentKind, height)
		for y := range s.cache[x] {
			s.cache[x][y] = Gap
		}
	}
	return s, nil
}

func checkIndex(name string, i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%s index %d out of range [0, %d)", name, i, n)
	}
	return nil
}

func (s *Surface) logf(format string, args ...interface{}) {
	s.logger.Printf(format, args...)
}

// Size returns the grid dimensions
func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

// Selection returns the currently selected preset indices
func (s *Surface) Selection() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Options{
		Palette:     s.palette,
		Speed:       s.speed,
		Composition: s.composition,
		Direction:   s.direction,
	}
}

// State returns the active trigger
func (s *Surface) State() types.Trigger {
	return s.state.Load()
}

// Start launches one goroutine per column
func (s *Surface) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.state.Load() == types.TriggerExit {
		return fmt.Errorf("animation already exited")
	}
	if s.started {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	s.state.Set(types.TriggerRun)

	s.logf("Starting rain on %dx%d display", s.width, s.height)
	for _, l := range s.lines {
		s.wg.Add(1)
		go s.run(ctx, l)
	}
	return nil
}

// Stop cancels every column and waits for them to return
func (s *Surface) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.state.Set(types.TriggerExit)
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Trigger applies t and returns the resulting state
func (s *Surface) Trigger(t types.Trigger) types.Trigger {
	current := s.state.Load()
	if current == types.TriggerExit {
		return current
	}

	switch {
	case t == types.TriggerExit:
		s.logf("Stopping rain")
		s.Stop()
	case t == types.TriggerRun:
		if err := s.Start(context.Background()); err != nil {
			s.logf("Failed to start rain: %v", err)
		}
		s.state.Set(types.TriggerRun)
	case t == types.TriggerPause:
		s.state.Set(types.TriggerPause)
		// wait out steps that started before the pause
		s.mu.Lock()
		s.mu.Unlock()
	case t.IsCycle():
		s.state.Set(t)
		s.apply(t)
		s.state.Consume(t)
	default:
		s.logf("Ignoring unknown trigger %v", t)
	}
	return s.state.Load()
}

func (s *Surface) apply(t types.Trigger) {
	switch t {
	case types.TriggerCycleColor:
		s.CycleColor()
	case types.TriggerCycleSpeed:
		s.CycleSpeed()
	case types.TriggerCycleDirection:
		s.CycleDirection()
	case types.TriggerCycleComposition:
		s.CycleComposition()
	}
}

// CycleColor selects the next palette and repaints the cached frame with it
func (s *Surface) CycleColor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.palette = next(s.palette, len(s.tables.Palettes))
	s.repaint()
	s.logf("Palette %d/%d", s.palette+1, len(s.tables.Palettes))
}

// repaint writes the cached frame with the selected palette; the caller holds s.mu
func (s *Surface) repaint() {
	palette := s.tables.Palettes[s.palette]
	for x, column := range s.cache {
		for y, kind := range column {
			if err := s.display.SetPixel(x, y, palette[kind]); err != nil {
				s.logf("Failed to set pixel (%d, %d): %v", x, y, err)
			}
		}
	}
	if err := s.display.Show(); err != nil {
		s.logf("Failed to show repaint: %v", err)
	}
}

// CycleSpeed selects the next speed preset and re-rolls the delay of every column
func (s *Surface) CycleSpeed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.speed = next(s.speed, len(s.tables.Speeds))
	speed := s.tables.Speeds[s.speed]
	for _, l := range s.lines {
		l.delay = s.rnd.Delay(speed)
	}
	s.logf("Speed %d/%d", s.speed+1, len(s.tables.Speeds))
}

// CycleDirection selects the next direction; columns pick it up on their next render
func (s *Surface) CycleDirection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.direction = next(s.direction, len(s.tables.Directions))
	s.logf("Direction %v", s.tables.Directions[s.direction])
}

// CycleComposition selects the next composition and trims columns whose queue
// would hide it for too long
func (s *Surface) CycleComposition() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.composition = next(s.composition, len(s.tables.Compositions))
	trimmed := 0
	for _, l := range s.lines {
		if l.trim(trimFactor*s.height, s.height) {
			trimmed++
		}
	}
	s.logf("Composition %d/%d (%d columns trimmed)", s.composition+1, len(s.tables.Compositions), trimmed)
}
