package rain

import (
	"context"
	"image/color"
	"io"
	"log"
	"reflect"
	"testing"
	"time"

	"github.com/fkcurrie/matrix-rain-golang/internal/display"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

func newTestSurface(t *testing.T, width, height int, opts Options) (*Surface, *display.FrameBuffer) {
	t.Helper()

	fb, err := display.NewFrameBuffer(width, height)
	if err != nil {
		t.Fatalf("Failed to create framebuffer: %v", err)
	}
	if err := fb.Init(); err != nil {
		t.Fatalf("Failed to init framebuffer: %v", err)
	}
	if opts.Generator == nil {
		opts.Generator = NewSeededGenerator(1)
	}
	opts.Logger = log.New(io.Discard, "", 0)

	s, err := New(fb, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, fb
}

// stepAll steps every column once and checks the top-up invariant on the way
func stepAll(t *testing.T, s *Surface) {
	t.Helper()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines {
		l.topUp(s.height, s.tables.Compositions[s.composition], s.tables.Speeds[s.speed], s.rnd)
		if len(l.dots) < s.height {
			t.Fatalf("column %d has %d dots at render, want at least %d", l.x, len(l.dots), s.height)
		}
		s.render(l)
		l.scroll()
	}
}

type lineState struct {
	dots   []SegmentKind
	cursor SegmentKind
	delay  time.Duration
}

func snapshot(s *Surface) []lineState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]lineState, len(s.lines))
	for i, l := range s.lines {
		states[i] = lineState{
			dots:   append([]SegmentKind(nil), l.dots...),
			cursor: l.cursor,
			delay:  l.delay,
		}
	}
	return states
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: Options{}},
		{name: "last presets", opts: Options{Palette: len(Palettes) - 1, Speed: len(Speeds) - 1, Composition: len(Compositions) - 1, Direction: len(Directions) - 1}},
		{name: "palette out of range", opts: Options{Palette: len(Palettes)}, wantErr: true},
		{name: "negative speed", opts: Options{Speed: -1}, wantErr: true},
		{name: "composition out of range", opts: Options{Composition: len(Compositions)}, wantErr: true},
		{name: "direction out of range", opts: Options{Direction: 3}, wantErr: true},
		{name: "empty composition", opts: Options{Tables: &Tables{
			Palettes:     Palettes,
			Speeds:       Speeds,
			Compositions: []Composition{{{0, 0}, {0, 3}, {0, 0}}},
			Directions:   Directions,
		}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, _ := display.NewFrameBuffer(DefaultWidth, DefaultHeight)
			fb.Init()
			tt.opts.Logger = log.New(io.Discard, "", 0)
			s, err := New(fb, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s.State() != types.TriggerPause {
				t.Errorf("State() = %v before start, want pause", s.State())
			}
		})
	}
}

func TestInitialFill(t *testing.T) {
	s, _ := newTestSurface(t, DefaultWidth, DefaultHeight, Options{})
	for _, l := range s.lines {
		if len(l.dots) < DefaultHeight || len(l.dots) > DefaultHeight+initialShift {
			t.Errorf("column %d starts with %d dots", l.x, len(l.dots))
		}
		for _, d := range l.dots {
			if d != Gap {
				t.Fatalf("column %d starts with a %v dot", l.x, d)
			}
		}
		if l.cursor != Start {
			t.Errorf("column %d cursor = %v, want start", l.x, l.cursor)
		}
	}
}

func TestTopUpInvariant(t *testing.T) {
	for c := range Compositions {
		s, _ := newTestSurface(t, DefaultWidth, DefaultHeight, Options{Composition: c})
		for i := 0; i < 300; i++ {
			stepAll(t, s)
		}
	}
}

// runs splits a dot sequence into kinds and run lengths, dropping the last run
// which may still be incomplete
func runs(dots []SegmentKind) (kinds []SegmentKind, lengths []int) {
	for i, d := range dots {
		if i == 0 || d != dots[i-1] {
			kinds = append(kinds, d)
			lengths = append(lengths, 0)
		}
		lengths[len(lengths)-1]++
	}
	if len(kinds) > 0 {
		kinds, lengths = kinds[:len(kinds)-1], lengths[:len(lengths)-1]
	}
	return kinds, lengths
}

func TestScrollSequenceComposition(t *testing.T) {
	s, _ := newTestSurface(t, 16, 7, Options{Composition: 0})
	comp := Compositions[0]
	if comp != (Composition{{1, 1}, {4, 15}, {1, 3}}) {
		t.Fatalf("unexpected first composition %v", comp)
	}

	l := s.lines[3]
	l.dots = nil
	var scrolled []SegmentKind
	for i := 0; i < 2000; i++ {
		l.topUp(s.height, comp, s.tables.Speeds[s.speed], s.rnd)
		scrolled = append(scrolled, l.dots[0])
		l.scroll()
	}

	kinds, lengths := runs(scrolled)
	if len(kinds) < 100 {
		t.Fatalf("only %d complete runs in 2000 dots", len(kinds))
	}
	for i, k := range kinds {
		if k != Start {
			continue
		}
		if lengths[i] != 1 {
			t.Fatalf("start run %d has length %d, want 1", i, lengths[i])
		}
		if i+1 < len(kinds) {
			if kinds[i+1] != Body {
				t.Fatalf("start run %d followed by %v, want body", i, kinds[i+1])
			}
			if n := lengths[i+1]; n < 4 || n > 15 {
				t.Fatalf("body run %d has length %d, want within [4, 15]", i+1, n)
			}
		}
	}
}

func TestZeroLengthSegment(t *testing.T) {
	s, _ := newTestSurface(t, DefaultWidth, DefaultHeight, Options{Composition: 3})
	comp := Compositions[3]
	if comp[Gap] != (Range{0, 0}) {
		t.Fatalf("composition 3 has gap range %v, want (0, 0)", comp[Gap])
	}

	l := s.lines[0]
	l.dots = nil
	var scrolled []SegmentKind
	for i := 0; i < 1000; i++ {
		l.topUp(s.height, comp, s.tables.Speeds[s.speed], s.rnd)
		scrolled = append(scrolled, l.dots[0])
		l.scroll()
	}

	wrapped := false
	for i, d := range scrolled {
		if d == Gap {
			t.Fatalf("gap dot at %d appended from a (0, 0) range", i)
		}
		if i > 0 && scrolled[i-1] == Body && d == Start {
			wrapped = true
		}
	}
	if !wrapped {
		t.Error("cursor never wrapped past the empty gap segment")
	}
}

func TestStartDelayRange(t *testing.T) {
	speed := FloatRange{0.01, 0.02}
	tables := DefaultTables()
	tables.Speeds = []FloatRange{speed}
	s, _ := newTestSurface(t, DefaultWidth, DefaultHeight, Options{Tables: &tables})

	l := s.lines[0]
	comp := Composition{{1, 1}, {4, 15}, {1, 3}}
	for i := 0; i < 100; i++ {
		l.dots = nil
		l.cursor = Start
		l.delay = 0
		// one dot fills a height-1 queue, so exactly one start segment is entered
		l.topUp(1, comp, speed, s.rnd)
		if l.delay < 10*time.Millisecond || l.delay > 20*time.Millisecond {
			t.Fatalf("draw %d: delay = %v, want within [10ms, 20ms]", i, l.delay)
		}
	}
}

func TestCycleColorRepaintsFromCache(t *testing.T) {
	s, fb := newTestSurface(t, DefaultWidth, DefaultHeight, Options{})
	for i := 0; i < 20; i++ {
		stepAll(t, s)
	}
	s.CycleColor()

	palette := Palettes[1]
	for x := 0; x < DefaultWidth; x++ {
		for y := 0; y < DefaultHeight; y++ {
			got, err := fb.Pixel(x, y)
			if err != nil {
				t.Fatalf("Pixel() error = %v", err)
			}
			if want := palette[s.cache[x][y]]; got != want {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestCycleWrap(t *testing.T) {
	tests := []struct {
		name  string
		cycle func(*Surface)
		n     int
		index func(Options) int
	}{
		{"color", (*Surface).CycleColor, len(Palettes), func(o Options) int { return o.Palette }},
		{"speed", (*Surface).CycleSpeed, len(Speeds), func(o Options) int { return o.Speed }},
		{"direction", (*Surface).CycleDirection, len(Directions), func(o Options) int { return o.Direction }},
		{"composition", (*Surface).CycleComposition, len(Compositions), func(o Options) int { return o.Composition }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSurface(t, DefaultWidth, DefaultHeight, Options{Palette: 2, Speed: 2, Composition: 2, Direction: 2})
			start := tt.index(s.Selection())
			for i := 0; i < tt.n; i++ {
				tt.cycle(s)
				if i < tt.n-1 && tt.index(s.Selection()) == start {
					t.Fatalf("index back to start after %d cycles", i+1)
				}
			}
			if got := tt.index(s.Selection()); got != start {
				t.Errorf("index after %d cycles = %d, want %d", tt.n, got, start)
			}
		})
	}
}

func TestCycleSpeedRerollsDelays(t *testing.T) {
	tables := DefaultTables()
	tables.Speeds = []FloatRange{{0.2, 0.4}, {0.005, 0.01}}
	s, _ := newTestSurface(t, DefaultWidth, DefaultHeight, Options{Tables: &tables})

	s.CycleSpeed()
	for _, st := range snapshot(s) {
		if st.delay < 5*time.Millisecond || st.delay > 10*time.Millisecond {
			t.Fatalf("delay = %v after speed change, want within [5ms, 10ms]", st.delay)
		}
	}
}

func TestCycleCompositionTrim(t *testing.T) {
	s, _ := newTestSurface(t, DefaultWidth, DefaultHeight, Options{})
	long := make([]SegmentKind, 5*DefaultHeight)
	short := make([]SegmentKind, 2*DefaultHeight)
	s.lines[0].dots = long
	s.lines[1].dots = short

	s.CycleComposition()

	if got := len(s.lines[0].dots); got != DefaultHeight {
		t.Errorf("long queue trimmed to %d, want %d", got, DefaultHeight)
	}
	if got := len(s.lines[1].dots); got != 2*DefaultHeight {
		t.Errorf("short queue changed to %d, want %d", got, 2*DefaultHeight)
	}
}

func TestCycleDirectionNextRender(t *testing.T) {
	s, fb := newTestSurface(t, 16, 7, Options{Direction: 0})
	if Directions[0] != TopDown || Directions[1] != BottomUp {
		t.Fatalf("unexpected direction order %v", Directions)
	}

	l := s.lines[0]
	l.dots = []SegmentKind{Start, Body, Body, Gap, Gap, Gap, Start}
	before := append([]SegmentKind(nil), l.dots...)
	startColor := Palettes[0][Start]
	bodyColor := Palettes[0][Body]

	s.render(l)
	if c, _ := fb.Pixel(0, 6); c != startColor {
		t.Fatalf("top-down: row 6 = %v, want start color", c)
	}
	if c, _ := fb.Pixel(0, 5); c != bodyColor {
		t.Fatalf("top-down: row 5 = %v, want body color", c)
	}

	s.CycleDirection()
	if !reflect.DeepEqual(l.dots, before) {
		t.Fatalf("direction change modified dots: %v", l.dots)
	}

	s.render(l)
	if c, _ := fb.Pixel(0, 0); c != startColor {
		t.Errorf("bottom-up: row 0 = %v, want start color", c)
	}
	if c, _ := fb.Pixel(0, 1); c != bodyColor {
		t.Errorf("bottom-up: row 1 = %v, want body color", c)
	}
	if s.cache[0][0] != Start || s.cache[0][3] != Gap {
		t.Errorf("cache not updated for bottom-up render: %v", s.cache[0])
	}
}

func TestRandomDirectionRendersWholeColumn(t *testing.T) {
	s, fb := newTestSurface(t, 16, 7, Options{Direction: 2})
	l := s.lines[0]
	l.dots = []SegmentKind{Start, Body, Body, Body, Body, Body, Body}

	for i := 0; i < 20; i++ {
		s.render(l)
		top, _ := fb.Pixel(0, 0)
		bottom, _ := fb.Pixel(0, 6)
		heads := 0
		for _, c := range []color.RGBA{top, bottom} {
			if c == Palettes[0][Start] {
				heads++
			}
		}
		if heads != 1 {
			t.Fatalf("render %d: %d heads at the column ends, want 1", i, heads)
		}
	}
}

func TestTrigger(t *testing.T) {
	s, _ := newTestSurface(t, DefaultWidth, DefaultHeight, Options{})

	if got := s.Trigger(types.TriggerCycleColor); got != types.TriggerRun {
		t.Errorf("Trigger(color) = %v, want run", got)
	}
	if got := s.Selection().Palette; got != 1 {
		t.Errorf("palette = %d after color trigger, want 1", got)
	}
	if got := s.Trigger(types.TriggerCycleComposition); got != types.TriggerRun {
		t.Errorf("Trigger(composition) = %v, want run", got)
	}
	if got := s.Trigger(types.TriggerPause); got != types.TriggerPause {
		t.Errorf("Trigger(pause) = %v, want pause", got)
	}
	if got := s.Trigger(types.TriggerExit); got != types.TriggerExit {
		t.Errorf("Trigger(exit) = %v, want exit", got)
	}
	if got := s.Trigger(types.TriggerCycleSpeed); got != types.TriggerExit {
		t.Errorf("Trigger(speed) after exit = %v, want exit", got)
	}
	if got := s.Selection().Speed; got != 0 {
		t.Errorf("speed changed after exit: %d", got)
	}
}

func TestPauseIsIdempotent(t *testing.T) {
	tables := DefaultTables()
	tables.Speeds = []FloatRange{{0.001, 0.002}}
	s, fb := newTestSurface(t, DefaultWidth, DefaultHeight, Options{Tables: &tables})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Trigger(types.TriggerExit)

	time.Sleep(50 * time.Millisecond)
	if fb.Shows() == 0 {
		t.Fatal("no frames shown while running")
	}

	s.Trigger(types.TriggerPause)
	once := snapshot(s)
	shows := fb.Shows()

	s.Trigger(types.TriggerPause)
	time.Sleep(50 * time.Millisecond)
	twice := snapshot(s)

	if !reflect.DeepEqual(once, twice) {
		t.Error("line state changed between two pauses")
	}
	if fb.Shows() != shows {
		t.Errorf("%d frames shown while paused", fb.Shows()-shows)
	}

	if got := s.Trigger(types.TriggerRun); got != types.TriggerRun {
		t.Fatalf("Trigger(run) = %v, want run", got)
	}
	time.Sleep(50 * time.Millisecond)
	if fb.Shows() == shows {
		t.Error("no frames shown after resuming")
	}
}

func TestExitStopsColumns(t *testing.T) {
	tables := DefaultTables()
	tables.Speeds = []FloatRange{{0.001, 0.002}}
	s, fb := newTestSurface(t, DefaultWidth, DefaultHeight, Options{Tables: &tables})

	if got := s.Trigger(types.TriggerRun); got != types.TriggerRun {
		t.Fatalf("Trigger(run) = %v, want run", got)
	}
	time.Sleep(20 * time.Millisecond)
	if got := s.Trigger(types.TriggerExit); got != types.TriggerExit {
		t.Fatalf("Trigger(exit) = %v, want exit", got)
	}

	shows := fb.Shows()
	time.Sleep(30 * time.Millisecond)
	if fb.Shows() != shows {
		t.Error("columns kept rendering after exit")
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() after exit did not return error")
	}
}
