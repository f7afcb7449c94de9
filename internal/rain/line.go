package rain

import (
	"context"
	"time"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

// pausePoll is how often a paused line re-checks the trigger state
const pausePoll = 10 * time.Millisecond

// initialShift is how far beyond the grid height the initial gap may reach
const initialShift = 10

// line is one scrolling column
type line struct {
	x      int
	dots   []SegmentKind // front scrolls off next
	cursor SegmentKind   // kind of the next segment to synthesize
	delay  time.Duration
}

// newLine starts a column with a random run of gap dots so the columns do not
// move in lockstep
func newLine(x, height int, speed FloatRange, rnd *Generator) *line {
	shift := rnd.RunLength(Range{height, height + initialShift})
	dots := make([]SegmentKind, shift, shift+height)
	for i := range dots {
		dots[i] = Gap
	}
	return &line{
		x:      x,
		dots:   dots,
		cursor: Start,
		delay:  rnd.Delay(speed),
	}
}

// topUp appends segments until at least height dots are queued
func (l *line) topUp(height int, comp Composition, speed FloatRange, rnd *Generator) {
	for len(l.dots) < height {
		if l.cursor == Start {
			l.delay = rnd.Delay(speed)
		}
		n := rnd.RunLength(comp[l.cursor])
		for i := 0; i < n; i++ {
			l.dots = append(l.dots, l.cursor)
		}
		l.cursor = l.cursor.next()
	}
}

// scroll drops the front dot
func (l *line) scroll() {
	l.dots = l.dots[1:]
}

// trim cuts the queue back to keep dots when it is longer than limit
func (l *line) trim(limit, keep int) bool {
	if len(l.dots) <= limit {
		return false
	}
	l.dots = l.dots[:keep]
	return true
}

// run steps the line until ctx is cancelled
func (s *Surface) run(ctx context.Context, l *line) {
	defer s.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		timer.Reset(s.step(l))
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// step tops up, renders and scrolls one column and returns the delay until the
// next step. A paused line does nothing and re-checks after pausePoll.
func (s *Surface) step(l *line) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.Load() == types.TriggerPause {
		return pausePoll
	}

	l.topUp(s.height, s.tables.Compositions[s.composition], s.tables.Speeds[s.speed], s.rnd)
	s.render(l)
	if err := s.display.Show(); err != nil {
		s.logf("Failed to show column %d: %v", l.x, err)
	}
	l.scroll()
	return l.delay
}

// render writes the visible window of a line and records it in the cache
func (s *Surface) render(l *line) {
	palette := s.tables.Palettes[s.palette]
	dir := s.tables.Directions[s.direction].Resolve(s.rnd.Coin)
	column := s.cache[l.x]
	for y := 0; y < s.height; y++ {
		kind := l.dots[y]
		row := dir.Row(y, s.height)
		column[row] = kind
		if err := s.display.SetPixel(l.x, row, palette[kind]); err != nil {
			s.logf("Failed to set pixel (%d, %d): %v", l.x, row, err)
		}
	}
}
