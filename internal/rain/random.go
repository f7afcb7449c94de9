package rain

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// DelayFactor scales delay ranges to integers before drawing
const DelayFactor = 1000

// Generator draws run lengths and delays from an injected source
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a generator over the given source
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// NewSeededGenerator creates a deterministic generator
func NewSeededGenerator(seed uint64) *Generator {
	return NewGenerator(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RunLength returns a uniformly distributed integer in [r.Min, r.Max]
func (g *Generator) RunLength(r Range) int {
	if r.Max <= r.Min {
		return r.Min
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return r.Min + g.rnd.IntN(r.Max-r.Min+1)
}

// ScaledRandom draws from r scaled by factor and divides the result back
func (g *Generator) ScaledRandom(r FloatRange, factor int) float64 {
	return float64(g.RunLength(scale(r, factor))) / float64(factor)
}

// Delay draws a frame delay from a speed preset with millisecond resolution
func (g *Generator) Delay(r FloatRange) time.Duration {
	return time.Duration(g.RunLength(scale(r, DelayFactor))) * time.Second / DelayFactor
}

func scale(r FloatRange, factor int) Range {
	f := float64(factor)
	return Range{
		Min: int(math.Round(r.Min * f)),
		Max: int(math.Round(r.Max * f)),
	}
}

// Coin returns true or false with equal probability
func (g *Generator) Coin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.IntN(2) == 1
}
