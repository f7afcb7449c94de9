package display

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultBezel frames the panel; its viewBox is stretched over the whole preview
const defaultBezel = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
<rect x="1" y="1" width="98" height="98" rx="4" ry="4" fill="none" stroke="#303030" stroke-width="2"/>
</svg>`

// PreviewConfig represents the configuration for preview snapshots
type PreviewConfig struct {
	Path     string
	Interval time.Duration
	CellSize int
	// Bezel is an optional SVG file drawn over the LEDs
	Bezel string
}

// Source provides the frame to preview
type Source interface {
	Image() *image.RGBA
}

// Renderer rasterizes a frame as round LEDs and writes PNG snapshots
type Renderer struct {
	cfg   PreviewConfig
	bezel *oksvg.SvgIcon
	mu    sync.RWMutex
	src   Source
}

// NewRenderer creates a new renderer instance
func NewRenderer(cfg PreviewConfig) (*Renderer, error) {
	if cfg.CellSize <= 0 {
		cfg.CellSize = 16
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}

	var bezel io.Reader = strings.NewReader(defaultBezel)
	if cfg.Bezel != "" {
		f, err := os.Open(cfg.Bezel)
		if err != nil {
			return nil, fmt.Errorf("failed to open bezel: %w", err)
		}
		defer f.Close()
		bezel = f
	}
	icon, err := oksvg.ReadIconStream(bezel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bezel: %w", err)
	}

	return &Renderer{
		cfg:   cfg,
		bezel: icon,
	}, nil
}

// SetSource sets the frame source to render
func (r *Renderer) SetSource(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.src = src
}

// Start writes a snapshot every interval until ctx is cancelled
func (r *Renderer) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.WriteSnapshot(r.cfg.Path); err != nil {
				log.Printf("Failed to write preview: %v", err)
			}
		}
	}
}

// WriteSnapshot renders the current frame and writes it to path as PNG
func (r *Renderer) WriteSnapshot(path string) error {
	img := r.Render()
	if img == nil {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".preview-*.png")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Render draws the current frame, or returns nil when there is no source
func (r *Renderer) Render() *image.RGBA {
	r.mu.RLock()
	src := r.src
	r.mu.RUnlock()

	if src == nil {
		return nil
	}
	return r.RenderImage(src.Image())
}

// RenderImage draws one LED per pixel of frame
func (r *Renderer) RenderImage(frame *image.RGBA) *image.RGBA {
	cell := r.cfg.CellSize
	bounds := frame.Bounds()
	w, h := bounds.Dx()*cell, bounds.Dy()*cell

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	filler := rasterx.NewFiller(w, h, scanner)
	radius := float64(cell) * 0.4
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := frame.RGBAAt(x, y)
			if c.R == 0 && c.G == 0 && c.B == 0 {
				// unlit LEDs stay faintly visible
				c = color.RGBA{R: 24, G: 24, B: 24, A: 255}
			}
			cx := float64((x-bounds.Min.X)*cell) + float64(cell)/2
			cy := float64((y-bounds.Min.Y)*cell) + float64(cell)/2
			filler.SetColor(c)
			rasterx.AddCircle(cx, cy, radius, filler)
			filler.Draw()
			filler.Clear()
		}
	}

	r.bezel.SetTarget(0, 0, float64(w), float64(h))
	r.bezel.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return img
}
