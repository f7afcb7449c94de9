package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/fkcurrie/matrix-rain-golang/internal/control"
	"github.com/fkcurrie/matrix-rain-golang/internal/display"
	"github.com/fkcurrie/matrix-rain-golang/internal/rain"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
	"github.com/fkcurrie/matrix-rain-golang/pkg/gpio"
	"github.com/fkcurrie/matrix-rain-golang/pkg/hub75"
)

// Display drivers
const (
	DriverTerminal = "terminal"
	DriverWindow   = "window"
	DriverHUB75    = "hub75"
	DriverHeadless = "headless"
)

// Config represents the application configuration
type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	HUB75     HUB75Config     `yaml:"hub75"`
	Buttons   ButtonsConfig   `yaml:"buttons"`
	Controls  ControlsConfig  `yaml:"controls"`
	Animation AnimationConfig `yaml:"animation"`
	Preview   PreviewConfig   `yaml:"preview"`
}

// DisplayConfig represents the configuration for the display
type DisplayConfig struct {
	Driver     string `yaml:"driver"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Brightness int    `yaml:"brightness"`
	// Scale is the size of one LED in window pixels
	Scale int `yaml:"scale"`
}

// HUB75Config represents the GPIO lines of a HUB75 panel
type HUB75Config struct {
	Chip        string `yaml:"chip"`
	PanelWidth  int    `yaml:"panel_width"`
	PanelHeight int    `yaml:"panel_height"`
	Scale       int    `yaml:"scale"`
	Planes      int    `yaml:"planes"`
	R1          int    `yaml:"r1"`
	G1          int    `yaml:"g1"`
	B1          int    `yaml:"b1"`
	R2          int    `yaml:"r2"`
	G2          int    `yaml:"g2"`
	B2          int    `yaml:"b2"`
	CLK         int    `yaml:"clk"`
	OE          int    `yaml:"oe"`
	LAT         int    `yaml:"lat"`
	A           int    `yaml:"a"`
	B           int    `yaml:"b"`
	C           int    `yaml:"c"`
	D           int    `yaml:"d"`
	E           int    `yaml:"e"`
}

// ButtonsConfig represents the GPIO lines of the buttons
type ButtonsConfig struct {
	Chip      string `yaml:"chip"`
	A         int    `yaml:"a"`
	B         int    `yaml:"b"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`
	ActiveLow bool   `yaml:"active_low"`
}

// ControlsConfig represents the dispatcher settings
type ControlsConfig struct {
	PollInterval time.Duration   `yaml:"poll_interval"`
	Cooldown     time.Duration   `yaml:"cooldown"`
	Bindings     []BindingConfig `yaml:"bindings"`
}

// BindingConfig maps button names to a trigger name
type BindingConfig struct {
	Buttons []string `yaml:"buttons"`
	Trigger string   `yaml:"trigger"`
}

// AnimationConfig selects the initial presets of the rain
type AnimationConfig struct {
	Palette     int `yaml:"palette"`
	Speed       int `yaml:"speed"`
	Composition int `yaml:"composition"`
	Direction   int `yaml:"direction"`
	// Palettes replaces the built-in palettes when set
	Palettes []PaletteConfig `yaml:"palettes"`
	// Seed makes the animation reproducible when non-zero
	Seed uint64 `yaml:"seed"`
}

// PaletteConfig holds hex colors such as "#00ff00"
type PaletteConfig struct {
	Start string `yaml:"start"`
	Body  string `yaml:"body"`
	Gap   string `yaml:"gap"`
}

// PreviewConfig represents the PNG snapshot settings
type PreviewConfig struct {
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
	CellSize int           `yaml:"cell_size"`
	Bezel    string        `yaml:"bezel"`
}

// LoadConfig loads the configuration from a file over the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Driver:     DriverTerminal,
			Width:      rain.DefaultWidth,
			Height:     rain.DefaultHeight,
			Brightness: 255,
			Scale:      32,
		},
		// Adafruit RGB Matrix Bonnet pinout
		HUB75: HUB75Config{
			Chip:        "gpiochip0",
			PanelWidth:  64,
			PanelHeight: 32,
			Scale:       4,
			Planes:      3,
			R1:          5,
			G1:          13,
			B1:          6,
			R2:          12,
			G2:          16,
			B2:          23,
			CLK:         17,
			OE:          4,
			LAT:         21,
			A:           22,
			B:           26,
			C:           27,
			D:           20,
			E:           24,
		},
		Buttons: ButtonsConfig{
			Chip:      "gpiochip0",
			A:         19,
			B:         25,
			X:         8,
			Y:         7,
			ActiveLow: true,
		},
		Controls: ControlsConfig{
			PollInterval: control.DefaultPollInterval,
			Cooldown:     control.DefaultCooldown,
		},
		Preview: PreviewConfig{
			Interval: time.Second,
			CellSize: 16,
		},
	}
}

// Validate checks the configuration for programming and typing errors
func (c *Config) Validate() error {
	switch c.Display.Driver {
	case DriverTerminal, DriverWindow, DriverHUB75, DriverHeadless:
	default:
		return fmt.Errorf("unknown display driver %q", c.Display.Driver)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Display.Brightness < 0 || c.Display.Brightness > 255 {
		return errors.New("brightness must be between 0 and 255")
	}
	if c.Controls.PollInterval < 0 || c.Controls.Cooldown < 0 {
		return errors.New("controls intervals must not be negative")
	}
	if _, err := c.ControlBindings(); err != nil {
		return err
	}
	tables, err := c.Tables()
	if err != nil {
		return err
	}
	if err := tables.Validate(); err != nil {
		return err
	}

	a := c.Animation
	for _, idx := range []struct {
		name string
		i, n int
	}{
		{"palette", a.Palette, len(tables.Palettes)},
		{"speed", a.Speed, len(tables.Speeds)},
		{"composition", a.Composition, len(tables.Compositions)},
		{"direction", a.Direction, len(tables.Directions)},
	} {
		if idx.i < 0 || idx.i >= idx.n {
			return fmt.Errorf("animation %s index %d out of range [0, %d)", idx.name, idx.i, idx.n)
		}
	}
	return nil
}

// ControlBindings resolves the configured bindings; none configured means the defaults
func (c *Config) ControlBindings() ([]control.Binding, error) {
	if len(c.Controls.Bindings) == 0 {
		return control.DefaultBindings(), nil
	}

	bindings := make([]control.Binding, 0, len(c.Controls.Bindings))
	for i, bc := range c.Controls.Bindings {
		t, err := types.ParseTrigger(bc.Trigger)
		if err != nil {
			return nil, fmt.Errorf("binding %d: %w", i, err)
		}
		b := control.Binding{Trigger: t}
		for _, name := range bc.Buttons {
			button, err := types.ParseButton(name)
			if err != nil {
				return nil, fmt.Errorf("binding %d: %w", i, err)
			}
			b.Buttons = append(b.Buttons, button)
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// ControlConfig returns the dispatcher configuration
func (c *Config) ControlConfig() (control.Config, error) {
	bindings, err := c.ControlBindings()
	if err != nil {
		return control.Config{}, err
	}
	return control.Config{
		PollInterval: c.Controls.PollInterval,
		Cooldown:     c.Controls.Cooldown,
		Bindings:     bindings,
	}, nil
}

// Tables returns the presets with any configured palettes applied
func (c *Config) Tables() (rain.Tables, error) {
	tables := rain.DefaultTables()
	if len(c.Animation.Palettes) == 0 {
		return tables, nil
	}

	palettes := make([]rain.Palette, len(c.Animation.Palettes))
	for i, pc := range c.Animation.Palettes {
		for kind, hex := range [...]string{rain.Start: pc.Start, rain.Body: pc.Body, rain.Gap: pc.Gap} {
			rgba, err := parseColor(hex)
			if err != nil {
				return rain.Tables{}, fmt.Errorf("palette %d %v: %w", i, rain.SegmentKind(kind), err)
			}
			palettes[i][kind] = rgba
		}
	}
	tables.Palettes = palettes
	return tables, nil
}

// parseColor reads a hex color; an empty string is black
func parseColor(hex string) (color.RGBA, error) {
	if hex == "" {
		return types.Black, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return types.RGB(r, g, b), nil
}

// RainOptions returns the rain options for the configured animation
func (c *Config) RainOptions() (rain.Options, error) {
	tables, err := c.Tables()
	if err != nil {
		return rain.Options{}, err
	}
	opts := rain.Options{
		Palette:     c.Animation.Palette,
		Speed:       c.Animation.Speed,
		Composition: c.Animation.Composition,
		Direction:   c.Animation.Direction,
		Tables:      &tables,
	}
	if c.Animation.Seed != 0 {
		opts.Generator = rain.NewSeededGenerator(c.Animation.Seed)
	}
	return opts, nil
}

// PanelConfig returns the HUB75 driver configuration
func (c *Config) PanelConfig() hub75.Config {
	h := c.HUB75
	return hub75.Config{
		Chip: h.Chip,
		Pins: hub75.Pins{
			R1: h.R1, G1: h.G1, B1: h.B1,
			R2: h.R2, G2: h.G2, B2: h.B2,
			CLK: h.CLK, OE: h.OE, LAT: h.LAT,
			A: h.A, B: h.B, C: h.C, D: h.D, E: h.E,
		},
		Width:       c.Display.Width,
		Height:      c.Display.Height,
		Scale:       h.Scale,
		PanelWidth:  h.PanelWidth,
		PanelHeight: h.PanelHeight,
		Brightness:  c.Display.Brightness,
		Planes:      h.Planes,
	}
}

// ButtonConfig returns the GPIO button configuration
func (c *Config) ButtonConfig() gpio.ButtonConfig {
	b := c.Buttons
	return gpio.ButtonConfig{
		Chip: b.Chip,
		Lines: map[types.Button]int{
			types.ButtonA: b.A,
			types.ButtonB: b.B,
			types.ButtonX: b.X,
			types.ButtonY: b.Y,
		},
		ActiveLow: b.ActiveLow,
	}
}

// RendererConfig returns the preview renderer configuration
func (c *Config) RendererConfig() display.PreviewConfig {
	return display.PreviewConfig{
		Path:     c.Preview.Path,
		Interval: c.Preview.Interval,
		CellSize: c.Preview.CellSize,
		Bezel:    c.Preview.Bezel,
	}
}
