package palette

import (
	"testing"

	"github.com/fkcurrie/matrix-rain-golang/internal/display"
	"github.com/fkcurrie/matrix-rain-golang/internal/rain"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

func TestViewer(t *testing.T) {
	fb, err := display.NewFrameBuffer(6, 2)
	if err != nil {
		t.Fatalf("NewFrameBuffer() error = %v", err)
	}
	fb.Init()

	palettes := []rain.Palette{
		{types.RGB(1, 0, 0), types.RGB(2, 0, 0), types.RGB(3, 0, 0)},
		{types.RGB(0, 1, 0), types.RGB(0, 2, 0), types.RGB(0, 3, 0)},
	}
	v, err := New(fb, palettes)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := v.Trigger(types.TriggerRun); got != types.TriggerRun {
		t.Fatalf("Trigger(run) = %v", got)
	}
	wantBands := func(p rain.Palette) {
		t.Helper()
		for x := 0; x < 6; x++ {
			got, _ := fb.Pixel(x, 1)
			if want := p[x/2]; got != want {
				t.Errorf("pixel %d = %v, want %v", x, got, want)
			}
		}
	}
	wantBands(palettes[0])

	v.Trigger(types.TriggerCycleColor)
	wantBands(palettes[1])
	v.Trigger(types.TriggerCycleColor)
	if v.Index() != 0 {
		t.Errorf("Index() = %d after wrapping, want 0", v.Index())
	}

	if got := v.Trigger(types.TriggerCycleSpeed); got != types.TriggerRun {
		t.Errorf("Trigger(speed) = %v, want run", got)
	}
	if got := v.Trigger(types.TriggerExit); got != types.TriggerExit {
		t.Errorf("Trigger(exit) = %v", got)
	}
	if got := v.Trigger(types.TriggerRun); got != types.TriggerExit {
		t.Errorf("Trigger(run) after exit = %v, want exit", got)
	}
}

func TestNewWithoutPalettes(t *testing.T) {
	fb, _ := display.NewFrameBuffer(6, 2)
	if _, err := New(fb, nil); err == nil {
		t.Error("New() without palettes did not return error")
	}
}
