package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

func newTestDisplay(t *testing.T) (*Display, tcell.SimulationScreen) {
	t.Helper()
	d, err := New(4, 3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sim := tcell.NewSimulationScreen("")
	d.newScreen = func() (tcell.Screen, error) { return sim, nil }
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, sim
}

func TestSetPixel(t *testing.T) {
	d, sim := newTestDisplay(t)

	if err := d.SetPixel(2, 1, types.RGB(0, 200, 0)); err != nil {
		t.Fatalf("SetPixel() error = %v", err)
	}
	if err := d.SetPixel(4, 0, types.Black); err == nil {
		t.Error("SetPixel() out of bounds did not return error")
	}
	if err := d.Show(); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	want := tcell.NewRGBColor(0, 200, 0)
	for _, x := range []int{4, 5} {
		_, _, style, _ := sim.GetContent(x, 1)
		_, bg, _ := style.Decompose()
		if bg != want {
			t.Errorf("cell %d,1 background = %v, want %v", x, bg, want)
		}
	}
}

func TestNotInitialized(t *testing.T) {
	d, err := New(4, 3)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := d.SetPixel(0, 0, types.Black); err != types.ErrNotInitialized {
		t.Errorf("SetPixel() error = %v, want ErrNotInitialized", err)
	}
	if err := d.Show(); err != types.ErrNotInitialized {
		t.Errorf("Show() error = %v, want ErrNotInitialized", err)
	}
}

func TestKeys(t *testing.T) {
	d, sim := newTestDisplay(t)

	sim.InjectKey(tcell.KeyRune, 'y', tcell.ModNone)
	deadline := time.Now().Add(time.Second)
	for !d.IsPressed(types.ButtonY) {
		if time.Now().After(deadline) {
			t.Fatal("y key never read as button y")
		}
		time.Sleep(5 * time.Millisecond)
	}

	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	select {
	case <-d.Quit():
	case <-time.After(time.Second):
		t.Fatal("escape did not request quit")
	}
}
