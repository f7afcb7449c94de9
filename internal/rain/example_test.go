package rain_test

import (
	"fmt"
	"io"
	"log"

	"github.com/fkcurrie/matrix-rain-golang/internal/display"
	"github.com/fkcurrie/matrix-rain-golang/internal/rain"
	"github.com/fkcurrie/matrix-rain-golang/internal/types"
)

func Example() {
	fb, err := display.NewFrameBuffer(rain.DefaultWidth, rain.DefaultHeight)
	if err != nil {
		fmt.Printf("Failed to create framebuffer: %v\n", err)
		return
	}
	fb.Init()

	s, err := rain.New(fb, rain.Options{
		Generator: rain.NewSeededGenerator(1),
		Logger:    log.New(io.Discard, "", 0),
	})
	if err != nil {
		fmt.Printf("Failed to create rain: %v\n", err)
		return
	}

	fmt.Println(s.Trigger(types.TriggerRun))
	s.Trigger(types.TriggerCycleColor)
	fmt.Println(s.Trigger(types.TriggerCycleColor), s.Selection().Palette)
	fmt.Println(s.Trigger(types.TriggerPause))
	fmt.Println(s.Trigger(types.TriggerExit))
	// Output:
	// run
	// run 2
	// pause
	// exit
}

func ExampleDirection_Row() {
	for _, d := range []rain.Direction{rain.TopDown, rain.BottomUp} {
		fmt.Println(d, d.Row(0, rain.DefaultHeight))
	}
	// Output:
	// top-down 6
	// bottom-up 0
}
