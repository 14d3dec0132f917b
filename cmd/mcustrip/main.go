//go:build tinygo

// Command mcustrip runs the default effect on a microcontroller: 24 SK6812
// RGBW LEDs on pin 4.
package main

import (
	"image"
	"machine"
	"time"

	"github.com/coreman2200/arcastrip/internal/fx"
	"github.com/coreman2200/arcastrip/internal/fx/modes"
	"github.com/coreman2200/arcastrip/internal/led"
	"github.com/coreman2200/arcastrip/internal/strip"
)

const (
	pin        = machine.Pin(4)
	numLEDs    = 24
	brightness = 100.0 / 255
	fps        = 50
)

func main() {
	st, err := strip.New(led.NewMCU(pin), &strip.Opts{Family: strip.SK6812RGBW, NumPixels: numLEDs, Mask: 0x01})
	if err != nil {
		println("strip:", err.Error())
		return
	}
	e, _ := modes.New().Get(modes.Default)

	buf := make([]fx.Color, numLEDs)
	img := image.NewNRGBA(st.Bounds())
	u := &fx.Uniforms{Speed: 1}
	start := time.Now()
	for {
		e.Render(buf, time.Since(start).Seconds(), u)
		fx.Scale(buf, brightness)
		fx.Fill(img, buf)
		if err := st.Draw(st.Bounds(), img, image.Point{}); err != nil {
			println("draw:", err.Error())
		}
		time.Sleep(time.Second / fps)
	}
}
