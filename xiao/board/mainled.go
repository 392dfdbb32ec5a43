package board

import (
	"context"
	"image/color"
	"machine"

	"libdb.so/wdtblink/led"
	"tinygo.org/x/drivers/ws2812"
)

// MainLED is the onboard WS2812, powered through GPIO11 and driven on
// GPIO12.
type MainLED struct {
	dev ws2812.Device
	buf []color.RGBA
}

var _ led.Driver = (*MainLED)(nil)

// NewMainLED powers up and configures the onboard LED.
func NewMainLED() *MainLED {
	power := machine.GPIO11
	power.Configure(machine.PinConfig{Mode: machine.PinOutput})
	power.High()

	machine.GPIO12.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &MainLED{dev: ws2812.New(machine.GPIO12)}
}

// Write implements led.Driver.
func (l *MainLED) Write(ctx context.Context, leds led.LEDs) error {
	l.buf = l.buf[:0]
	for _, c := range leds {
		l.buf = append(l.buf, c.RGBA())
	}

	var err error
	Critical(func() { err = l.dev.WriteColors(l.buf) })
	return err
}
