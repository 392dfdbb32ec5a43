package board

import (
	"image/color"
	"machine"

	"libdb.so/wdtblink/ledserial"
	"tinygo.org/x/drivers/ws2812"
)

// Strip is an external WS2812 strip on a data pin.
type Strip struct {
	dev ws2812.Device
	buf []color.RGBA
}

var _ ledserial.Strip = (*Strip)(nil)

// NewStrip configures pin and returns the strip on it.
func NewStrip(pin machine.Pin) *Strip {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Strip{dev: ws2812.New(pin)}
}

// WritePixels implements ledserial.Strip.
func (s *Strip) WritePixels(pix []uint8) error {
	s.buf = s.buf[:0]
	for i := 0; i+2 < len(pix); i += 3 {
		s.buf = append(s.buf, color.RGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: 0xFF})
	}

	var err error
	Critical(func() { err = s.dev.WriteColors(s.buf) })
	return err
}
