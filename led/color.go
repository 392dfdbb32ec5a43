// Package led describes addressable RGB LEDs and the drivers that light them.
package led

import (
	"fmt"
	"image/color"
)

// RGBColor is a color in RGB order, one byte per channel.
type RGBColor [3]uint8

// Named colors used by the sequences.
var (
	Off   = RGBColor{0, 0, 0}
	Red   = RGBColor{255, 0, 0}
	Green = RGBColor{0, 255, 0}
	Blue  = RGBColor{0, 0, 255}
	White = RGBColor{255, 255, 255}
)

// RGBA converts the color to an opaque color.RGBA.
func (c RGBColor) RGBA() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xFF}
}

// String formats the color as #rrggbb.
func (c RGBColor) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
