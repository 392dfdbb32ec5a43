// Package board holds the XIAO RP2040 peripherals shared by the firmware
// commands.
// https://wiki.seeedstudio.com/XIAO-RP2040-with-Arduino/
package board

import "runtime/interrupt"

// Critical runs f with interrupts disabled so the WS2812 bit timing holds.
func Critical(f func()) {
	state := interrupt.Disable()
	f()
	interrupt.Restore(state)
}
