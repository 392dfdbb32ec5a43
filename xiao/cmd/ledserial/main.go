// Command ledserial turns the XIAO RP2040 into an LED controller for the host
// harness: it speaks the ledserial protocol over USB serial and drives a
// WS2812 strip on D10.
package main

import (
	"context"
	"machine"
	"time"

	"libdb.so/wdtblink/led"
	"libdb.so/wdtblink/ledserial"
	"libdb.so/wdtblink/xiao/board"
)

func main() {
	status := board.NewMainLED()
	ctrl := ledserial.NewController(WrapSerial(machine.Serial), board.NewStrip(machine.D10))

	for {
		err := ctrl.Serve()
		println("serial link failed:", err.Error())

		// Red on the onboard LED until the link is back.
		status.Write(context.Background(), led.LEDs{led.Red})
		time.Sleep(time.Second)
		status.Write(context.Background(), led.LEDs{led.Off})
	}
}
