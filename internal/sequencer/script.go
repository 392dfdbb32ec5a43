package sequencer

import (
	"fmt"
	"time"

	"libdb.so/wdtblink/led"
)

// Step shows one color for a while.
type Step struct {
	// Name is used in logs.
	Name  string
	Color led.RGBColor
	Hold  time.Duration
}

// String returns a string representation of the step.
func (s Step) String() string {
	return fmt.Sprintf("%s %s for %s", s.Name, s.Color, s.Hold)
}

// Script is an ordered list of steps.
type Script []Step

// Duration returns the total hold time of the script.
func (s Script) Duration() time.Duration {
	var d time.Duration
	for _, step := range s {
		d += step.Hold
	}
	return d
}

// Repeat returns the script played n times in a row.
func (s Script) Repeat(n int) Script {
	repeated := make(Script, 0, n*len(s))
	for i := 0; i < n; i++ {
		repeated = append(repeated, s...)
	}
	return repeated
}

// DefaultScript is the sequence played once per boot: blue for two seconds,
// then green and white blinking once a second for five seconds.
func DefaultScript() Script {
	script := Script{
		{"BLUE/ON", led.Blue, 2000 * time.Millisecond},
		{"BLUE/OFF", led.Off, 500 * time.Millisecond},
	}
	return append(script, Script{
		{"GREEN/ON", led.Green, 500 * time.Millisecond},
		{"GREEN/OFF", led.Off, 500 * time.Millisecond},
		{"WHITE/ON", led.White, 500 * time.Millisecond},
		{"WHITE/OFF", led.Off, 500 * time.Millisecond},
	}.Repeat(5)...)
}

// BlinkScript is looped once the watchdog is no longer fed: red ten times a
// second.
func BlinkScript() Script {
	return Script{
		{"RED/ON", led.Red, 100 * time.Millisecond},
		{"RED/OFF", led.Off, 100 * time.Millisecond},
	}
}
