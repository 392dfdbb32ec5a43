// Package watchdog models the watchdog timer the firmware arms at boot.
//
// A watchdog is a one-way state machine:
//
//	Unarmed --Start--> Armed --Feed--> Fed --Feed--> Fed
//	Armed, Fed --no Feed within timeout--> Reset
//
// There is no way to disarm it. Reset is terminal: on hardware the processor
// restarts, so nothing after it is observable by the software that armed it.
package watchdog

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyStarted is returned by Start on a watchdog that was already
	// armed.
	ErrAlreadyStarted = errors.New("watchdog already started")
	// ErrInvalidTimeout is returned by Start for a non-positive timeout.
	ErrInvalidTimeout = errors.New("watchdog timeout must be positive")
)

// Controller is a watchdog peripheral.
type Controller interface {
	// Start arms the watchdog. From then on, failing to call Feed within
	// timeout resets the processor. Start may only be called once.
	Start(timeout time.Duration) error
	// Feed restarts the countdown at the full timeout. Feeding a watchdog
	// that is not armed does nothing.
	Feed()
}

// State is the lifecycle state of a watchdog.
type State uint8

const (
	Unarmed State = iota
	Armed
	Fed
	Reset
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case Unarmed:
		return "unarmed"
	case Armed:
		return "armed"
	case Fed:
		return "fed"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Running returns true if the watchdog is counting down.
func (s State) Running() bool {
	return s == Armed || s == Fed
}
