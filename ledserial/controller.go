package ledserial

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Strip is the LED strip behind a Controller.
type Strip interface {
	// WritePixels shows pix, three bytes per LED in RGB order.
	WritePixels(pix []uint8) error
}

// Controller is the device end of the protocol. It reads incoming packets,
// drives the strip, and acknowledges every packet it handled. Packets it
// cannot handle are answered with an ErrorPacket instead.
type Controller struct {
	rw      io.ReadWriter
	strip   Strip
	numLEDs uint16
	blank   []uint8
}

// NewController creates a new controller. The strip is unusable until the
// host sends an InitializePacket.
func NewController(rw io.ReadWriter, strip Strip) *Controller {
	return &Controller{
		rw:    rw,
		strip: strip,
	}
}

// Serve handles packets until the link fails, and returns that error.
func (c *Controller) Serve() error {
	for {
		if err := c.HandleNext(); err != nil {
			return err
		}
	}
}

// HandleNext reads and handles one packet. Errors caused by the packet are
// reported to the host; only errors of the link itself are returned.
func (c *Controller) HandleNext() error {
	p, err := ReadIncomingPacket(c.rw, ReadContext{NumLEDs: c.numLEDs})
	if err != nil {
		if linkFailed(err) {
			return err
		}
		return c.reportError(err)
	}

	if err := c.handle(p); err != nil {
		return c.reportError(err)
	}

	return WriteOutgoingPacket(c.rw, AckPacket{IncomingPacketType: p.Type()})
}

func (c *Controller) handle(p IncomingPacket) error {
	switch p := p.(type) {
	case InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		c.numLEDs = p.NumLEDs
		c.blank = make([]uint8, 3*int(p.NumLEDs))
		if err := c.strip.WritePixels(c.blank); err != nil {
			return errors.Wrap(err, "failed to clear LEDs")
		}
		return WriteOutgoingPacket(c.rw, LogPacket{
			Message: fmt.Sprintf("initialized %d LEDs", p.NumLEDs),
		})

	case ClearPacket:
		if c.numLEDs == 0 {
			return errors.New("LEDs not initialized")
		}
		return c.strip.WritePixels(c.blank)

	case SetPacket:
		if c.numLEDs == 0 {
			return errors.New("LEDs not initialized")
		}
		return c.strip.WritePixels(p.Pix)

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}
}

func (c *Controller) reportError(err error) error {
	return WriteOutgoingPacket(c.rw, ErrorPacket{Message: err.Error()})
}

func linkFailed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe)
}
