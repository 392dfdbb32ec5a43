// Package ledlink drives an LED strip attached to a controller on a serial
// port, using the ledserial protocol.
package ledlink

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/wdtblink/led"
	"libdb.so/wdtblink/ledserial"
)

var (
	// ErrControllerError is returned when the controller reports an error
	// instead of acknowledging a packet.
	ErrControllerError = errors.New("controller reported error")
	// ErrControllerPanic is returned when the controller reports that it
	// cannot recover.
	ErrControllerPanic = errors.New("controller panicked")
	// ErrLinkClosed is returned once the controller end of the link is gone.
	ErrLinkClosed = errors.New("serial link closed")
)

// Driver is a led.Driver talking to an LED controller. Every packet written
// waits for the controller to acknowledge it.
type Driver struct {
	port    io.ReadWriteCloser
	logger  *slog.Logger
	numLEDs int

	packets chan ledserial.OutgoingPacket
	errg    *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc

	mu sync.Mutex
}

var _ led.Driver = (*Driver)(nil)

// Open opens the serial port at device and initializes a strip of numLEDs.
func Open(ctx context.Context, device string, baud, numLEDs int, logger *slog.Logger) (*Driver, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open serial port")
	}

	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to reset read timeout")
	}

	return New(ctx, port, numLEDs, logger)
}

// New creates a driver over an already open port and initializes a strip of
// numLEDs. The driver owns port and closes it on Close.
func New(ctx context.Context, port io.ReadWriteCloser, numLEDs int, logger *slog.Logger) (*Driver, error) {
	if numLEDs < 1 || numLEDs > 0xFFFF {
		port.Close()
		return nil, errors.Errorf("invalid number of LEDs: %d", numLEDs)
	}

	ctx, cancel := context.WithCancel(ctx)
	errg, ctx := errgroup.WithContext(ctx)

	d := &Driver{
		port:    port,
		logger:  logger,
		numLEDs: numLEDs,
		packets: make(chan ledserial.OutgoingPacket),
		errg:    errg,
		ctx:     ctx,
		cancel:  cancel,
	}

	errg.Go(func() error { return d.readPackets(ctx) })

	d.logger.Debug("sending initialize packet", "leds", numLEDs)
	if err := d.exchange(ctx, ledserial.InitializePacket{NumLEDs: uint16(numLEDs)}); err != nil {
		d.Close()
		return nil, errors.Wrap(err, "failed to initialize LEDs")
	}

	return d, nil
}

// Write implements led.Driver. The strip is padded with off LEDs or truncated
// to the length it was initialized with.
func (d *Driver) Write(ctx context.Context, leds led.LEDs) error {
	frame := led.NewLEDs(d.numLEDs)
	frame.Draw(0, leds)

	return d.exchange(ctx, ledserial.SetPacket{
		Pix: frame.AsPixels(),
	})
}

// Clear turns every LED off.
func (d *Driver) Clear(ctx context.Context) error {
	return d.exchange(ctx, ledserial.ClearPacket{})
}

// Close stops the reader and closes the port.
func (d *Driver) Close() error {
	d.cancel()
	err := d.port.Close()
	if werr := d.errg.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
		d.logger.Debug("serial reader stopped", "error", werr)
	}
	return err
}

func (d *Driver) exchange(ctx context.Context, p ledserial.IncomingPacket) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx.Err() != nil {
		return d.readerErr()
	}

	d.logger.Debug(
		"writing packet",
		"type", p.Type())

	if err := ledserial.WriteIncomingPacket(d.port, p); err != nil {
		return errors.Wrap(err, "failed to write packet")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-d.ctx.Done():
			return d.readerErr()

		case op := <-d.packets:
			switch op := op.(type) {
			case ledserial.AckPacket:
				if op.IncomingPacketType == p.Type() {
					return nil
				}
				d.logger.Debug(
					"ignoring ack for another packet",
					"acked_for", op.IncomingPacketType,
					"waiting_for", p.Type())

			case ledserial.LogPacket:
				d.logger.Info(
					"received log packet from controller",
					"message", op.Message)

			case ledserial.ErrorPacket:
				d.logger.Warn(
					"received error packet from controller",
					"message", op.Message)
				return errors.Wrap(ErrControllerError, op.Message)

			case ledserial.PanicPacket:
				d.logger.Error("controller unrecoverably panicked")
				return ErrControllerPanic

			default:
				return errors.Errorf("received unknown packet from controller: %s", op.Type())
			}
		}
	}
}

// readerErr returns why the reader stopped. It must only be called once d.ctx
// is done.
func (d *Driver) readerErr() error {
	if err := d.errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ErrLinkClosed
}

func (d *Driver) readPackets(ctx context.Context) error {
	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(d.port)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// The port never times out, so EOF means the controller hung
			// up.
			if errors.Is(err, io.EOF) {
				return ErrLinkClosed
			}
			return errors.Wrap(err, "failed to read packet")
		}

		d.logger.Debug(
			"received packet from controller",
			"type", p.Type())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case d.packets <- p:
			// ok
		}
	}

	return ctx.Err()
}
