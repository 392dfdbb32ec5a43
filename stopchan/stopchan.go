// Package stopchan implements a bounded channel carrying stop tokens between
// tasks.
package stopchan

import (
	"context"

	"github.com/pkg/errors"
)

// DefaultCapacity is the capacity used by the firmware. Only one token is ever
// sent, so the capacity is generous.
const DefaultCapacity = 64

var (
	// ErrEmpty is returned by TryReceive when no token is pending.
	ErrEmpty = errors.New("stop channel is empty")
	// ErrFull is returned by TrySend when the channel is at capacity.
	ErrFull = errors.New("stop channel is full")
)

// Token is a stop request. It carries no payload.
type Token struct{}

// Stop is the only Token value.
var Stop = Token{}

// Sender is the producer half of a Chan.
type Sender interface {
	// Send queues a token, blocking while the channel is full.
	Send(ctx context.Context, t Token) error
	// TrySend queues a token or returns ErrFull.
	TrySend(t Token) error
}

// Receiver is the consumer half of a Chan.
type Receiver interface {
	// TryReceive returns a pending token or ErrEmpty. It never blocks.
	TryReceive() (Token, error)
}

// Chan is a bounded queue of stop tokens. It is safe for concurrent use by
// any number of senders and receivers. There is no close operation; a Chan
// lives as long as its tasks.
type Chan struct {
	ch chan Token
}

var (
	_ Sender   = (*Chan)(nil)
	_ Receiver = (*Chan)(nil)
)

// New creates a new Chan holding up to capacity tokens. A capacity below 1 is
// treated as 1.
func New(capacity int) *Chan {
	if capacity < 1 {
		capacity = 1
	}
	return &Chan{ch: make(chan Token, capacity)}
}

// Send queues t. If the channel is full, Send blocks until a receiver makes
// room or ctx is done, in which case ctx.Err() is returned. Once Send returns
// nil, the token is visible to the next TryReceive.
func (c *Chan) Send(ctx context.Context, t Token) error {
	select {
	case c.ch <- t:
		return nil
	default:
	}

	select {
	case c.ch <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend queues t without blocking.
func (c *Chan) TrySend(t Token) error {
	select {
	case c.ch <- t:
		return nil
	default:
		return ErrFull
	}
}

// TryReceive dequeues one token without blocking.
func (c *Chan) TryReceive() (Token, error) {
	select {
	case t := <-c.ch:
		return t, nil
	default:
		return Token{}, ErrEmpty
	}
}

// Len returns the number of pending tokens.
func (c *Chan) Len() int { return len(c.ch) }

// Cap returns the capacity of the channel.
func (c *Chan) Cap() int { return cap(c.ch) }
