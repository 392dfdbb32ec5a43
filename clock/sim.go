package clock

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Epoch is the time a new Sim starts at.
var Epoch = time.Unix(0, 0).UTC()

// Sim is a simulated clock. Goroutines taking part in the simulation register
// through Enter (or Spawn) and leave through Exit. Virtual time only moves
// when every registered goroutine is blocked in Sleep: it then jumps to the
// earliest pending deadline and wakes exactly one sleeper, or fires one
// timer. Sleepers due at the same instant as a timer are woken first, and
// ties between sleepers go to whoever went to sleep first.
//
// A registered goroutine that blocks on anything other than Sleep stalls the
// simulation.
type Sim struct {
	mu       sync.Mutex
	now      time.Duration
	parties  int
	sleeping int
	queue    eventQueue
	seq      uint64
}

var (
	_ Clock   = (*Sim)(nil)
	_ Tracker = (*Sim)(nil)
)

// NewSim creates a new simulated clock at Epoch.
func NewSim() *Sim {
	return &Sim{}
}

// Now implements Clock.
func (s *Sim) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Epoch.Add(s.now)
}

// Elapsed returns the virtual time since Epoch.
func (s *Sim) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Enter implements Tracker.
func (s *Sim) Enter(n int) {
	s.mu.Lock()
	s.parties += n
	s.mu.Unlock()
}

// Exit implements Tracker.
func (s *Sim) Exit() {
	s.mu.Lock()
	s.parties--
	if s.parties < 0 {
		s.mu.Unlock()
		panic("clock: Sim.Exit without matching Enter")
	}
	s.mu.Unlock()
	s.advance()
}

// Sleep implements Clock. The caller must be registered.
func (s *Sim) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	ev := s.schedule(d, sleeperKind)
	ev.ctx = ctx
	ev.wake = make(chan struct{})
	s.sleeping++
	s.mu.Unlock()

	s.advance()

	select {
	case <-ev.wake:
	case <-ctx.Done():
		s.mu.Lock()
		if !ev.fired {
			ev.fired = true
			heap.Remove(&s.queue, ev.index)
			s.sleeping--
		}
		s.mu.Unlock()
	}

	return ctx.Err()
}

// AfterFunc implements Clock. Unlike the wall clock, f runs on the goroutine
// advancing the simulation, before any later event is processed.
func (s *Sim) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	ev := s.schedule(d, timerKind)
	ev.fn = f
	s.mu.Unlock()
	return simTimer{s, ev}
}

func (s *Sim) schedule(d time.Duration, kind eventKind) *event {
	if d < 0 {
		d = 0
	}
	s.seq++
	ev := &event{
		at:   s.now + d,
		kind: kind,
		seq:  s.seq,
	}
	heap.Push(&s.queue, ev)
	return ev
}

func (s *Sim) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.parties > 0 && s.sleeping == s.parties && len(s.queue) > 0 {
		// A timer may have cancelled a sleeper's context. Let it go
		// before time moves on.
		if s.wakeCancelled() {
			return
		}

		ev := heap.Pop(&s.queue).(*event)
		ev.fired = true
		s.now = ev.at

		switch ev.kind {
		case sleeperKind:
			s.sleeping--
			close(ev.wake)
			// The woken goroutine is running now; it resumes the
			// simulation when it sleeps or exits.
			return
		case timerKind:
			s.mu.Unlock()
			ev.fn()
			s.mu.Lock()
		}
	}
}

func (s *Sim) wakeCancelled() bool {
	var cancelled []*event
	for _, ev := range s.queue {
		if ev.kind == sleeperKind && ev.ctx.Err() != nil {
			cancelled = append(cancelled, ev)
		}
	}

	for _, ev := range cancelled {
		heap.Remove(&s.queue, ev.index)
		ev.fired = true
		s.sleeping--
		close(ev.wake)
	}

	return len(cancelled) > 0
}

type simTimer struct {
	s  *Sim
	ev *event
}

func (t simTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.ev.fired {
		return false
	}
	t.ev.fired = true
	heap.Remove(&t.s.queue, t.ev.index)
	return true
}

type eventKind uint8

const (
	sleeperKind eventKind = iota
	timerKind
)

type event struct {
	at    time.Duration
	kind  eventKind
	seq   uint64
	index int
	fired bool
	ctx   context.Context
	wake  chan struct{}
	fn    func()
}

type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	if q[i].kind != q[j].kind {
		return q[i].kind < q[j].kind
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	ev := x.(*event)
	ev.index = len(*q)
	*q = append(*q, ev)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*q = old[:n-1]
	return ev
}
