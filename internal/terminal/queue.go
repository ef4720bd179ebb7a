package terminal

import (
	"sync"

	"card-terminal/internal/core/domain"
)

// fifo is an unbounded queue. push never blocks; ready is signaled after
// every push so a single consumer can sleep between bursts.
type fifo[T any] struct {
	mu    sync.Mutex
	items []T
	ready chan struct{}
}

func newFIFO[T any]() *fifo[T] {
	return &fifo[T]{ready: make(chan struct{}, 1)}
}

func (q *fifo[T]) push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *fifo[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

func (q *fifo[T]) drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

type envelopeKind int

const (
	envelopeSignal envelopeKind = iota
	envelopeCancel
	envelopeDevices
)

// envelope is one unit of work for the machine's owner goroutine.
type envelope struct {
	kind   envelopeKind
	signal domain.Signal
	// opID tags follow-ups from an entry action; 0 marks external input.
	opID    uint64
	devices []domain.Device
	reply   chan<- domain.PaymentResult // charge signals only
	done    chan<- error                // cancel requests only
}
