package tracking

import "sync"

// Dispatcher runs subscriber callbacks. Implementations must preserve the
// order in which Dispatch was called.
type Dispatcher interface {
	Dispatch(fn func())
}

// SerialDispatcher runs callbacks one at a time on a single goroutine.
// The queue is unbounded so Dispatch never blocks the caller.
type SerialDispatcher struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// NewSerialDispatcher starts the dispatch goroutine. Call Close to stop it.
func NewSerialDispatcher() *SerialDispatcher {
	d := &SerialDispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *SerialDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	select {
	case d.wake <- struct{}{}:
	default:
	}
	d.mu.Unlock()
}

// Close drains queued callbacks and stops the goroutine.
func (d *SerialDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.wake)
	d.mu.Unlock()
	<-d.done
}

func (d *SerialDispatcher) run() {
	defer close(d.done)
	for range d.wake {
		for {
			d.mu.Lock()
			if len(d.queue) == 0 {
				d.mu.Unlock()
				break
			}
			fn := d.queue[0]
			d.queue[0] = nil
			d.queue = d.queue[1:]
			d.mu.Unlock()
			fn()
		}
	}
	d.mu.Lock()
	rest := d.queue
	d.queue = nil
	d.mu.Unlock()
	for _, fn := range rest {
		fn()
	}
}

// InlineDispatcher runs callbacks on the caller's goroutine. Callbacks run
// while the engine lock is held, so they must not call back into the engine.
type InlineDispatcher struct{}

func (InlineDispatcher) Dispatch(fn func()) { fn() }
