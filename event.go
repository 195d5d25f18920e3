package webcam

import (
	"context"
	"sync"
)

// emitter delivers values to its listeners in subscription order.
type emitter[T any] struct {
	mu        sync.Mutex
	next      int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	f  func(T)
}

// subscribe adds f and returns a function removing it again.
func (e *emitter[T]) subscribe(f func(T)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++
	e.listeners = append(e.listeners, listener[T]{id: id, f: f})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, l := range e.listeners {
				if l.id == id {
					e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (e *emitter[T]) emit(v T) {
	e.mu.Lock()
	listeners := append([]listener[T](nil), e.listeners...)
	e.mu.Unlock()

	for _, l := range listeners {
		l.f(v)
	}
}

func (e *emitter[T]) clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
}

// dispatcher runs queued functions in order on its own goroutine. Queueing
// never blocks.
type dispatcher struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

func newDispatcher() *dispatcher {
	return &dispatcher{wake: make(chan struct{}, 1)}
}

func (d *dispatcher) push(fs ...func()) {
	if len(fs) == 0 {
		return
	}
	d.mu.Lock()
	d.pending = append(d.pending, fs...)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) pop() func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pending) == 0 {
		return nil
	}
	f := d.pending[0]
	d.pending[0] = nil
	d.pending = d.pending[1:]
	return f
}

// run executes queued functions until ctx is done. Whatever is still queued
// then is dropped.
func (d *dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		}
		for f := d.pop(); f != nil; f = d.pop() {
			if ctx.Err() != nil {
				return
			}
			f()
		}
	}
}
