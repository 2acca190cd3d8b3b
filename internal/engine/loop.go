package engine

import "context"

// loop is the session's cooperative scheduler: one goroutine owns all sync
// state and runs posted tasks in order. Scene listener callbacks, document
// change events, debounce expirations, and settle tasks all funnel through
// it, so guard state needs no further synchronization once a task is
// running.
type loop struct {
	tasks chan func()
	quit  chan struct{}
}

func newLoop() *loop {
	return &loop{
		tasks: make(chan func(), 256),
		quit:  make(chan struct{}),
	}
}

// run processes tasks until ctx is cancelled. Tasks still queued at
// cancellation are dropped; there is no cancellation of a task already
// running.
func (l *loop) run(ctx context.Context) {
	defer close(l.quit)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// post queues fn. Posting after the loop has stopped is a no-op.
func (l *loop) post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.quit:
	}
}

// call runs fn on the loop and waits for it to finish. Must not be called
// from a loop task - that would deadlock the single scheduler goroutine.
func (l *loop) call(fn func()) {
	done := make(chan struct{})
	l.post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
	case <-l.quit:
	}
}
