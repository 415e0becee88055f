package signals

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// queueDepth bounds deliveries buffered between the runtime's handler and
// the pending queue. Deliveries beyond it are dropped by os/signal.
const queueDepth = 128

// notifyFunc is signal.Notify; tests replace it.
var notifyFunc = signal.Notify

// pendingQueue is the process-wide blocked set together with the signals
// that arrived for it and have not been taken by Wait yet. Standard signals
// coalesce while pending; real-time signals queue.
type pendingQueue struct {
	mu      sync.Mutex
	blocked Set
	ch      chan os.Signal
	std     Set
	rt      []Signal
	wake    chan struct{}
}

var queue = &pendingQueue{wake: make(chan struct{})}

// Block adds the signals to the process blocked set. From then on their
// deliveries are queued for Wait instead of reaching their default
// disposition. Nothing is ever removed from the set.
//
// It returns the number of identifiers processed.
func Block(ids ...ID) (int, error) {
	set, err := setOf(ids)
	if err != nil {
		return 0, err
	}
	queue.block(set)
	return len(ids), nil
}

// Blocked returns a copy of the process blocked set.
func Blocked() Set {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	return queue.blocked
}

func (q *pendingQueue) block(set Set) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.ch == nil {
		q.ch = make(chan os.Signal, queueDepth)
		go q.dispatch(q.ch)
	}

	var added []os.Signal
	for _, sig := range set.Members() {
		if !q.blocked.Has(sig) {
			added = append(added, sig.Sys())
		}
	}
	q.blocked.Union(set)
	if len(added) > 0 {
		notifyFunc(q.ch, added...)
	}
}

func (q *pendingQueue) isBlocked(sig Signal) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.blocked.Has(sig)
}

func (q *pendingQueue) dispatch(ch <-chan os.Signal) {
	for s := range ch {
		if sig, ok := s.(syscall.Signal); ok {
			q.push(Signal(sig))
		}
	}
}

func (q *pendingQueue) push(sig Signal) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.blocked.Has(sig) {
		return
	}
	if sig >= SIGRTMIN {
		q.rt = append(q.rt, sig)
	} else {
		_ = q.std.Add(sig)
	}
	close(q.wake)
	q.wake = make(chan struct{})
}

// take removes the lowest numbered pending member of set. When nothing
// matches it returns the channel that is closed on the next arrival.
func (q *pendingQueue) take(set Set) (Signal, bool, <-chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, sig := range q.std.Members() {
		if set.Has(sig) {
			q.std.del(sig)
			return sig, true, nil
		}
	}

	best := -1
	for i, sig := range q.rt {
		if set.Has(sig) && (best < 0 || sig < q.rt[best]) {
			best = i
		}
	}
	if best >= 0 {
		sig := q.rt[best]
		q.rt = append(q.rt[:best], q.rt[best+1:]...)
		return sig, true, nil
	}
	return 0, false, q.wake
}
