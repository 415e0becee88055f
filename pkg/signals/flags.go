package signals

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

// flagSlot holds the sticky state for one signal number.
type flagSlot struct {
	registered atomic.Bool
	signaled   atomic.Bool
}

// flagTable is the process-wide sticky flag table. It is sized from
// SIGRTMAX when the package initializes and is never resized or exposed.
type flagTable struct {
	slots []flagSlot
	once  sync.Once
	ch    chan os.Signal
}

var flags = newFlagTable(int(SIGRTMAX) + 1)

func newFlagTable(size int) *flagTable {
	return &flagTable{
		slots: make([]flagSlot, size),
		ch:    make(chan os.Signal, queueDepth),
	}
}

// Register installs a sticky flag handler for sig. Each delivery of sig
// sets the flag and does nothing else; PollAndClear consumes it.
// A signal can be registered once.
func Register(sig Signal) (Signal, error) {
	return flags.register(sig)
}

// IsRegistered reports whether Register succeeded for sig.
func IsRegistered(sig Signal) bool {
	return flags.isRegistered(sig)
}

// PollAndClear reports whether sig was delivered since the last poll and
// clears the flag if so. It never blocks and returns false for signals that
// were never registered.
func PollAndClear(sig Signal) bool {
	return flags.pollAndClear(sig)
}

// Catchable reports whether a handler can be installed for sig. SIGKILL
// and SIGSTOP can never be caught.
func Catchable(sig Signal) bool {
	return sig != Signal(unix.SIGKILL) && sig != Signal(unix.SIGSTOP)
}

func (t *flagTable) inRange(sig Signal) bool {
	return sig > 0 && int(sig) < len(t.slots)
}

func (t *flagTable) register(sig Signal) (Signal, error) {
	if !t.inRange(sig) {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidSignal, sig)
	}
	if !Catchable(sig) {
		return 0, NewSyscallError("sigaction", unix.EINVAL)
	}
	if !t.slots[sig].registered.CompareAndSwap(false, true) {
		return 0, fmt.Errorf("%w: %v", ErrAlreadyRegistered, sig)
	}
	t.once.Do(func() { go t.dispatch() })
	notifyFunc(t.ch, sig.Sys())
	return sig, nil
}

func (t *flagTable) isRegistered(sig Signal) bool {
	return t.inRange(sig) && t.slots[sig].registered.Load()
}

func (t *flagTable) pollAndClear(sig Signal) bool {
	if !t.isRegistered(sig) {
		return false
	}
	return t.slots[sig].signaled.CompareAndSwap(true, false)
}

func (t *flagTable) dispatch() {
	for s := range t.ch {
		if sig, ok := s.(syscall.Signal); ok {
			t.raise(Signal(sig))
		}
	}
}

// raise is the whole handler: one store into the slot. Blocked signals
// belong to Wait and never reach the flag.
func (t *flagTable) raise(sig Signal) {
	if t.inRange(sig) && !queue.isBlocked(sig) {
		t.slots[sig].signaled.Store(true)
	}
}
