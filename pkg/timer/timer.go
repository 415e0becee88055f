// Package timer wraps POSIX interval timers that report expiration by
// delivering a signal to the process.
package timer

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/sunlightlinux/fibered/internal/util"
	"github.com/sunlightlinux/fibered/pkg/signals"
)

// ErrClosed is returned by every operation on a closed Timer.
var ErrClosed = errors.New("timer: closed")

// Mockable syscall functions for testing.
var (
	timerCreate  = sysTimerCreate
	timerSettime = sysTimerSettime
	timerGettime = sysTimerGettime
	timerDelete  = sysTimerDelete
)

// Status is the schedule reported by the kernel: time left until the next
// expiration and the repeat interval.
type Status struct {
	ValueSec     int64
	ValueNsec    int64
	IntervalSec  int64
	IntervalNsec int64
}

// handle owns the kernel timer id. release is the only path that deletes it.
type handle struct {
	id     int32
	closed atomic.Bool
}

func (h *handle) release() error {
	if !h.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return signals.NewSyscallError("timer_delete", timerDelete(h.id))
}

// Timer is a kernel interval timer on CLOCK_REALTIME. Each expiration
// delivers the signal given to New. Close must be called to release it.
type Timer struct {
	h       *handle
	sig     signals.Signal
	clock   int32
	cleanup runtime.Cleanup
}

// New creates a disarmed timer that will deliver sig.
func New(id signals.ID) (*Timer, error) {
	sig, err := signals.Resolve(id)
	if err != nil {
		return nil, err
	}

	sev := sigevent{signo: int32(sig), notify: sigevSignal}
	tid, err := timerCreate(unix.CLOCK_REALTIME, &sev)
	if err != nil {
		return nil, signals.NewSyscallError("timer_create", err)
	}

	t := &Timer{
		h:     &handle{id: tid},
		sig:   sig,
		clock: unix.CLOCK_REALTIME,
	}
	// Backstop for a Timer dropped without Close.
	t.cleanup = runtime.AddCleanup(t, func(h *handle) { _ = h.release() }, t.h)
	return t, nil
}

// Signal returns the signal delivered on expiration.
func (t *Timer) Signal() signals.Signal { return t.sig }

// ClockID returns the clock the timer counts on.
func (t *Timer) ClockID() int32 { return t.clock }

// Start arms the timer: the first expiration comes after startMs and, if
// intervalMs is given and nonzero, repeats every intervalMs. Starting an
// armed timer replaces its schedule.
//
// A zero startMs means "as soon as possible"; the kernel would read a zero
// value as disarm, so it is armed with the shortest whole-millisecond delay.
func (t *Timer) Start(startMs int, intervalMs ...int) error {
	interval := 0
	if len(intervalMs) > 0 {
		interval = intervalMs[0]
	}
	if startMs < 0 || interval < 0 {
		return fmt.Errorf("%w: values must be 0 or positive (start=%d, interval=%d)",
			signals.ErrInvalidArgument, startMs, interval)
	}
	if startMs == 0 {
		startMs = 1
	}

	spec := unix.ItimerSpec{
		Value:    util.MillisToTimespec(int64(startMs)),
		Interval: util.MillisToTimespec(int64(interval)),
	}
	return t.settime(&spec)
}

// Stop disarms the timer without releasing it.
func (t *Timer) Stop() error {
	return t.settime(&unix.ItimerSpec{})
}

// Status reads the current schedule from the kernel.
func (t *Timer) Status() (Status, error) {
	if t.h.closed.Load() {
		return Status{}, ErrClosed
	}
	var spec unix.ItimerSpec
	if err := timerGettime(t.h.id, &spec); err != nil {
		return Status{}, signals.NewSyscallError("timer_gettime", err)
	}
	return Status{
		ValueSec:     int64(spec.Value.Sec),
		ValueNsec:    int64(spec.Value.Nsec),
		IntervalSec:  int64(spec.Interval.Sec),
		IntervalNsec: int64(spec.Interval.Nsec),
	}, nil
}

// IsRunning reports whether an expiration is still scheduled.
func (t *Timer) IsRunning() (bool, error) {
	st, err := t.Status()
	if err != nil {
		return false, err
	}
	return st.ValueSec != 0 || st.ValueNsec != 0, nil
}

// Close deletes the kernel timer. Calling Close again returns ErrClosed.
func (t *Timer) Close() error {
	t.cleanup.Stop()
	return t.h.release()
}

func (t *Timer) settime(spec *unix.ItimerSpec) error {
	if t.h.closed.Load() {
		return ErrClosed
	}
	if err := timerSettime(t.h.id, spec); err != nil {
		return signals.NewSyscallError("timer_settime", err)
	}
	return nil
}
