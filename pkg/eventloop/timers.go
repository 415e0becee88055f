package eventloop

import (
	"github.com/sunlightlinux/fibered/pkg/signals"
	"github.com/sunlightlinux/fibered/pkg/timer"
)

// newTimer is timer.New; tests replace it.
var newTimer = timer.New

// loopTimer is a kernel timer whose expirations are consumed as a sticky
// flag by the loop.
type loopTimer struct {
	t          *timer.Timer
	startMs    int
	intervalMs int
	fn         SignalFunc
	armed      bool
}

// Arm starts the timer with its configured schedule.
func (lt *loopTimer) Arm() error {
	if err := lt.t.Start(lt.startMs, lt.intervalMs); err != nil {
		return err
	}
	lt.armed = true
	return nil
}

// IsArmed reports whether the loop expects further expirations.
func (lt *loopTimer) IsArmed() bool {
	return lt.armed
}

// Signal returns the signal the timer delivers.
func (lt *loopTimer) Signal() signals.Signal {
	return lt.t.Signal()
}

// OnTimer creates a timer delivering the given signal, first after startMs
// and then every intervalMs (0 for one-shot). It is armed when Run starts,
// or right away when called from a running loop, and released when Run
// returns.
func (el *EventLoop) OnTimer(id signals.ID, startMs, intervalMs int, fn SignalFunc) error {
	if startMs < 0 || intervalMs < 0 {
		return signals.ErrInvalidArgument
	}
	sig, err := signals.Resolve(id)
	if err != nil {
		return err
	}
	if el.claimed(sig) {
		return claimErr(sig)
	}
	t, err := newTimer(id)
	if err != nil {
		return err
	}
	if err := register(sig); err != nil {
		t.Close()
		return err
	}
	lt := &loopTimer{t: t, startMs: startMs, intervalMs: intervalMs, fn: fn}
	if el.running {
		if err := lt.Arm(); err != nil {
			t.Close()
			return err
		}
	}
	el.timers = append(el.timers, lt)
	return nil
}

func (el *EventLoop) pollTimers() {
	for _, lt := range el.timers {
		if !lt.IsArmed() || !signals.PollAndClear(lt.Signal()) {
			continue
		}
		el.logger.TimerFired(lt.Signal())
		if lt.intervalMs == 0 {
			lt.armed = false
		}
		lt.fn(lt.Signal())
	}
}

func (el *EventLoop) closeTimers() {
	for _, lt := range el.timers {
		if err := lt.t.Close(); err != nil {
			el.logger.Warn("Closing timer on %v: %v", lt.Signal(), err)
		}
	}
	el.timers = nil
}
