package eventloop

import (
	"errors"
	"fmt"

	"github.com/sunlightlinux/fibered/pkg/signals"
)

// SignalFunc runs on the loop goroutine after sig was observed.
type SignalFunc func(sig signals.Signal)

type signalHandler struct {
	sig  signals.Signal
	once bool
	fn   SignalFunc
}

// register installs the process-wide sticky flag for sig. The registry
// allows one registration per process, so a flag installed earlier (by
// another loop) is reused.
func register(sig signals.Signal) error {
	if _, err := signals.Register(sig); err != nil && !errors.Is(err, signals.ErrAlreadyRegistered) {
		return err
	}
	return nil
}

func (el *EventLoop) claimed(sig signals.Signal) bool {
	for _, h := range el.handlers {
		if h.sig == sig {
			return true
		}
	}
	for _, lt := range el.timers {
		if lt.Signal() == sig {
			return true
		}
	}
	return false
}

func claimErr(sig signals.Signal) error {
	return fmt.Errorf("%w: %v already handled by this loop", signals.ErrAlreadyRegistered, sig)
}

// OnSignal calls fn each time the signal is delivered, or only the first
// time when once is set. A signal can have one consumer per loop.
func (el *EventLoop) OnSignal(id signals.ID, once bool, fn SignalFunc) error {
	sig, err := signals.Resolve(id)
	if err != nil {
		return err
	}
	if el.claimed(sig) {
		return claimErr(sig)
	}
	if err := register(sig); err != nil {
		return err
	}
	el.handlers = append(el.handlers, &signalHandler{sig: sig, once: once, fn: fn})
	return nil
}

func (el *EventLoop) pollSignals() {
	current := el.handlers
	el.handlers = nil
	var kept []*signalHandler
	for _, h := range current {
		if !signals.PollAndClear(h.sig) {
			kept = append(kept, h)
			continue
		}
		el.logger.SignalReceived(h.sig)
		h.fn(h.sig)
		if !h.once {
			kept = append(kept, h)
		}
	}
	// Handlers may have added new ones while running.
	el.handlers = append(kept, el.handlers...)
}
