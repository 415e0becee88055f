// Package eventloop implements the cooperative main loop that consumes the
// signal bridge: sticky signal flags, signal-driven timers, readiness
// descriptors and watched child processes, all polled from one goroutine.
package eventloop

import (
	"context"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/sunlightlinux/fibered/pkg/logging"
	"github.com/sunlightlinux/fibered/pkg/process"
	"github.com/sunlightlinux/fibered/pkg/signals"
)

// DefaultInterval is how long an idle iteration waits, in milliseconds.
const DefaultInterval = 100

// childIDs is what the idle phase waits on: a child exit ends the wait early.
var childIDs = []signals.ID{signals.Name("SIGCHLD")}

// EventLoop polls every registered source once per iteration and then
// suspends for at most the configured interval.
type EventLoop struct {
	logger   *logging.Logger
	interval int

	handlers []*signalHandler
	timers   []*loopTimer
	fds      []*fdWatch

	pids  map[int]struct{}
	exits []process.ChildExit

	heartbeat *rate.Limiter
	running   bool

	// Channel for forcing event loop exit
	stopCh chan struct{}

	// Called for each reaped child, before it is appended to the results.
	OnChildExit func(process.ChildExit)
}

// New creates a new EventLoop.
func New(logger *logging.Logger) *EventLoop {
	return &EventLoop{
		logger:    logger,
		interval:  DefaultInterval,
		pids:      make(map[int]struct{}),
		heartbeat: rate.NewLimiter(rate.Every(time.Second), 1),
		stopCh:    make(chan struct{}, 1),
	}
}

// SetInterval sets the idle wait in milliseconds. Zero makes the loop spin.
func (el *EventLoop) SetInterval(ms int) {
	if ms < 0 {
		ms = 0
	}
	el.interval = ms
}

// Watch adds child processes. Once every watched child has been reaped,
// Run returns.
func (el *EventLoop) Watch(pids ...int) {
	for _, pid := range pids {
		el.pids[pid] = struct{}{}
	}
}

// Stop makes Run return after the current iteration. Safe to call from any
// goroutine and from handlers.
func (el *EventLoop) Stop() {
	select {
	case el.stopCh <- struct{}{}:
	default:
	}
}

// Run drives the loop until the context is cancelled, Stop is called or,
// when processes are watched, the last of them has exited. It returns the
// exits it reaped in order.
func (el *EventLoop) Run(ctx context.Context) ([]process.ChildExit, error) {
	if _, err := signals.Block(childIDs...); err != nil {
		return nil, err
	}

	defer el.closeTimers()
	for _, lt := range el.timers {
		if err := lt.Arm(); err != nil {
			return nil, err
		}
	}
	el.running = true
	defer func() { el.running = false }()

	el.logger.Info("event loop started (PID %d)", os.Getpid())
	watching := len(el.pids) > 0

	for {
		select {
		case <-ctx.Done():
			el.logger.Info("Context cancelled, leaving event loop")
			return el.exits, ctx.Err()
		case <-el.stopCh:
			el.logger.Info("Event loop stopped")
			return el.exits, nil
		default:
		}

		el.reap()
		el.pollSignals()
		el.pollTimers()
		if err := el.pollFDs(); err != nil {
			return el.exits, err
		}

		// Sources are drained first so the last words of a worker are seen.
		if watching && len(el.pids) == 0 {
			el.logger.Info("All watched processes exited")
			return el.exits, nil
		}

		if el.heartbeat.Allow() {
			el.logger.Debug("nonblocking run: %d handlers, %d timers, %d fds, %d processes",
				len(el.handlers), len(el.timers), len(el.fds), len(el.pids))
		}

		if _, _, err := signals.WaitContext(ctx, childIDs, el.interval); err != nil {
			return el.exits, err
		}
	}
}

func (el *EventLoop) reap() {
	for pid := range el.pids {
		exit, done, err := process.Reap(pid)
		if err != nil {
			el.logger.Error("Reaping %d: %v", pid, err)
			delete(el.pids, pid)
			continue
		}
		if !done {
			continue
		}
		delete(el.pids, pid)
		el.logger.ChildReaped(pid, exit.Describe())
		if el.OnChildExit != nil {
			el.OnChildExit(exit)
		}
		el.exits = append(el.exits, exit)
	}
}
