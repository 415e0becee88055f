// Package signals bridges asynchronous OS signals into a cooperatively
// scheduled program.
//
// It offers three ways to consume a signal:
//   - Block and Wait: the signal is queued by the process and taken
//     synchronously, with a bounded timeout.
//   - Register and PollAndClear: the signal sets a sticky flag that a poll
//     loop consumes without ever blocking.
//   - a readiness file descriptor (see package readyfd).
//
// Signal identifiers are resolved uniformly by Resolve, including the
// open-ended real-time range SIGRTMIN..SIGRTMAX.
package signals

import (
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// Signal is a canonical OS signal number.
type Signal int

// Common signals, exposed as plain numbers.
const (
	SIGINT  = Signal(unix.SIGINT)
	SIGHUP  = Signal(unix.SIGHUP)
	SIGTERM = Signal(unix.SIGTERM)
)

// Sys converts s for use with os/signal and syscall.Kill.
func (s Signal) Sys() syscall.Signal {
	return syscall.Signal(s)
}

// String returns the canonical name, e.g. "SIGINT" or "SIGRT5".
func (s Signal) String() string {
	if s == 0 {
		return "EXIT"
	}
	if name, ok := canonicalNames[s]; ok {
		return "SIG" + name
	}
	if s >= SIGRTMIN && s <= SIGRTMAX {
		return "SIGRT" + strconv.Itoa(int(s-SIGRTMIN))
	}
	return "Signal(" + strconv.Itoa(int(s)) + ")"
}
