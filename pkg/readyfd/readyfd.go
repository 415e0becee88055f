// Package readyfd handles descriptors used as wakeup sources: pipes written
// from another context and eventfd counters.
package readyfd

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/sunlightlinux/fibered/pkg/signals"
)

// counterSize is the width of an eventfd counter.
const counterSize = 8

// Mockable syscall functions for testing.
var (
	fcntlFunc = unix.FcntlInt
	readFunc  = unix.Read
)

// MakeNonblocking sets O_NONBLOCK on fd. A descriptor that is already
// nonblocking is left untouched.
func MakeNonblocking(fd int) (bool, error) {
	flags, err := fcntlFunc(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return false, signals.NewSyscallError("fcntl F_GETFL", err)
	}
	if flags&unix.O_NONBLOCK != 0 {
		return true, nil
	}
	if _, err := fcntlFunc(uintptr(fd), unix.F_SETFL, flags|unix.O_NONBLOCK); err != nil {
		return false, signals.NewSyscallError("fcntl F_SETFL", err)
	}
	return true, nil
}

// ReadCounter reads one 8-byte counter from fd in host byte order.
// It returns ok == false when nothing is ready yet.
func ReadCounter(fd int) (value uint64, ok bool, err error) {
	var buf [counterSize]byte
	n, err := readFunc(fd, buf[:])
	if err == unix.EAGAIN {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, signals.NewSyscallError("read nonblock", err)
	}
	if n != counterSize {
		return 0, false, signals.NewSyscallError("read nonblock",
			fmt.Errorf("short read: %d of %d bytes", n, counterSize))
	}
	return binary.NativeEndian.Uint64(buf[:]), true, nil
}

// NewEventFD returns a nonblocking, close-on-exec eventfd.
func NewEventFD(initval uint) (int, error) {
	fd, err := unix.Eventfd(initval, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return -1, signals.NewSyscallError("eventfd", err)
	}
	return fd, nil
}

// Notify adds n to the counter behind fd.
func Notify(fd int, n uint64) error {
	var buf [counterSize]byte
	binary.NativeEndian.PutUint64(buf[:], n)
	written, err := unix.Write(fd, buf[:])
	if err != nil {
		return signals.NewSyscallError("write", err)
	}
	if written != counterSize {
		return signals.NewSyscallError("write", fmt.Errorf("short write: %d of %d bytes", written, counterSize))
	}
	return nil
}
