package timer

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const sigevSignal = 0 // SIGEV_SIGNAL

// sigevent mirrors the kernel's struct sigevent (64 bytes on Linux).
type sigevent struct {
	value  uintptr
	signo  int32
	notify int32
	_      [64 - 8 - unsafe.Sizeof(uintptr(0))]byte
}

func sysTimerCreate(clock int32, sev *sigevent) (int32, error) {
	var id int32
	_, _, errno := unix.Syscall(unix.SYS_TIMER_CREATE,
		uintptr(clock), uintptr(unsafe.Pointer(sev)), uintptr(unsafe.Pointer(&id)))
	if errno != 0 {
		return 0, errno
	}
	return id, nil
}

func sysTimerSettime(id int32, spec *unix.ItimerSpec) error {
	_, _, errno := unix.Syscall6(unix.SYS_TIMER_SETTIME,
		uintptr(id), 0, uintptr(unsafe.Pointer(spec)), 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func sysTimerGettime(id int32, spec *unix.ItimerSpec) error {
	_, _, errno := unix.Syscall(unix.SYS_TIMER_GETTIME,
		uintptr(id), uintptr(unsafe.Pointer(spec)), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func sysTimerDelete(id int32) error {
	_, _, errno := unix.Syscall(unix.SYS_TIMER_DELETE, uintptr(id), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
