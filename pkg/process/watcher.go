package process

import (
	"golang.org/x/sys/unix"

	"github.com/sunlightlinux/fibered/pkg/signals"
)

// Reap collects pid if it has terminated, without blocking. done is false
// while the child is still running.
func Reap(pid int) (exit ChildExit, done bool, err error) {
	var ws unix.WaitStatus
	for {
		wpid, err := wait4Func(pid, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return ChildExit{}, false, signals.NewSyscallError("wait4", err)
		}
		if wpid != pid {
			return ChildExit{}, false, nil
		}
		return ChildExit{PID: pid, Status: ws}, true, nil
	}
}
