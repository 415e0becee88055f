package signals

import (
	"context"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sunlightlinux/fibered/internal/util"
)

// Wait suspends the caller until one of the signals is pending or timeoutMs
// elapses, and takes that signal off the queue. A zero timeout polls.
//
// The signals should have been passed to Block first; an unblocked signal
// never becomes pending and Wait simply times out.
//
// Timeout returns (0, false, nil).
func Wait(ids []ID, timeoutMs int) (Signal, bool, error) {
	return WaitContext(context.Background(), ids, timeoutMs)
}

// WaitContext is Wait with an interruption source: cancelling ctx ends the
// wait the same way a timeout does.
func WaitContext(ctx context.Context, ids []ID, timeoutMs int) (Signal, bool, error) {
	set, err := setOf(ids)
	if err != nil {
		return 0, false, err
	}
	if timeoutMs < 0 {
		return 0, false, NewSyscallError("sigtimedwait", unix.EINVAL)
	}
	ts := util.MillisToTimespec(int64(timeoutMs))

	sig, ok, wake := queue.take(set)
	if ok {
		return sig, true, nil
	}
	if ts.Sec == 0 && ts.Nsec == 0 {
		return 0, false, nil
	}

	timer := time.NewTimer(time.Duration(ts.Nano()))
	defer timer.Stop()

	for {
		select {
		case <-wake:
		case <-timer.C:
			return 0, false, nil
		case <-ctx.Done():
			return 0, false, nil
		}
		if sig, ok, wake = queue.take(set); ok {
			return sig, true, nil
		}
	}
}
