package eventloop

import (
	"github.com/sunlightlinux/fibered/pkg/readyfd"
)

// FDFunc receives the counter read from a readiness descriptor.
type FDFunc func(value uint64)

type fdWatch struct {
	fd   int
	once bool
	fn   FDFunc
}

// OnFD switches fd to nonblocking mode and calls fn with every counter
// read from it, or only the first one when once is set.
func (el *EventLoop) OnFD(fd int, once bool, fn FDFunc) error {
	if _, err := readyfd.MakeNonblocking(fd); err != nil {
		return err
	}
	el.fds = append(el.fds, &fdWatch{fd: fd, once: once, fn: fn})
	return nil
}

func (el *EventLoop) pollFDs() error {
	current := el.fds
	el.fds = nil
	var kept []*fdWatch
	for i, w := range current {
		v, ok, err := readyfd.ReadCounter(w.fd)
		if err != nil {
			el.fds = append(append(kept, current[i:]...), el.fds...)
			return err
		}
		if !ok {
			kept = append(kept, w)
			continue
		}
		el.logger.Debug("fd %d ready: %d", w.fd, v)
		w.fn(v)
		if !w.once {
			kept = append(kept, w)
		}
	}
	el.fds = append(kept, el.fds...)
	return nil
}
