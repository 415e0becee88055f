package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// ParseMillis parses a duration into whole milliseconds. A bare number is
// taken as milliseconds; anything else must be a Go duration ("1.5s", "250ms").
func ParseMillis(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid duration: %q is negative", s)
		}
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration: %q is negative", s)
	}
	return int(d / time.Millisecond), nil
}

// MillisToTimespec splits ms into seconds and nanoseconds.
func MillisToTimespec(ms int64) unix.Timespec {
	return unix.NsecToTimespec(ms * int64(time.Millisecond))
}
