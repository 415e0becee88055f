package signals

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSignal     = errors.New("signals: invalid signal")
	ErrUnsupportedSignal = errors.New("signals: unsupported signal")
	ErrAlreadyRegistered = errors.New("signals: handler already registered")
	ErrInvalidArgument   = errors.New("signals: invalid argument")
	ErrSystemCall        = errors.New("signals: system call failed")
)

// SyscallError records a failed kernel operation and the errno it returned.
type SyscallError struct {
	Op  string
	Err error
}

// NewSyscallError wraps err as a *SyscallError. It returns nil if err is nil.
func NewSyscallError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SyscallError{Op: op, Err: err}
}

func (e *SyscallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SyscallError) Unwrap() error { return e.Err }

// Is makes every *SyscallError match ErrSystemCall.
func (e *SyscallError) Is(target error) bool {
	return target == ErrSystemCall
}
