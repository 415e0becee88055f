// Package process starts, signals and reaps the worker processes supervised
// by the main loop.
package process

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/sunlightlinux/fibered/pkg/signals"
)

// ExecStage identifies the stage at which process setup failed.
type ExecStage uint8

const (
	StageChdir ExecStage = iota
	StageSetupStdio
	StageDoExec
	StageWritePIDFile
)

func (s ExecStage) String() string {
	descriptions := []string{
		"changing directory",
		"setting up standard input/output",
		"executing command",
		"writing PID file",
	}
	if int(s) < len(descriptions) {
		return descriptions[s]
	}
	return fmt.Sprintf("ExecStage(%d)", s)
}

// ExecError represents a failure during child process setup or exec.
type ExecError struct {
	Stage ExecStage
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed while %s: %v", e.Stage, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ExecParams holds the parameters for starting a child process.
type ExecParams struct {
	// Command is the program and arguments to execute.
	Command []string

	// WorkingDir is the working directory for the process.
	WorkingDir string

	// Env holds additional environment variables (key=value).
	Env []string

	// ExtraFiles are inherited by the child as descriptors 3, 4, ...
	ExtraFiles []*os.File

	// OnConsole connects the child to our stdin/stdout/stderr.
	OnConsole bool
}

// ChildExit represents the result of a child process termination.
type ChildExit struct {
	// PID of the terminated process.
	PID int

	// Status is the wait status from the OS.
	Status unix.WaitStatus
}

// Exited returns true if the child exited normally.
func (c ChildExit) Exited() bool {
	return c.Status.Exited()
}

// ExitedClean returns true if the child exited with code 0.
func (c ChildExit) ExitedClean() bool {
	return c.Exited() && c.Status.ExitStatus() == 0
}

// Signaled returns true if the child was killed by a signal.
func (c ChildExit) Signaled() bool {
	return c.Status.Signaled()
}

// Describe renders how the child ended, for logs.
func (c ChildExit) Describe() string {
	switch {
	case c.Exited():
		return fmt.Sprintf("exited with status %d", c.Status.ExitStatus())
	case c.Signaled():
		return fmt.Sprintf("killed by %v", signals.Signal(c.Status.Signal()))
	default:
		return fmt.Sprintf("ended with wait status %#x", uint32(c.Status))
	}
}
