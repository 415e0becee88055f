package process

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/sunlightlinux/fibered/pkg/signals"
)

// Mockable syscall functions for testing.
var (
	killFunc  = unix.Kill
	wait4Func = unix.Wait4
)

// StartProcess starts a child process with the given parameters and returns
// its PID. The child is not waited for here: the caller reaps it with Reap,
// which keeps SIGCHLD handling and wait status collection in one place.
//
// If the command cannot be started at all (e.g., binary not found),
// an error is returned and no PID is produced.
func StartProcess(params ExecParams) (int, error) {
	if len(params.Command) == 0 {
		return 0, &ExecError{Stage: StageDoExec, Err: os.ErrInvalid}
	}

	cmd := exec.Command(params.Command[0], params.Command[1:]...)

	// Working directory
	if params.WorkingDir != "" {
		if _, err := os.Stat(params.WorkingDir); err != nil {
			return 0, &ExecError{Stage: StageChdir, Err: err}
		}
		cmd.Dir = params.WorkingDir
	}

	// Environment
	if len(params.Env) > 0 {
		cmd.Env = append(os.Environ(), params.Env...)
	}

	cmd.ExtraFiles = params.ExtraFiles

	// Set process group so we can signal the group later
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	// Console handling
	if params.OnConsole {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return 0, &ExecError{Stage: StageDoExec, Err: err}
	}

	pid := cmd.Process.Pid
	// Hand the child over to Reap; os/exec must not wait for it.
	if err := cmd.Process.Release(); err != nil {
		return pid, &ExecError{Stage: StageDoExec, Err: err}
	}
	return pid, nil
}

// SignalProcess sends a signal to a process.
// If processOnly is false, signals the process group (negative PID).
func SignalProcess(pid int, sig signals.Signal, processOnly bool) error {
	if pid <= 0 {
		return nil
	}
	if processOnly {
		return killFunc(pid, sig.Sys())
	}
	// Signal the process group
	return killFunc(-pid, sig.Sys())
}
