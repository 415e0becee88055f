package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sys/unix"

	"github.com/sunlightlinux/fibered/pkg/config"
	"github.com/sunlightlinux/fibered/pkg/eventloop"
	"github.com/sunlightlinux/fibered/pkg/logging"
	"github.com/sunlightlinux/fibered/pkg/process"
	"github.com/sunlightlinux/fibered/pkg/readyfd"
	"github.com/sunlightlinux/fibered/pkg/signals"
)

// notifyFDEnv tells the worker which inherited descriptor is the eventfd
// it may write counters to.
const notifyFDEnv = "FIBERED_NOTIFY_FD"

type supervisor struct {
	cfg    *config.Config
	logger *logging.Logger
	loop   *eventloop.EventLoop

	workerPID  int
	notifyFD   int
	notifyFile *os.File
	pidWritten bool
}

func newSupervisor(cfg *config.Config, logger *logging.Logger) *supervisor {
	return &supervisor{
		cfg:    cfg,
		logger: logger,
		loop:   eventloop.New(logger),
	}
}

// setup registers every source on the loop and starts the worker.
func (s *supervisor) setup() error {
	s.loop.SetInterval(s.cfg.IntervalMs)

	claimed := map[signals.Signal]bool{}
	for _, h := range s.cfg.Handlers {
		act := h.Act
		if err := s.loop.OnSignal(signals.Parse(h.Signal), h.Once, func(sig signals.Signal) {
			s.perform(act, sig)
		}); err != nil {
			return fmt.Errorf("handler for %s: %w", h.Signal, err)
		}
		claimed[h.Sig] = true
	}

	// Without explicit handlers, TERM and INT stop the worker.
	for _, sig := range []signals.Signal{signals.SIGTERM, signals.SIGINT} {
		if claimed[sig] {
			continue
		}
		if err := s.loop.OnSignal(signals.Num(int(sig)), false, func(sig signals.Signal) {
			s.perform(config.Action{Kind: config.ActionStopWorker, Signal: signals.SIGTERM}, sig)
		}); err != nil {
			return err
		}
	}

	for _, tc := range s.cfg.Timers {
		act := tc.Act
		if err := s.loop.OnTimer(signals.Parse(tc.Signal), tc.StartMs, tc.IntervalMs, func(sig signals.Signal) {
			s.perform(act, sig)
		}); err != nil {
			return fmt.Errorf("timer on %s: %w", tc.Signal, err)
		}
	}

	params := process.ExecParams{
		Command:    s.cfg.Command,
		WorkingDir: s.cfg.WorkingDir,
		Env:        s.cfg.Env,
		OnConsole:  true,
	}
	if s.cfg.NotifyFD {
		if err := s.setupNotifyFD(&params); err != nil {
			return err
		}
	}

	pid, err := process.StartProcess(params)
	if err != nil {
		return err
	}
	s.workerPID = pid
	if s.notifyFile != nil {
		// Handing the file to the child switched it to blocking mode.
		if _, err := readyfd.MakeNonblocking(s.notifyFD); err != nil {
			return err
		}
	}
	s.loop.Watch(pid)
	s.logger.WorkerStarted(pid)

	if s.cfg.PIDFile != "" {
		if err := process.WritePIDFile(s.cfg.PIDFile, os.Getpid()); err != nil {
			return err
		}
		s.pidWritten = true
	}
	return nil
}

func (s *supervisor) setupNotifyFD(params *process.ExecParams) error {
	fd, err := readyfd.NewEventFD(0)
	if err != nil {
		return err
	}
	s.notifyFD = fd
	s.notifyFile = os.NewFile(uintptr(fd), "fibered-notify")
	// ExtraFiles start at descriptor 3 in the child.
	params.ExtraFiles = []*os.File{s.notifyFile}
	params.Env = append(params.Env, notifyFDEnv+"="+strconv.Itoa(3))

	return s.loop.OnFD(fd, false, func(v uint64) {
		s.logger.Info("Worker notification: %d", v)
		daemon.SdNotify(false, fmt.Sprintf("STATUS=worker notified %d", v))
	})
}

// perform runs an action on the loop goroutine.
func (s *supervisor) perform(act config.Action, sig signals.Signal) {
	switch act.Kind {
	case config.ActionLog:
		s.logger.Notice("Received %v", sig)
	case config.ActionSignalWorker, config.ActionStopWorker:
		if act.Kind == config.ActionStopWorker {
			s.logger.Notice("Received %v, stopping worker [%d]", sig, s.workerPID)
		} else {
			s.logger.Info("Received %v, sending %v to worker [%d]", sig, act.Signal, s.workerPID)
		}
		if err := process.SignalProcess(s.workerPID, act.Signal, false); err != nil && !errors.Is(err, unix.ESRCH) {
			s.logger.Error("Signalling worker [%d]: %v", s.workerPID, err)
		}
	}
}

func (s *supervisor) close() {
	if s.notifyFile != nil {
		s.notifyFile.Close()
	}
	if s.pidWritten {
		if err := process.RemovePIDFile(s.cfg.PIDFile); err != nil {
			s.logger.Warn("Removing PID file: %v", err)
		}
	}
}
