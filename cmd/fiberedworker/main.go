// fiberedworker supervises one worker process from a signal-driven main
// loop: it forwards and reacts to signals, fires interval timers and
// listens for counter notifications from the worker.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/urfave/cli"

	"github.com/sunlightlinux/fibered/pkg/config"
	"github.com/sunlightlinux/fibered/pkg/logging"
	"github.com/sunlightlinux/fibered/pkg/process"
)

const (
	version = "0.1.0"

	defaultConfigPath = "/etc/fibered/worker.yaml"
)

var appFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config, c",
		Usage:  "worker description file",
		EnvVar: "FIBERED_CONFIG",
		Value:  defaultConfigPath,
	},
	cli.StringFlag{
		Name:  "log-level, l",
		Usage: "log level (debug, info, notice, warn, error); overrides the config file",
	},
	cli.IntFlag{
		Name:  "interval, i",
		Usage: "idle wait of the main loop in milliseconds; overrides the config file",
	},
}

func main() {
	app := cli.App{
		Name:      "fiberedworker",
		HelpName:  "fiberedworker",
		Usage:     "supervise a worker process from a signal-driven main loop",
		UsageText: "fiberedworker [--config FILE] [--log-level LEVEL] [--interval MS]",
		Version:   version,
		Flags:     appFlags,
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fiberedworker: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger := logging.New(logging.ParseLevel(level))

	if c.IsSet("interval") {
		cfg.IntervalMs = c.Int("interval")
	}

	if cfg.PIDFile != "" {
		if pid, result, _ := process.ReadPIDFile(cfg.PIDFile); result == process.PIDResultOK && pid != os.Getpid() {
			return fmt.Errorf("already running as PID %d (%s)", pid, cfg.PIDFile)
		}
	}

	sup := newSupervisor(cfg, logger)
	defer sup.close()
	if err := sup.setup(); err != nil {
		return err
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Warn("sd_notify READY: %v", err)
	} else if sent {
		logger.Debug("Readiness reported to the service manager")
	}

	exits, err := sup.loop.Run(context.Background())
	daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		return fmt.Errorf("event loop: %w", err)
	}

	logger.Info("fiberedworker shutdown complete")
	return exitStatus(exits)
}

// exitStatus mirrors the worker's exit into ours, shell style.
func exitStatus(exits []process.ChildExit) error {
	for _, e := range exits {
		switch {
		case e.ExitedClean():
			continue
		case e.Exited():
			return cli.NewExitError(fmt.Sprintf("worker %s", e.Describe()), e.Status.ExitStatus())
		case e.Signaled():
			return cli.NewExitError(fmt.Sprintf("worker %s", e.Describe()), 128+int(e.Status.Signal()))
		}
	}
	return nil
}
