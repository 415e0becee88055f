package config

import (
	"fmt"
	"strings"

	"github.com/sunlightlinux/fibered/pkg/signals"
)

// ActionKind is what the daemon does when a handler or timer fires.
type ActionKind uint8

const (
	// ActionLog only records the event.
	ActionLog ActionKind = iota
	// ActionSignalWorker forwards a signal to the worker's process group.
	ActionSignalWorker
	// ActionStopWorker sends the worker SIGTERM; the loop ends once it is reaped.
	ActionStopWorker
)

func (k ActionKind) String() string {
	switch k {
	case ActionLog:
		return "log"
	case ActionSignalWorker:
		return "signal-worker"
	case ActionStopWorker:
		return "stop-worker"
	default:
		return fmt.Sprintf("ActionKind(%d)", k)
	}
}

// Action is a parsed action string.
type Action struct {
	Kind   ActionKind
	Signal signals.Signal
}

func (a Action) String() string {
	if a.Kind == ActionSignalWorker {
		return fmt.Sprintf("%s:%v", a.Kind, a.Signal)
	}
	return a.Kind.String()
}

// ParseAction parses "log", "stop-worker" or "signal-worker:<signal>".
// An empty string means "log".
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	name, arg, hasArg := strings.Cut(s, ":")
	switch name {
	case "", "log":
		if hasArg {
			return Action{}, fmt.Errorf("action %q takes no argument", name)
		}
		return Action{Kind: ActionLog}, nil
	case "stop-worker":
		if hasArg {
			return Action{}, fmt.Errorf("action %q takes no argument", name)
		}
		return Action{Kind: ActionStopWorker, Signal: signals.SIGTERM}, nil
	case "signal-worker":
		if !hasArg {
			return Action{}, fmt.Errorf("action %q needs a signal", name)
		}
		sig, err := signals.Resolve(signals.Parse(arg))
		if err != nil {
			return Action{}, err
		}
		if sig == 0 {
			return Action{}, fmt.Errorf("action %q: cannot send EXIT", name)
		}
		return Action{Kind: ActionSignalWorker, Signal: sig}, nil
	default:
		return Action{}, fmt.Errorf("unknown action %q", s)
	}
}
