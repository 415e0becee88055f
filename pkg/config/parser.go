// Package config loads the YAML description of a supervised worker: the
// command to run and the signals, timers and actions the main loop wires up.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"github.com/sunlightlinux/fibered/internal/util"
	"github.com/sunlightlinux/fibered/pkg/eventloop"
	"github.com/sunlightlinux/fibered/pkg/signals"
)

// Config is the worker description as written in the file. Fields tagged
// `yaml:"-"` are filled in by Load after validation.
type Config struct {
	Command    Command         `yaml:"command"`
	WorkingDir string          `yaml:"working-dir"`
	Env        []string        `yaml:"env"`
	PIDFile    string          `yaml:"pid-file"`
	Interval   string          `yaml:"interval"`
	LogLevel   string          `yaml:"log-level"`
	NotifyFD   bool            `yaml:"notify-fd"`
	Handlers   []HandlerConfig `yaml:"handlers"`
	Timers     []TimerConfig   `yaml:"timers"`

	IntervalMs int `yaml:"-"`
}

// HandlerConfig binds a signal to an action.
type HandlerConfig struct {
	Signal string `yaml:"signal"`
	Once   bool   `yaml:"once"`
	Action string `yaml:"action"`

	Sig signals.Signal `yaml:"-"`
	Act Action         `yaml:"-"`
}

// TimerConfig describes an interval timer and the action run on expiry.
type TimerConfig struct {
	Signal   string `yaml:"signal"`
	Start    string `yaml:"start"`
	Interval string `yaml:"interval"`
	Action   string `yaml:"action"`

	Sig        signals.Signal `yaml:"-"`
	StartMs    int            `yaml:"-"`
	IntervalMs int            `yaml:"-"`
	Act        Action         `yaml:"-"`
}

// Command is a program and its arguments. In the file it is either a list
// or a single string split like a shell would on spaces and quotes.
type Command []string

// UnmarshalYAML accepts both forms of a command.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = splitCommand(node.Value)
		return nil
	case yaml.SequenceNode:
		var parts []string
		if err := node.Decode(&parts); err != nil {
			return err
		}
		*c = parts
		return nil
	default:
		return fmt.Errorf("line %d: command must be a string or a list", node.Line)
	}
}

// ParseError represents an error in a worker description.
type ParseError struct {
	FileName string
	Setting  string
	Message  string
}

func (e *ParseError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("%s: setting '%s': %s", e.FileName, e.Setting, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FileName, e.Message)
}

// Load reads and validates the worker description at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse decodes a worker description. Unknown settings are rejected.
// Relative paths are taken relative to the directory of fileName.
func Parse(r io.Reader, fileName string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{FileName: fileName, Message: "empty configuration"}
		}
		return nil, &ParseError{FileName: fileName, Message: err.Error()}
	}
	if err := cfg.resolve(filepath.Dir(fileName)); err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.FileName = fileName
		}
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve(baseDir string) error {
	if len(c.Command) == 0 {
		return &ParseError{Setting: "command", Message: "a command is required"}
	}
	if c.WorkingDir != "" {
		c.WorkingDir = util.CombinePaths(baseDir, c.WorkingDir)
	}
	if c.PIDFile != "" {
		c.PIDFile = util.CombinePaths(baseDir, c.PIDFile)
	}

	c.IntervalMs = eventloop.DefaultInterval
	if c.Interval != "" {
		ms, err := util.ParseMillis(c.Interval)
		if err != nil {
			return &ParseError{Setting: "interval", Message: err.Error()}
		}
		c.IntervalMs = ms
	}

	used := map[signals.Signal]string{}
	claim := func(setting string, sig signals.Signal) error {
		if sig == 0 {
			return &ParseError{Setting: setting, Message: "EXIT cannot be delivered"}
		}
		if !signals.Catchable(sig) {
			return &ParseError{Setting: setting, Message: fmt.Sprintf("%v cannot be caught", sig)}
		}
		if prev, ok := used[sig]; ok {
			return &ParseError{Setting: setting, Message: fmt.Sprintf("%v is already used by %s", sig, prev)}
		}
		used[sig] = setting
		return nil
	}

	for i := range c.Handlers {
		h := &c.Handlers[i]
		setting := fmt.Sprintf("handlers[%d]", i)
		sig, err := signals.Resolve(signals.Parse(h.Signal))
		if err != nil {
			return &ParseError{Setting: setting, Message: err.Error()}
		}
		if err := claim(setting, sig); err != nil {
			return err
		}
		act, err := ParseAction(h.Action)
		if err != nil {
			return &ParseError{Setting: setting, Message: err.Error()}
		}
		h.Sig, h.Act = sig, act
	}

	for i := range c.Timers {
		tc := &c.Timers[i]
		setting := fmt.Sprintf("timers[%d]", i)
		sig, err := signals.Resolve(signals.Parse(tc.Signal))
		if err != nil {
			return &ParseError{Setting: setting, Message: err.Error()}
		}
		if err := claim(setting, sig); err != nil {
			return err
		}
		if tc.StartMs, err = util.ParseMillis(tc.Start); err != nil {
			return &ParseError{Setting: setting + ".start", Message: err.Error()}
		}
		if tc.IntervalMs, err = util.ParseMillis(tc.Interval); err != nil {
			return &ParseError{Setting: setting + ".interval", Message: err.Error()}
		}
		if tc.Act, err = ParseAction(tc.Action); err != nil {
			return &ParseError{Setting: setting, Message: err.Error()}
		}
		tc.Sig = sig
	}
	return nil
}

// splitCommand splits a command string into parts, respecting quotes.
func splitCommand(cmd string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)
	escaped := false

	for i := 0; i < len(cmd); i++ {
		ch := cmd[i]

		if escaped {
			current.WriteByte(ch)
			escaped = false
			continue
		}

		if ch == '\\' {
			escaped = true
			continue
		}

		if inQuote {
			if ch == quoteChar {
				inQuote = false
			} else {
				current.WriteByte(ch)
			}
			continue
		}

		if ch == '"' || ch == '\'' {
			inQuote = true
			quoteChar = ch
			continue
		}

		if ch == ' ' || ch == '\t' {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			continue
		}

		current.WriteByte(ch)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
