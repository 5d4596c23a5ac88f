// Package config loads the scheduler configuration from YAML.
//
// Every field has a default, so an empty or missing file yields a working
// setup against a control API on the local host. Values present in the
// file replace the defaults; lists are replaced whole.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minersched/minersched/pkg/device"
	"github.com/minersched/minersched/pkg/schedule"
)

// Defaults.
const (
	DefaultAPIURL         = "http://127.0.0.1:5000"
	DefaultRequestTimeout = 5 * time.Second
	DefaultDemoInterval   = 5 * time.Second
	DefaultQueueSize      = 16
	DefaultLogLevel       = "info"
)

// Config is the scheduler configuration.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// LoginRetries re-attempts logins that failed to reach the miner.
	LoginRetries int `yaml:"login_retries"`

	// MaxRecoveries caps session re-acquisitions per pass; 0 means the
	// fleet size.
	MaxRecoveries int `yaml:"max_recoveries"`

	Devices  []string        `yaml:"devices"`
	Schedule []ScheduleEntry `yaml:"schedule"`
	Demo     Demo            `yaml:"demo"`

	// EventLog is the path of the CBOR event log. Empty disables it.
	EventLog string `yaml:"event_log"`

	QueueSize int `yaml:"queue_size"`

	// StatusInterval prints the fleet table periodically. Zero disables.
	StatusInterval time.Duration `yaml:"status_interval"`

	LogLevel string `yaml:"log_level"`
}

// Task names a target and the dimension it applies to.
type Task struct {
	Target string `yaml:"target"`
	Kind   string `yaml:"kind"`
}

// ScheduleEntry runs Task daily at At ("HH:MM").
type ScheduleEntry struct {
	At   string `yaml:"at"`
	Task `yaml:",inline"`
}

// Demo configures the demonstration cycle.
type Demo struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Tasks    []Task        `yaml:"tasks"`
}

// Error describes a configuration problem.
type Error struct {
	File    string
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		RequestTimeout: DefaultRequestTimeout,
		Devices:        []string{"10.1.1.1", "10.1.1.2", "10.1.1.3", "10.1.1.4", "10.1.1.5"},
		Schedule: []ScheduleEntry{
			{At: "00:00", Task: Task{Target: "overclock", Kind: "profile"}},
			{At: "06:00", Task: Task{Target: "normal", Kind: "profile"}},
			{At: "12:00", Task: Task{Target: "underclock", Kind: "profile"}},
			{At: "18:00", Task: Task{Target: "sleep", Kind: "mode"}},
		},
		Demo: Demo{
			Enabled:  true,
			Interval: DefaultDemoInterval,
			Tasks: []Task{
				{Target: "overclock", Kind: "profile"},
				{Target: "normal", Kind: "profile"},
				{Target: "underclock", Kind: "profile"},
				{Target: "sleep", Kind: "mode"},
				{Target: "badmode", Kind: "mode"},
				{Target: "badprof", Kind: "profile"},
				{Target: "normal", Kind: "profile"},
				{Target: "sleep", Kind: "mode"},
				{Target: "normal", Kind: "profile"},
			},
		},
		QueueSize: DefaultQueueSize,
		LogLevel:  DefaultLogLevel,
	}
}

// Parse overlays YAML data on the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. A missing file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &Error{Field: "api_url", Message: fmt.Sprintf("must be an http(s) URL, got %q", c.APIURL)}
	}
	if c.RequestTimeout <= 0 {
		return &Error{Field: "request_timeout", Message: "must be positive"}
	}
	if c.LoginRetries < 0 {
		return &Error{Field: "login_retries", Message: "must not be negative"}
	}
	if c.MaxRecoveries < 0 {
		return &Error{Field: "max_recoveries", Message: "must not be negative"}
	}
	if c.QueueSize <= 0 {
		return &Error{Field: "queue_size", Message: "must be positive"}
	}
	if c.StatusInterval < 0 {
		return &Error{Field: "status_interval", Message: "must not be negative"}
	}
	if len(c.Devices) == 0 {
		return &Error{Field: "devices", Message: "at least one device is required"}
	}
	if _, err := device.NewFleet(c.Devices); err != nil {
		return &Error{Field: "devices", Message: "invalid device list", Cause: err}
	}

	for i, e := range c.Schedule {
		field := fmt.Sprintf("schedule[%d]", i)
		if _, err := schedule.ParseTimeOfDay(e.At); err != nil {
			return &Error{Field: field + ".at", Message: "invalid time", Cause: err}
		}
		if err := e.Task.validate(field); err != nil {
			return err
		}
	}

	if c.Demo.Enabled {
		if c.Demo.Interval <= 0 {
			return &Error{Field: "demo.interval", Message: "must be positive"}
		}
		if len(c.Demo.Tasks) == 0 {
			return &Error{Field: "demo.tasks", Message: "at least one task is required"}
		}
		for i, t := range c.Demo.Tasks {
			if err := t.validate(fmt.Sprintf("demo.tasks[%d]", i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t Task) validate(field string) error {
	if t.Target == "" {
		return &Error{Field: field + ".target", Message: "is required"}
	}
	if _, err := device.ParseKind(t.Kind); err != nil {
		return &Error{Field: field + ".kind", Message: "invalid kind", Cause: err}
	}
	return nil
}

// ScheduleTask converts t; t must have passed Validate.
func (t Task) ScheduleTask() schedule.Task {
	kind, _ := device.ParseKind(t.Kind)
	return schedule.Task{Target: t.Target, Kind: kind}
}

// Entries converts the schedule for schedule.NewTable.
func (c *Config) Entries() []schedule.Entry {
	out := make([]schedule.Entry, 0, len(c.Schedule))
	for _, e := range c.Schedule {
		at, _ := schedule.ParseTimeOfDay(e.At)
		out = append(out, schedule.Entry{At: at, Task: e.ScheduleTask()})
	}
	return out
}

// DemoTasks converts the demo cycle for schedule.NewCycler.
func (c *Config) DemoTasks() []schedule.Task {
	out := make([]schedule.Task, 0, len(c.Demo.Tasks))
	for _, t := range c.Demo.Tasks {
		out = append(out, t.ScheduleTask())
	}
	return out
}
