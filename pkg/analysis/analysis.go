package analysis

import (
	"fmt"
	"log/slog"

	"toy-powerflow/pkg/circuit"
)

// Analysis is the common face of every solver in the package.
type Analysis interface {
	Setup(snap *circuit.Snapshot) error
	Execute() error
	Results() *Report
}

// Options configures a solve. The zero value is not useful, start from
// DefaultOptions.
type Options struct {
	Tolerance    float64 `yaml:"tolerance"`
	MaxIter      int     `yaml:"max_iter"`
	TrustRadius  float64 `yaml:"trust_radius"`
	Acceleration float64 `yaml:"acceleration"`
	ControlQ     bool    `yaml:"control_q"`
	ControlTaps  bool    `yaml:"control_taps"`
	Verbose      bool    `yaml:"verbose"`
}

func DefaultOptions() Options {
	return Options{
		Tolerance:    1e-8,
		MaxIter:      25,
		TrustRadius:  1.0,
		Acceleration: 0.05,
		ControlQ:     false,
		ControlTaps:  true,
	}
}

// Event is one solver occurrence worth reporting back to the caller.
type Event struct {
	Level   slog.Level
	Message string
	Device  string
}

// EventLog collects solver events. Entries are mirrored to slog so that a
// long solve can be followed live.
type EventLog struct {
	Entries []Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) Info(device, format string, args ...any) {
	l.add(slog.LevelInfo, device, format, args...)
}

func (l *EventLog) Warn(device, format string, args ...any) {
	l.add(slog.LevelWarn, device, format, args...)
}

func (l *EventLog) add(level slog.Level, device, format string, args ...any) {
	ev := Event{Level: level, Message: fmt.Sprintf(format, args...), Device: device}
	l.Entries = append(l.Entries, ev)
	if level >= slog.LevelWarn {
		slog.Warn(ev.Message, "device", device)
	} else {
		slog.Info(ev.Message, "device", device)
	}
}

// BaseAnalysis carries what every solver needs: the compiled snapshot, the
// run options and the event log.
type BaseAnalysis struct {
	Snapshot *circuit.Snapshot
	Log      *EventLog

	options Options
}

func NewBaseAnalysis(opts Options) *BaseAnalysis {
	return &BaseAnalysis{
		Log:     NewEventLog(),
		options: opts,
	}
}

func (ba *BaseAnalysis) Options() Options {
	return ba.options
}
