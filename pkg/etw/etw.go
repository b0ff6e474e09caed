// Package etw writes TraceLogging events to Event Tracing for Windows.
//
// Event encoding is portable so it can be tested anywhere; registering a
// provider and writing events is only available on Windows.
package etw

import "github.com/pkg/errors"

// Channel is the ETW channel an event is written to.
type Channel uint8

// ChannelTraceLogging is the channel every TraceLogging event uses.
const ChannelTraceLogging Channel = 11

// Level indicates the severity of an event. Lower values are more severe.
type Level uint8

const (
	LevelAlways Level = iota
	LevelCritical
	LevelError
	LevelWarning
	LevelInfo
	LevelVerbose
)

// EventDescriptor matches the layout of the native EVENT_DESCRIPTOR.
type EventDescriptor struct {
	ID      uint16
	Version uint8
	Channel Channel
	Level   Level
	Opcode  uint8
	Task    uint16
	Keyword uint64
}

// NewEventDescriptor returns a verbose TraceLogging descriptor.
func NewEventDescriptor() *EventDescriptor {
	return &EventDescriptor{
		Channel: ChannelTraceLogging,
		Level:   LevelVerbose,
	}
}

// EventOpt adjusts the descriptor of an event being written.
type EventOpt func(*EventDescriptor)

// WithLevel sets the event level.
func WithLevel(level Level) EventOpt {
	return func(d *EventDescriptor) {
		d.Level = level
	}
}

// WithKeyword ORs keyword into the event keywords.
func WithKeyword(keyword uint64) EventOpt {
	return func(d *EventDescriptor) {
		d.Keyword |= keyword
	}
}

// ErrUnsupported is returned by providers on platforms without ETW.
var ErrUnsupported = errors.New("ETW is only available on Windows")
