// Package timing describes the GPU timestamp backend the profiler drives, and
// provides the pieces shared by every backend: a status code set, a completion
// fence, and a software clock backend.
//
// A backend supports exactly one open measurement at a time. Callers bracket a
// piece of work with BeginSample and EndSample; results become readable only
// after the work has been submitted and the completion counter returned by
// Resolver.Signal has been reached.
package timing

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/pkg/handle"
)

// ErrUnsupported is returned when a backend cannot run on this platform.
var ErrUnsupported = errors.New("timing backend not supported on this platform")

// Status is the closed set of codes a backend reports. Anything other than
// StatusOK means the sample has no timing data.
type Status int32

const (
	StatusOK Status = iota
	StatusFailed
	StatusNotReady
	StatusContextNotSelected
	StatusSampleNotOpen
	StatusSampleAlreadyOpen
	StatusUnsupported
)

// OK reports whether s is StatusOK.
func (s Status) OK() bool { return s == StatusOK }

// Err converts s into an error for operation op, or nil on success.
func (s Status) Err(op string) error {
	if s.OK() {
		return nil
	}
	return &StatusError{Op: op, Status: s}
}

// StatusError carries a failed backend status.
type StatusError struct {
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("timing %s failed with status code %d", e.Op, int32(e.Status))
}

// Result is a resolved measurement.
type Result struct {
	SampleID uint64
	Duration time.Duration
}

// Empty reports whether r carries no measurement.
func (r Result) Empty() bool { return r.SampleID == 0 && r.Duration == 0 }

// Backend brackets measurements. SelectContext picks the real command buffer
// subsequent samples are recorded on.
type Backend interface {
	SelectContext(ctx handle.Handle) Status
	BeginSample(id uint64) Status
	EndSample() Status
}

// Loader is implemented by backends that live in a dynamically loaded library.
type Loader interface {
	Load(path string) error
	RegisterLoggingCallback(fn LogFunc) Status
}

// Resolver turns ended samples into results. Signal marks everything ended so
// far as submitted on queue and returns the completion value to wait for.
type Resolver interface {
	Signal(queue handle.Handle) uint64
	Wait(ctx context.Context, value uint64) error
	Result(id uint64) (Result, Status)
}

// LogType classifies a message emitted by a backend.
type LogType uint32

const (
	LogError LogType = iota + 1
	LogMessage
	LogTrace
)

// LogFunc receives backend log messages.
type LogFunc func(typ LogType, message string)

// LogrusCallback routes backend messages into log at a matching level.
// Unknown types are logged at info level.
func LogrusCallback(log logrus.FieldLogger) LogFunc {
	return func(typ LogType, message string) {
		entry := log.WithField("source", "timing")
		switch typ {
		case LogError:
			entry.Error(message)
		case LogMessage:
			entry.Debug(message)
		case LogTrace:
			entry.Trace(message)
		default:
			entry.Info(message)
		}
	}
}
