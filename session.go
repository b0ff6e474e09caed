// Package apitrace intercepts calls into a graphics runtime, hands the
// application proxy objects in place of driver objects, and brackets selected
// calls with GPU timing samples so each result can be tied back to the call
// that produced it.
//
// All state belongs to a Session. An Interceptor installs the entry point hooks
// for a session and implements the pre-call and post-call instrumentation.
package apitrace

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/internal/thread"
	"github.com/perfstudio/go-apitrace/pkg/config"
	"github.com/perfstudio/go-apitrace/pkg/guid"
	"github.com/perfstudio/go-apitrace/pkg/hook"
	"github.com/perfstudio/go-apitrace/pkg/objectdb"
	"github.com/perfstudio/go-apitrace/pkg/sampler"
	"github.com/perfstudio/go-apitrace/pkg/timing"
	"github.com/perfstudio/go-apitrace/pkg/trace"
)

// Session is the state of one capture session.
type Session struct {
	id  guid.GUID
	cfg *config.Config
	log logrus.FieldLogger

	registry  *objectdb.Registry
	pipeline  *sampler.Pipeline
	profilers *sampler.ProfilerMap
	funcs     *trace.FuncTable

	sink      trace.Sink
	backend   timing.Backend
	resolver  timing.Resolver
	installer hook.Installer
	threadID  func() uint32

	// profiling is held from the pre-call to the post-call of a profiled call;
	// the backend has a single measurement slot.
	profiling sync.Mutex
	// holder is the thread holding profiling, or zero.
	holder atomic.Uint32

	frame atomic.Uint64
}

// Option configures a Session.
type Option func(*Session)

// WithBackend sets the timing backend. If it also implements timing.Resolver,
// results are read through it.
func WithBackend(b timing.Backend) Option {
	return func(s *Session) { s.backend = b }
}

// WithSink sets where calls are recorded.
func WithSink(sink trace.Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithInstaller sets how entry points are hooked.
func WithInstaller(i hook.Installer) Option {
	return func(s *Session) { s.installer = i }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) { s.log = log }
}

// WithThreadID overrides how the calling thread is identified.
func WithThreadID(fn func() uint32) Option {
	return func(s *Session) { s.threadID = fn }
}

// NewSession validates cfg and builds a session. A nil cfg selects
// config.Default.
//
// Without WithBackend, a native library backend is used when
// cfg.TimingLibrary is set and a software clock otherwise. Without WithSink,
// calls go to an in-memory trace.Log. Without WithInstaller, hooks go to an
// unchecked hook.Table.
func NewSession(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	id, err := guid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "session id")
	}
	s := &Session{id: id, cfg: cfg}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("session", id.String())
	if s.backend == nil {
		if cfg.TimingLibrary != "" {
			s.backend = timing.NewLibrary()
		} else {
			s.backend = timing.NewClock()
		}
	}
	if r, ok := s.backend.(timing.Resolver); ok {
		s.resolver = r
	} else {
		s.log.Warn("timing backend cannot resolve results, samples will carry no timing data")
	}
	if s.sink == nil {
		s.sink = trace.NewLog()
	}
	if s.installer == nil {
		s.installer = hook.NewTable(nil)
	}
	if s.threadID == nil {
		s.threadID = thread.CurrentID
	}

	s.funcs = trace.NewFuncTable()
	if len(cfg.ProfiledFunctions) > 0 {
		if err := s.funcs.SetProfiled(cfg.ProfiledFunctions); err != nil {
			return nil, errors.Wrap(err, "profiledFunctions")
		}
	}
	s.registry = objectdb.New(s.log)
	s.pipeline = sampler.New()
	s.profilers = sampler.NewProfilerMap(s.log)
	return s, nil
}

// ID identifies the session in logs.
func (s *Session) ID() guid.GUID { return s.id }

func (s *Session) Config() *config.Config { return s.cfg }

func (s *Session) Registry() *objectdb.Registry { return s.registry }

func (s *Session) Pipeline() *sampler.Pipeline { return s.pipeline }

func (s *Session) Profilers() *sampler.ProfilerMap { return s.profilers }

func (s *Session) Funcs() *trace.FuncTable { return s.funcs }

func (s *Session) Sink() trace.Sink { return s.sink }

func (s *Session) Backend() timing.Backend { return s.backend }

// Frame returns the number of frames begun so far.
func (s *Session) Frame() uint64 { return s.frame.Load() }

func (s *Session) profilerConfig() sampler.ProfilerConfig {
	return sampler.ProfilerConfig{MeasurementsPerGroup: s.cfg.MeasurementsPerGroup}
}

// Close ends the session: every record and per-frame state is dropped and the
// backend is closed if it holds resources.
func (s *Session) Close() error {
	s.registry.Reset()
	s.pipeline.Reset()
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
