package apitrace

import (
	"context"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/pkg/config"
	"github.com/perfstudio/go-apitrace/pkg/handle"
	"github.com/perfstudio/go-apitrace/pkg/sampler"
	"github.com/perfstudio/go-apitrace/pkg/trace"
)

// Call is one intercepted method call, passed to PreCall and then to PostCall
// on the same thread.
type Call struct {
	Func trace.FuncID
	// Target is the object the method is called on, usually a command list
	// proxy.
	Target handle.Handle
	// Thread is the calling OS thread. Zero means PreCall looks it up.
	Thread uint32

	state    sampler.CallState
	locked   bool
	sampled  bool
	real     handle.Handle
	profiler *sampler.Profiler
	reserved uint64
	sampleID uint64
}

// State returns how far the call has progressed.
func (c *Call) State() sampler.CallState { return c.state }

// SampleID returns the id of the call's sample, or sampler.NoSample.
func (c *Call) SampleID() uint64 { return c.sampleID }

func (i *Interceptor) advance(c *Call, next sampler.CallState) {
	if !c.state.CanAdvance(next) {
		i.log.WithFields(logrus.Fields{
			"func": c.Func,
			"from": c.state,
			"to":   next,
		}).Error("invalid call state transition")
	}
	c.state = next
}

func (i *Interceptor) shouldProfile(fn trace.FuncID) bool {
	return i.s.cfg.CollectGPUTime && i.s.funcs.ShouldProfile(fn)
}

// PreCall runs before the real method. For a profiled call it takes the
// session profiling lock, reserves a sample id and opens a timing bracket on
// the real command buffer. Failures only cost the call its timing data.
func (i *Interceptor) PreCall(c *Call) {
	if c.Thread == 0 {
		c.Thread = i.s.threadID()
	}
	log := i.log.WithFields(logrus.Fields{
		"func":   c.Func,
		"thread": c.Thread,
	})
	if !i.shouldProfile(c.Func) {
		log.Trace("not profiled")
		return
	}
	// Only this thread stores its own id as holder, so the check needs no lock.
	if i.s.holder.Load() == c.Thread || i.s.pipeline.InBracket(c.Thread) {
		log.Warn("nested profiled call on one thread, not profiling the inner call")
		return
	}

	md, ok := i.s.registry.Lookup(c.Target)
	if !ok {
		log.WithField("handle", c.Target).Error("failed to unwrap the target of a profiled call")
		return
	}
	dev := md.Device()
	if dev == nil || dev.IsDestroyed() {
		log.WithField("handle", c.Target).Debug("target has no live device, not profiling")
		return
	}
	p, ok := i.s.profilers.Get(dev.RealHandle())
	if !ok {
		log.WithField("handle", c.Target).Debug("device has no profiler, not profiling")
		return
	}
	c.real = md.RealHandle()

	if n := i.s.pipeline.IncrementCommandBufferSampleCount(c.real); n > p.Limit() {
		if n == p.Limit()+1 {
			log.WithFields(logrus.Fields{
				"handle": c.Target,
				"limit":  p.Limit(),
			}).Warn("too many samples on command buffer this frame, sampling stops until the next frame")
		}
		return
	}

	i.s.profiling.Lock()
	i.s.holder.Store(c.Thread)
	c.locked = true
	c.sampled = true
	c.profiler = p

	id := i.s.pipeline.BeginSampleForThread(c.Thread, c.real)
	c.reserved = id
	i.advance(c, sampler.StateSampleReserved)
	log = log.WithField("sampleID", id)

	status := i.s.backend.SelectContext(c.real)
	if status.OK() {
		status = i.s.backend.BeginSample(id)
	}
	i.s.pipeline.MarkBegun(c.Thread, status.OK())
	if !status.OK() {
		log.WithField("status", int32(status)).Error("failed to begin sample")
		return
	}
	i.advance(c, sampler.StateBracketOpen)
	log.Trace("began sample")
}

// PostCall runs after the real method. It closes the timing bracket, logs the
// call with its sample id and releases the profiling lock. args is the
// stringified argument list and ret the return value, or trace.ReturnVoid.
// It returns the record of the call, or zero if nothing was logged.
func (i *Interceptor) PostCall(c *Call, args string, ret int64) trace.RecordHandle {
	if c.locked {
		defer func() {
			c.locked = false
			i.s.holder.Store(0)
			i.s.profiling.Unlock()
		}()
	}
	entry := trace.Entry{
		Func:   c.Func,
		Thread: c.Thread,
		Target: c.Target,
		Args:   args,
		Return: ret,
		Frame:  i.s.Frame(),
	}

	if !c.sampled {
		var h trace.RecordHandle
		if i.s.cfg.CollectAPITrace {
			h = i.s.sink.LogCall(entry)
		}
		i.advance(c, sampler.StateLogged)
		return h
	}

	log := i.log.WithFields(logrus.Fields{
		"func":     c.Func,
		"thread":   c.Thread,
		"sampleID": c.reserved,
	})
	if info, ok := i.s.pipeline.ResolveSampleForThread(c.Thread); !ok || info.ID != c.reserved {
		log.Warn("thread sample was replaced during the call")
	}
	// Every successful begin gets exactly one end, whatever the thread map says.
	if c.state == sampler.StateBracketOpen {
		status := i.s.backend.EndSample()
		i.advance(c, sampler.StateBracketClosed)
		if status.OK() {
			c.sampleID = c.reserved
		} else {
			log.WithField("status", int32(status)).Error("failed to end sample")
		}
	} else {
		log.Trace("sample did not begin, not ending it")
	}
	i.s.pipeline.EndSampleForThread(c.Thread)

	entry.SampleID = c.sampleID
	h := i.s.sink.LogCall(entry)
	i.advance(c, sampler.StateLogged)

	if c.sampleID != sampler.NoSample && i.s.resolver != nil {
		c.profiler.Record(sampler.Measurement{
			SampleID:      c.sampleID,
			Frame:         entry.Frame,
			Func:          c.Func,
			CommandBuffer: c.real,
		}, h)
		if i.s.cfg.ResolveMode == config.ResolveImmediate {
			if _, err := c.profiler.Gather(context.Background(), i.s.resolver, handle.Nil, []handle.Handle{c.real}, i.s.sink); err != nil {
				log.WithError(err).Error("failed to resolve sample")
			}
		}
	}
	return h
}

// Invoke brackets body with PreCall and PostCall on the current OS thread.
// body performs the real call and returns its stringified arguments and
// return value. If body panics the call is still closed and logged as void
// before the panic continues.
func (i *Interceptor) Invoke(fn trace.FuncID, target handle.Handle, body func() (args string, ret int64)) trace.RecordHandle {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c := &Call{Func: fn, Target: target, Thread: i.s.threadID()}
	i.PreCall(c)
	returned := false
	defer func() {
		if !returned {
			i.log.WithFields(logrus.Fields{
				"func":   c.Func,
				"thread": c.Thread,
			}).Warn("intercepted call panicked")
			i.PostCall(c, "", trace.ReturnVoid)
		}
	}()
	args, ret := body()
	returned = true
	return i.PostCall(c, args, ret)
}
