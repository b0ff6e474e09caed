package sampler

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/pkg/handle"
	"github.com/perfstudio/go-apitrace/pkg/timing"
	"github.com/perfstudio/go-apitrace/pkg/trace"
)

// DefaultMeasurementsPerGroup is the per-command-buffer sample limit per frame.
const DefaultMeasurementsPerGroup = 256

// Measurement identifies what a sample measured.
type Measurement struct {
	SampleID      uint64
	Frame         uint64
	Func          trace.FuncID
	CommandBuffer handle.Handle
}

// ProfilerConfig configures a Profiler.
type ProfilerConfig struct {
	// MeasurementsPerGroup bounds the samples taken on one command buffer in
	// one frame. Zero means DefaultMeasurementsPerGroup.
	MeasurementsPerGroup uint32
}

type pendingSample struct {
	m      Measurement
	record trace.RecordHandle
}

// Profiler holds the samples recorded on one device's command buffers until
// the buffers are submitted and their results can be read.
type Profiler struct {
	device handle.Handle
	limit  uint32
	log    logrus.FieldLogger

	mu      sync.Mutex
	pending map[handle.Handle][]pendingSample
}

func newProfiler(device handle.Handle, cfg ProfilerConfig, log logrus.FieldLogger) *Profiler {
	limit := cfg.MeasurementsPerGroup
	if limit == 0 {
		limit = DefaultMeasurementsPerGroup
	}
	return &Profiler{
		device:  device,
		limit:   limit,
		log:     log.WithField("device", device),
		pending: make(map[handle.Handle][]pendingSample),
	}
}

// Device returns the real device the profiler belongs to.
func (p *Profiler) Device() handle.Handle { return p.device }

// Limit returns the per-buffer sample limit.
func (p *Profiler) Limit() uint32 { return p.limit }

// Record queues m until its command buffer is submitted. record names the
// logged call the result belongs to.
func (p *Profiler) Record(m Measurement, record trace.RecordHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[m.CommandBuffer] = append(p.pending[m.CommandBuffer], pendingSample{m: m, record: record})
}

// Pending returns the measurements queued on buf.
func (p *Profiler) Pending(buf handle.Handle) []Measurement {
	p.mu.Lock()
	defer p.mu.Unlock()
	ms := make([]Measurement, 0, len(p.pending[buf]))
	for _, s := range p.pending[buf] {
		ms = append(ms, s.m)
	}
	return ms
}

// Discard drops everything queued on buf, for a command buffer that is reset
// or released without being submitted.
func (p *Profiler) Discard(buf handle.Handle) {
	p.mu.Lock()
	delete(p.pending, buf)
	p.mu.Unlock()
}

// Gather waits for the work submitted on queue to complete, then attaches the
// result of every sample queued on lists to its call record. Samples whose
// result cannot be read are dropped and logged. If the wait fails the samples
// are queued again ahead of any recorded since, so a later Gather can still
// resolve them. It returns the number of results attached.
func (p *Profiler) Gather(ctx context.Context, resolver timing.Resolver, queue handle.Handle, lists []handle.Handle, sink trace.Sink) (int, error) {
	taken := make(map[handle.Handle][]pendingSample, len(lists))
	var samples []pendingSample
	p.mu.Lock()
	for _, l := range lists {
		if ps := p.pending[l]; len(ps) > 0 {
			taken[l] = ps
			samples = append(samples, ps...)
			delete(p.pending, l)
		}
	}
	p.mu.Unlock()
	if len(samples) == 0 {
		return 0, nil
	}

	v := resolver.Signal(queue)
	if err := resolver.Wait(ctx, v); err != nil {
		p.requeue(taken)
		return 0, errors.Wrapf(err, "wait for %d samples on queue %s, samples kept pending", len(samples), queue)
	}

	n := 0
	for _, s := range samples {
		r, status := resolver.Result(s.m.SampleID)
		if !status.OK() {
			p.log.WithFields(logrus.Fields{
				"sampleID": s.m.SampleID,
				"func":     s.m.Func,
				"status":   int32(status),
			}).Error("failed to read sample result")
			continue
		}
		sink.AttachTimingResult(s.record, r)
		n++
	}
	return n, nil
}

func (p *Profiler) requeue(taken map[handle.Handle][]pendingSample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for l, ps := range taken {
		p.pending[l] = append(ps, p.pending[l]...)
	}
}

// ProfilerMap associates real devices with their profilers.
type ProfilerMap struct {
	log logrus.FieldLogger

	mu sync.RWMutex
	m  map[handle.Handle]*Profiler
}

// NewProfilerMap returns an empty map.
func NewProfilerMap(log logrus.FieldLogger) *ProfilerMap {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProfilerMap{log: log, m: make(map[handle.Handle]*Profiler)}
}

// Create returns the profiler for device, creating it if needed. The bool is
// true if a new profiler was created.
func (pm *ProfilerMap) Create(device handle.Handle, cfg ProfilerConfig) (*Profiler, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if p, ok := pm.m[device]; ok {
		return p, false
	}
	p := newProfiler(device, cfg, pm.log)
	pm.m[device] = p
	return p, true
}

func (pm *ProfilerMap) Get(device handle.Handle) (*Profiler, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.m[device]
	return p, ok
}

// Remove drops the profiler of device and returns it.
func (pm *ProfilerMap) Remove(device handle.Handle) (*Profiler, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	p, ok := pm.m[device]
	delete(pm.m, device)
	return p, ok
}

func (pm *ProfilerMap) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.m)
}
