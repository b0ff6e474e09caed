package sampler

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfstudio/go-apitrace/pkg/handle"
	"github.com/perfstudio/go-apitrace/pkg/timing"
	"github.com/perfstudio/go-apitrace/pkg/trace"
)

func mustProfiler(t *testing.T, limit uint32) (*Profiler, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	p, created := NewProfilerMap(log).Create(handle.Handle(0x10), ProfilerConfig{MeasurementsPerGroup: limit})
	require.True(t, created)
	return p, hook
}

func TestProfilerMap(t *testing.T) {
	pm := NewProfilerMap(nil)
	dev := handle.Handle(0x10)

	p, created := pm.Create(dev, ProfilerConfig{})
	require.True(t, created)
	assert.Equal(t, uint32(DefaultMeasurementsPerGroup), p.Limit())
	assert.Equal(t, dev, p.Device())

	again, created := pm.Create(dev, ProfilerConfig{MeasurementsPerGroup: 1})
	assert.False(t, created)
	assert.Same(t, p, again)

	got, ok := pm.Get(dev)
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, 1, pm.Len())

	removed, ok := pm.Remove(dev)
	require.True(t, ok)
	assert.Same(t, p, removed)
	_, ok = pm.Get(dev)
	assert.False(t, ok)
	_, ok = pm.Remove(dev)
	assert.False(t, ok)
}

func TestGatherAttachesResultsOfSubmittedLists(t *testing.T) {
	p, _ := mustProfiler(t, 0)
	clock := timing.NewClock()
	log := trace.NewLog()
	listA, listB := handle.Handle(0x100), handle.Handle(0x200)

	require.Equal(t, timing.StatusOK, clock.SelectContext(listA))
	record := func(id uint64, list handle.Handle) trace.RecordHandle {
		require.Equal(t, timing.StatusOK, clock.BeginSample(id))
		require.Equal(t, timing.StatusOK, clock.EndSample())
		h := log.LogCall(trace.Entry{Func: trace.FuncDispatch, SampleID: id})
		p.Record(Measurement{SampleID: id, Func: trace.FuncDispatch, CommandBuffer: list}, h)
		return h
	}
	ha := record(1, listA)
	hb := record(2, listB)
	assert.Len(t, p.Pending(listA), 1)

	n, err := p.Gather(context.Background(), clock, handle.Handle(0x999), []handle.Handle{listA}, log)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, p.Pending(listA))
	assert.Len(t, p.Pending(listB), 1)

	ra, _ := log.Record(ha)
	rb, _ := log.Record(hb)
	assert.True(t, ra.HasResult)
	assert.Equal(t, uint64(1), ra.Result.SampleID)
	assert.False(t, rb.HasResult)

	n, err = p.Gather(context.Background(), clock, handle.Handle(0x999), []handle.Handle{listA}, log)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "nothing left on listA")
}

// stubResolver hands out fixed statuses.
type stubResolver struct {
	fence   *timing.Fence
	status  map[uint64]timing.Status
	signals int
}

func (r *stubResolver) Signal(handle.Handle) uint64 {
	r.signals++
	return r.fence.Signal()
}

func (r *stubResolver) Wait(ctx context.Context, v uint64) error { return r.fence.Wait(ctx, v) }

func (r *stubResolver) Result(id uint64) (timing.Result, timing.Status) {
	if s := r.status[id]; !s.OK() {
		return timing.Result{}, s
	}
	return timing.Result{SampleID: id, Duration: time.Microsecond}, timing.StatusOK
}

func TestGatherDropsFailedResults(t *testing.T) {
	p, hook := mustProfiler(t, 0)
	log := trace.NewLog()
	list := handle.Handle(0x100)
	r := &stubResolver{fence: timing.NewFence(), status: map[uint64]timing.Status{2: timing.StatusFailed}}
	r.fence.Complete(100)

	h1 := log.LogCall(trace.Entry{SampleID: 1})
	h2 := log.LogCall(trace.Entry{SampleID: 2})
	p.Record(Measurement{SampleID: 1, CommandBuffer: list}, h1)
	p.Record(Measurement{SampleID: 2, CommandBuffer: list}, h2)

	n, err := p.Gather(context.Background(), r, handle.Nil, []handle.Handle{list}, log)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.signals)

	rec, _ := log.Record(h2)
	assert.False(t, rec.HasResult)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, int32(timing.StatusFailed), hook.LastEntry().Data["status"])
}

func TestGatherHonorsContext(t *testing.T) {
	p, _ := mustProfiler(t, 0)
	r := &stubResolver{fence: timing.NewFence()}
	p.Record(Measurement{SampleID: 1, CommandBuffer: 0x100}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Gather(ctx, r, handle.Nil, []handle.Handle{0x100}, trace.NewLog())
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestGatherKeepsSamplesWhenWaitFails(t *testing.T) {
	p, _ := mustProfiler(t, 0)
	log := trace.NewLog()
	list := handle.Handle(0x100)
	r := &stubResolver{fence: timing.NewFence()}
	h1 := log.LogCall(trace.Entry{SampleID: 1})
	p.Record(Measurement{SampleID: 1, CommandBuffer: list}, h1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Gather(ctx, r, handle.Nil, []handle.Handle{list}, log)
	require.Error(t, err)

	h2 := log.LogCall(trace.Entry{SampleID: 2})
	p.Record(Measurement{SampleID: 2, CommandBuffer: list}, h2)
	assert.Equal(t, []Measurement{
		{SampleID: 1, CommandBuffer: list},
		{SampleID: 2, CommandBuffer: list},
	}, p.Pending(list))

	r.fence.Complete(100)
	n, err := p.Gather(context.Background(), r, handle.Nil, []handle.Handle{list}, log)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	rec, _ := log.Record(h1)
	assert.True(t, rec.HasResult)
}

func TestDiscard(t *testing.T) {
	p, _ := mustProfiler(t, 4)
	assert.Equal(t, uint32(4), p.Limit())
	p.Record(Measurement{SampleID: 1, CommandBuffer: 0x100}, 1)
	p.Discard(0x100)
	assert.Empty(t, p.Pending(0x100))
}
