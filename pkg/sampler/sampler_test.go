package sampler

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfstudio/go-apitrace/pkg/handle"
	"github.com/perfstudio/go-apitrace/pkg/timing"
)

func TestNextSampleIDUniqueAcrossGoroutines(t *testing.T) {
	p := New()
	const goroutines, perGoroutine = 16, 500

	ids := make([][]uint64, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				ids[g] = append(ids[g], p.NextSampleID())
			}
		}(g)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, goroutines*perGoroutine)
	for _, s := range ids {
		// Calls on one goroutine happen one after another, so they increase.
		require.True(t, sort.SliceIsSorted(s, func(i, j int) bool { return s[i] < s[j] }))
		for _, id := range s {
			require.NotEqual(t, NoSample, id)
			seen[id] = struct{}{}
		}
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestThreadSampleLifecycle(t *testing.T) {
	p := New()
	buf := handle.Handle(0x100)

	_, ok := p.ResolveSampleForThread(1)
	assert.False(t, ok)

	id := p.BeginSampleForThread(1, buf)
	assert.Equal(t, uint64(1), id)
	assert.True(t, p.InBracket(1))
	assert.False(t, p.InBracket(2))

	info, ok := p.ResolveSampleForThread(1)
	require.True(t, ok)
	assert.Equal(t, SampleInfo{ID: id, Target: buf}, info)

	p.MarkBegun(1, true)
	info, _ = p.ResolveSampleForThread(1)
	assert.True(t, info.BeginSucceeded)

	// A stale entry is overwritten and starts out not begun.
	id2 := p.BeginSampleForThread(1, buf)
	info, _ = p.ResolveSampleForThread(1)
	assert.Equal(t, SampleInfo{ID: id2, Target: buf}, info)

	p.EndSampleForThread(1)
	assert.False(t, p.InBracket(1))
	p.MarkBegun(1, true)
	assert.False(t, p.InBracket(1), "MarkBegun never creates an entry")
}

func TestResetForNewFramePreservesIDs(t *testing.T) {
	p := New()
	buf := handle.Handle(0x100)
	var maxBefore uint64
	for tid := uint32(1); tid <= 4; tid++ {
		maxBefore = p.BeginSampleForThread(tid, buf)
		p.IncrementCommandBufferSampleCount(buf)
	}
	assert.Equal(t, uint32(4), p.CommandBufferSampleCount(buf))
	assert.Equal(t, 4, p.LiveSamples())

	p.ResetForNewFrame()
	assert.Equal(t, 0, p.LiveSamples())
	assert.Equal(t, uint32(0), p.CommandBufferSampleCount(buf))
	assert.Greater(t, p.NextSampleID(), maxBefore)
}

func TestResetForNewFrameKeepsOpenBrackets(t *testing.T) {
	p := New()
	buf := handle.Handle(0x100)
	open := p.BeginSampleForThread(1, buf)
	p.MarkBegun(1, true)
	p.BeginSampleForThread(2, buf)
	p.MarkBegun(2, false)
	p.IncrementCommandBufferSampleCount(buf)

	p.ResetForNewFrame()
	assert.Equal(t, uint32(0), p.CommandBufferSampleCount(buf))
	assert.False(t, p.InBracket(2))
	info, ok := p.ResolveSampleForThread(1)
	require.True(t, ok, "an open bracket outlives the frame boundary")
	assert.Equal(t, SampleInfo{ID: open, BeginSucceeded: true, Target: buf}, info)

	p.Reset()
	assert.Equal(t, 0, p.LiveSamples())
}

// bracketRecorder is a backend recording every begin and end it sees.
type bracketRecorder struct {
	failBegin bool
	events    []string
	begun     []uint64
}

func (b *bracketRecorder) SelectContext(handle.Handle) timing.Status { return timing.StatusOK }

func (b *bracketRecorder) BeginSample(id uint64) timing.Status {
	if b.failBegin {
		return timing.StatusFailed
	}
	b.events = append(b.events, "begin")
	b.begun = append(b.begun, id)
	return timing.StatusOK
}

func (b *bracketRecorder) EndSample() timing.Status {
	b.events = append(b.events, "end")
	return timing.StatusOK
}

func TestBracketBalance(t *testing.T) {
	p := New()
	b := &bracketRecorder{}
	buf := handle.Handle(0x100)

	bracket := func(tid uint32) {
		id := p.BeginSampleForThread(tid, buf)
		p.MarkBegun(tid, b.BeginSample(id).OK())
		info, ok := p.ResolveSampleForThread(tid)
		require.True(t, ok)
		if info.BeginSucceeded {
			b.EndSample()
		}
		p.EndSampleForThread(tid)
	}

	for i := 0; i < 3; i++ {
		bracket(7)
	}
	b.failBegin = true
	bracket(7)

	assert.Equal(t, []string{"begin", "end", "begin", "end", "begin", "end"}, b.events)
	assert.Equal(t, []uint64{1, 2, 3}, b.begun)
}

func TestCallStateTransitions(t *testing.T) {
	valid := [][2]CallState{
		{StateIdle, StateSampleReserved},
		{StateIdle, StateLogged},
		{StateSampleReserved, StateBracketOpen},
		{StateSampleReserved, StateLogged},
		{StateBracketOpen, StateBracketClosed},
		{StateBracketClosed, StateLogged},
	}
	isValid := func(from, to CallState) bool {
		for _, v := range valid {
			if v[0] == from && v[1] == to {
				return true
			}
		}
		return false
	}
	for from := StateIdle; from <= StateLogged; from++ {
		for to := StateIdle; to <= StateLogged; to++ {
			assert.Equal(t, isValid(from, to), from.CanAdvance(to), "%s -> %s", from, to)
		}
	}
	assert.Equal(t, "BracketOpen", StateBracketOpen.String())
}
