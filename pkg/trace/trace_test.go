package trace

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfstudio/go-apitrace/pkg/timing"
)

func TestFuncNames(t *testing.T) {
	for id := FuncUnknown + 1; id < numFuncs; id++ {
		require.NotEmpty(t, funcNames[id], "func %d has no name", id)
		got, ok := FuncFromName(id.String())
		require.True(t, ok, "%s", id)
		assert.Equal(t, id, got)
	}
	assert.Equal(t, "Unknown", FuncID(9999).String())
	_, ok := FuncFromName("Unknown")
	assert.False(t, ok)
}

func TestFuncTable(t *testing.T) {
	ft := NewFuncTable()
	assert.True(t, ft.ShouldProfile(FuncDrawInstanced))
	assert.False(t, ft.ShouldProfile(FuncClose))
	assert.Len(t, ft.Profiled(), len(DefaultProfiled))

	require.NoError(t, ft.SetProfiled([]string{"ID3D12GraphicsCommandList_Close"}))
	assert.True(t, ft.ShouldProfile(FuncClose))
	assert.False(t, ft.ShouldProfile(FuncDrawInstanced))

	err := ft.SetProfiled([]string{"ID3D12GraphicsCommandList_Dispatch", "Bogus"})
	assert.True(t, errors.Is(err, ErrUnknownFunc), "got %v", err)
	assert.Equal(t, []FuncID{FuncClose}, ft.Profiled(), "failed update leaves the table alone")
}

func TestLog(t *testing.T) {
	l := NewLog()
	h1 := l.LogCall(Entry{Func: FuncDispatch, SampleID: 1})
	h2 := l.LogCall(Entry{Func: FuncClose, Return: ReturnVoid})
	require.NotEqual(t, h1, h2)

	l.AttachTimingResult(h1, timing.Result{SampleID: 1, Duration: time.Millisecond})
	l.AttachTimingResult(RecordHandle(99), timing.Result{SampleID: 5})
	l.AttachTimingResult(0, timing.Result{SampleID: 5})

	r, ok := l.Record(h1)
	require.True(t, ok)
	assert.True(t, r.HasResult)
	assert.Equal(t, time.Millisecond, r.Result.Duration)

	r, ok = l.Record(h2)
	require.True(t, ok)
	assert.False(t, r.HasResult)
	assert.Equal(t, ReturnVoid, r.Return)

	assert.Equal(t, 2, l.Len())
	l.Reset()
	assert.Equal(t, 0, l.Len())
	_, ok = l.Record(h1)
	assert.False(t, ok)
}

func TestLogConcurrentHandlesAreDistinct(t *testing.T) {
	l := NewLog()
	const n = 64
	hs := make(chan RecordHandle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hs <- l.LogCall(Entry{Func: FuncDispatch})
		}()
	}
	wg.Wait()
	close(hs)
	seen := make(map[RecordHandle]bool)
	for h := range hs {
		require.False(t, seen[h])
		seen[h] = true
	}
	assert.Len(t, seen, n)
}

func TestTee(t *testing.T) {
	a, b := NewLog(), NewLog()
	s := Tee(a, b)

	b.LogCall(Entry{}) // offset b's handles from a's
	h := s.LogCall(Entry{Func: FuncDispatch, SampleID: 3})
	s.LogCall(Entry{Func: FuncClose})
	s.AttachTimingResult(h, timing.Result{SampleID: 3, Duration: 2})

	ra := a.Records()
	rb := b.Records()
	require.Len(t, ra, 2)
	require.Len(t, rb, 3)
	assert.True(t, ra[0].HasResult)
	assert.True(t, rb[1].HasResult)
	assert.False(t, rb[0].HasResult)

	// A result is attached at most once.
	s.AttachTimingResult(h, timing.Result{SampleID: 3, Duration: 7})
	assert.Equal(t, time.Duration(2), b.Records()[1].Result.Duration)
}

func TestEventFields(t *testing.T) {
	assert.Len(t, callFields(1, Entry{Func: FuncDispatch}), 8)
	assert.Len(t, resultFields(1, timing.Result{SampleID: 1}), 3)
}
