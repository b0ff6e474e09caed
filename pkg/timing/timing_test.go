package timing

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusErr(t *testing.T) {
	if err := StatusOK.Err("begin"); err != nil {
		t.Fatalf("StatusOK.Err returned %v", err)
	}
	err := StatusSampleNotOpen.Err("end")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.Status != StatusSampleNotOpen || se.Op != "end" {
		t.Fatalf("unexpected error contents: %+v", se)
	}
	if got, want := err.Error(), "timing end failed with status code 4"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestFenceWaitReleasesOnComplete(t *testing.T) {
	f := NewFence()
	v := f.Signal()

	done := make(chan error, 1)
	go func() { done <- f.Wait(context.Background(), v) }()

	select {
	case err := <-done:
		t.Fatalf("Wait returned before completion: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	f.Complete(v)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after Complete")
	}
}

func TestFenceCompleteIsMonotonic(t *testing.T) {
	f := NewFence()
	f.Complete(5)
	f.Complete(3)
	assert.Equal(t, uint64(5), f.Completed())
	require.NoError(t, f.Wait(nil, 4)) //nolint:staticcheck // nil context waits forever
}

func TestFenceWaitHonorsContext(t *testing.T) {
	f := NewFence()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := f.Wait(ctx, f.Signal())
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestClockBracketRules(t *testing.T) {
	c := NewClock()
	assert.Equal(t, StatusContextNotSelected, c.BeginSample(1))
	assert.Equal(t, StatusFailed, c.SelectContext(0))
	require.Equal(t, StatusOK, c.SelectContext(0x1000))

	require.Equal(t, StatusOK, c.BeginSample(1))
	assert.Equal(t, StatusSampleAlreadyOpen, c.BeginSample(2), "only one open measurement")
	require.Equal(t, StatusOK, c.EndSample())
	assert.Equal(t, StatusSampleNotOpen, c.EndSample())
}

func TestClockResultsNeedSubmission(t *testing.T) {
	c := NewClock()
	base := time.Unix(100, 0)
	ticks := []time.Time{base, base.Add(3 * time.Millisecond)}
	c.now = func() time.Time {
		now := ticks[0]
		ticks = ticks[1:]
		return now
	}

	require.Equal(t, StatusOK, c.SelectContext(0x1000))
	require.Equal(t, StatusOK, c.BeginSample(7))
	require.Equal(t, StatusOK, c.EndSample())

	_, s := c.Result(7)
	assert.Equal(t, StatusNotReady, s, "results are not visible before submission")

	v := c.Signal(0x2000)
	require.NoError(t, c.Wait(context.Background(), v))

	r, s := c.Result(7)
	require.Equal(t, StatusOK, s)
	assert.Equal(t, Result{SampleID: 7, Duration: 3 * time.Millisecond}, r)
	assert.False(t, r.Empty())

	_, s = c.Result(7)
	assert.Equal(t, StatusNotReady, s, "results are handed out once")
}

func TestLogrusCallbackLevels(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.TraceLevel)
	fn := LogrusCallback(log)

	tt := []struct {
		typ  LogType
		want logrus.Level
	}{
		{LogError, logrus.ErrorLevel},
		{LogMessage, logrus.DebugLevel},
		{LogTrace, logrus.TraceLevel},
		{LogType(99), logrus.InfoLevel},
	}
	for _, tc := range tt {
		hook.Reset()
		fn(tc.typ, "message")
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, tc.want, hook.LastEntry().Level, "type %d", tc.typ)
		assert.Equal(t, "message", hook.LastEntry().Message)
	}
}

func TestDurationFromNanosSaturates(t *testing.T) {
	assert.Equal(t, time.Duration(42), durationFromNanos(42))
	assert.Equal(t, time.Duration(math.MaxInt64), durationFromNanos(math.MaxUint64))
}

func TestNativeSampleIDRefusesWideIDs(t *testing.T) {
	id, ok := nativeSampleID(MaxNativeSampleID)
	assert.True(t, ok)
	assert.Equal(t, uintptr(math.MaxUint32), id)

	_, ok = nativeSampleID(MaxNativeSampleID + 1)
	assert.False(t, ok, "id would alias sample 0")
}
