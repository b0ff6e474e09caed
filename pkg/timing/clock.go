package timing

import (
	"context"
	"sync"
	"time"

	"github.com/perfstudio/go-apitrace/pkg/handle"
)

var (
	_ Backend  = (*Clock)(nil)
	_ Resolver = (*Clock)(nil)
)

// Clock is a software backend that measures wall time between BeginSample and
// EndSample. Ended samples stay in flight until Signal is called, which
// completes them at once, so callers exercise the same submit-then-wait path a
// GPU backend needs.
type Clock struct {
	fence *Fence

	mu       sync.Mutex
	now      func() time.Time
	context  handle.Handle
	open     bool
	openID   uint64
	openedAt time.Time
	inflight []Result
	results  map[uint64]Result
}

// NewClock returns a clock backend with no context selected.
func NewClock() *Clock {
	return &Clock{
		fence:   NewFence(),
		now:     time.Now,
		results: make(map[uint64]Result),
	}
}

func (c *Clock) SelectContext(ctx handle.Handle) Status {
	if ctx.IsNil() {
		return StatusFailed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = ctx
	return StatusOK
}

func (c *Clock) BeginSample(id uint64) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.context.IsNil():
		return StatusContextNotSelected
	case c.open:
		return StatusSampleAlreadyOpen
	}
	c.open = true
	c.openID = id
	c.openedAt = c.now()
	return StatusOK
}

func (c *Clock) EndSample() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return StatusSampleNotOpen
	}
	d := c.now().Sub(c.openedAt)
	if d <= 0 {
		// Keep resolved results distinguishable from empty ones on coarse clocks.
		d = time.Nanosecond
	}
	c.inflight = append(c.inflight, Result{SampleID: c.openID, Duration: d})
	c.open = false
	return StatusOK
}

// Signal publishes every ended sample and completes the returned value
// immediately.
func (c *Clock) Signal(handle.Handle) uint64 {
	c.mu.Lock()
	for _, r := range c.inflight {
		c.results[r.SampleID] = r
	}
	c.inflight = c.inflight[:0]
	c.mu.Unlock()

	v := c.fence.Signal()
	c.fence.Complete(v)
	return v
}

func (c *Clock) Wait(ctx context.Context, value uint64) error {
	return c.fence.Wait(ctx, value)
}

// Result returns and forgets the result for id.
func (c *Clock) Result(id uint64) (Result, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[id]
	if !ok {
		return Result{}, StatusNotReady
	}
	delete(c.results, id)
	return r, StatusOK
}
