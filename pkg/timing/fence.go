package timing

import (
	"context"
	"sync"
)

// Fence is a monotonically increasing completion counter, the CPU side of a GPU
// fence. Signal hands out target values; Complete advances the counter; Wait
// blocks until a target is reached.
type Fence struct {
	mu        sync.Mutex
	signaled  uint64
	completed uint64
	// changed is closed and replaced every time completed advances.
	changed chan struct{}
}

// NewFence returns a fence with nothing signaled.
func NewFence() *Fence {
	return &Fence{changed: make(chan struct{})}
}

// Signal returns the next target value.
func (f *Fence) Signal() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signaled++
	return f.signaled
}

// Complete advances the completed value to v. Lower values are ignored.
func (f *Fence) Complete(v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v <= f.completed {
		return
	}
	f.completed = v
	close(f.changed)
	f.changed = make(chan struct{})
}

// Completed returns the last completed value.
func (f *Fence) Completed() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Wait blocks until the completed value reaches v. There is no timeout other
// than ctx; a nil ctx waits forever.
func (f *Fence) Wait(ctx context.Context, v uint64) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		f.mu.Lock()
		if f.completed >= v {
			f.mu.Unlock()
			return nil
		}
		ch := f.changed
		f.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
