// Package sampler correlates GPU timing samples with the calls that produced
// them.
//
// Sample ids are allocated from one session-wide counter and are never reused.
// Each thread has at most one live sample, opened by the pre-call hook and
// consumed by the matching post-call hook on the same thread.
package sampler

import (
	"sync"

	"github.com/perfstudio/go-apitrace/pkg/handle"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=CallState -trimprefix=State

// CallState tracks one intercepted call through the pipeline.
type CallState uint8

const (
	StateIdle CallState = iota
	StateSampleReserved
	StateBracketOpen
	StateBracketClosed
	StateLogged
)

// CanAdvance reports whether a call may move from s to next. A call whose
// bracket never opened goes straight from SampleReserved to Logged, and an
// unprofiled call goes from Idle to Logged.
func (s CallState) CanAdvance(next CallState) bool {
	switch s {
	case StateIdle:
		return next == StateSampleReserved || next == StateLogged
	case StateSampleReserved:
		return next == StateBracketOpen || next == StateLogged
	case StateBracketOpen:
		return next == StateBracketClosed
	case StateBracketClosed:
		return next == StateLogged
	}
	return false
}

// NoSample is the sample id of calls without a timing sample.
const NoSample uint64 = 0

// SampleInfo is the live sample of one thread.
type SampleInfo struct {
	ID             uint64
	BeginSucceeded bool
	// Target is the real command buffer the sample was opened against.
	Target handle.Handle
}

// Pipeline allocates sample ids and tracks per-thread and per-command-buffer
// state for the current frame.
type Pipeline struct {
	idMu sync.Mutex
	last uint64

	mu      sync.Mutex
	threads map[uint32]SampleInfo
	counts  map[handle.Handle]uint32
}

// New returns an empty pipeline. The first sample id it hands out is 1.
func New() *Pipeline {
	return &Pipeline{
		threads: make(map[uint32]SampleInfo),
		counts:  make(map[handle.Handle]uint32),
	}
}

// NextSampleID returns a new id, strictly greater than every id returned
// before.
func (p *Pipeline) NextSampleID() uint64 {
	p.idMu.Lock()
	defer p.idMu.Unlock()
	p.last++
	return p.last
}

// BeginSampleForThread allocates an id and makes it the live sample of tid,
// replacing any stale entry. The sample is not marked as begun.
func (p *Pipeline) BeginSampleForThread(tid uint32, target handle.Handle) uint64 {
	id := p.NextSampleID()
	p.mu.Lock()
	p.threads[tid] = SampleInfo{ID: id, Target: target}
	p.mu.Unlock()
	return id
}

// MarkBegun records whether the backend opened the live sample of tid.
func (p *Pipeline) MarkBegun(tid uint32, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if info, found := p.threads[tid]; found {
		info.BeginSucceeded = ok
		p.threads[tid] = info
	}
}

// ResolveSampleForThread returns the live sample of tid.
func (p *Pipeline) ResolveSampleForThread(tid uint32) (SampleInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.threads[tid]
	return info, ok
}

// EndSampleForThread drops the live sample of tid.
func (p *Pipeline) EndSampleForThread(tid uint32) {
	p.mu.Lock()
	delete(p.threads, tid)
	p.mu.Unlock()
}

// InBracket reports whether tid has a live sample.
func (p *Pipeline) InBracket(tid uint32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.threads[tid]
	return ok
}

// IncrementCommandBufferSampleCount counts one more sample against buf in
// this frame and returns the new count.
func (p *Pipeline) IncrementCommandBufferSampleCount(buf handle.Handle) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[buf]++
	return p.counts[buf]
}

// CommandBufferSampleCount returns the samples counted against buf this frame.
func (p *Pipeline) CommandBufferSampleCount(buf handle.Handle) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[buf]
}

// ResetForNewFrame clears per-buffer counts and the per-thread samples of
// calls that are not inside an open bracket. A bracket still open on some
// thread is left to its post-call. Sample ids keep increasing across frames.
func (p *Pipeline) ResetForNewFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for tid, info := range p.threads {
		if !info.BeginSucceeded {
			delete(p.threads, tid)
		}
	}
	p.counts = make(map[handle.Handle]uint32)
}

// Reset drops all per-thread and per-buffer state, open brackets included.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.threads = make(map[uint32]SampleInfo)
	p.counts = make(map[handle.Handle]uint32)
}

// LiveSamples returns how many threads have a live sample.
func (p *Pipeline) LiveSamples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.threads)
}
