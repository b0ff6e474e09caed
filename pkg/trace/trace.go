// Package trace defines where intercepted calls are recorded and provides an
// in-memory call log.
package trace

import (
	"math"
	"sync"

	"github.com/perfstudio/go-apitrace/pkg/handle"
	"github.com/perfstudio/go-apitrace/pkg/timing"
)

// ReturnVoid is logged as the return value of functions returning nothing.
const ReturnVoid int64 = math.MinInt64

// Entry is one intercepted call. SampleID is 0 when the call has no timing
// sample.
type Entry struct {
	Func     FuncID
	Thread   uint32
	Target   handle.Handle
	Args     string
	Return   int64
	SampleID uint64
	Frame    uint64
}

// RecordHandle names a logged call so a result can be attached later. The
// zero value names nothing.
type RecordHandle uint64

// Sink receives intercepted calls and their timing results.
type Sink interface {
	LogCall(e Entry) RecordHandle
	AttachTimingResult(h RecordHandle, r timing.Result)
}

// Record is a logged call and its result, if any.
type Record struct {
	Entry
	Result    timing.Result
	HasResult bool
}

// Log is a Sink keeping every record in memory.
type Log struct {
	mu      sync.Mutex
	records []Record
}

var _ Sink = (*Log)(nil)

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

func (l *Log) LogCall(e Entry) RecordHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, Record{Entry: e})
	return RecordHandle(len(l.records))
}

// AttachTimingResult sets the result of h. Unknown handles are ignored.
func (l *Log) AttachTimingResult(h RecordHandle, r timing.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == 0 || int(h) > len(l.records) {
		return
	}
	rec := &l.records[h-1]
	rec.Result = r
	rec.HasResult = true
}

// Record returns the record named by h.
func (l *Log) Record(h RecordHandle) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == 0 || int(h) > len(l.records) {
		return Record{}, false
	}
	return l.records[h-1], true
}

// Records returns a copy of every record in log order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.records...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Reset drops every record. Handles issued before Reset become invalid.
func (l *Log) Reset() {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()
}

// Tee returns a Sink writing to every sink in order.
func Tee(sinks ...Sink) Sink {
	return &tee{sinks: sinks, pending: make(map[RecordHandle][]RecordHandle)}
}

type tee struct {
	sinks []Sink

	mu      sync.Mutex
	next    RecordHandle
	pending map[RecordHandle][]RecordHandle
}

func (t *tee) LogCall(e Entry) RecordHandle {
	hs := make([]RecordHandle, len(t.sinks))
	for i, s := range t.sinks {
		hs[i] = s.LogCall(e)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	// Only sampled calls can receive a result.
	if e.SampleID != 0 {
		t.pending[t.next] = hs
	}
	return t.next
}

func (t *tee) AttachTimingResult(h RecordHandle, r timing.Result) {
	t.mu.Lock()
	hs, ok := t.pending[h]
	delete(t.pending, h)
	t.mu.Unlock()
	if !ok {
		return
	}
	for i, s := range t.sinks {
		s.AttachTimingResult(hs[i], r)
	}
}
