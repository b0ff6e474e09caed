//go:build windows

package trace

import (
	"sync/atomic"

	"github.com/perfstudio/go-apitrace/pkg/etw"
	"github.com/perfstudio/go-apitrace/pkg/timing"
)

// EventSink writes calls and results as ETW events so they can be captured
// alongside a system trace.
type EventSink struct {
	provider *etw.Provider
	next     atomic.Uint64
}

var _ Sink = (*EventSink)(nil)

// NewEventSink writes through provider. The caller keeps ownership of it.
func NewEventSink(provider *etw.Provider) *EventSink {
	return &EventSink{provider: provider}
}

func (s *EventSink) LogCall(e Entry) RecordHandle {
	h := RecordHandle(s.next.Add(1))
	_ = s.provider.WriteEvent("APICall", nil, nil, callFields(h, e))
	return h
}

func (s *EventSink) AttachTimingResult(h RecordHandle, r timing.Result) {
	_ = s.provider.WriteEvent("TimingResult", nil, nil, resultFields(h, r))
}
