//go:build windows

package timing

import (
	"context"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/perfstudio/go-apitrace/pkg/handle"
)

var (
	_ Backend  = (*Library)(nil)
	_ Loader   = (*Library)(nil)
	_ Resolver = (*Library)(nil)
)

// Exports the timing library must provide. Every export returns a status code
// matching Status.
//
//	GPA_RegisterLoggingCallback(type uint32, callback uintptr)
//	GPA_SelectContext(context uintptr)
//	GPA_BeginSample(sampleID uint32)
//	GPA_EndSample()
//	GPA_GetSampleUInt64(sessionID uint32, sampleID uint32, counter uint32, result *uint64)
//
// GPA_GetSampleUInt64 blocks until the sample's data is available and reports
// the GPU time in nanoseconds for counter 0.
const (
	procRegisterLoggingCallback = "GPA_RegisterLoggingCallback"
	procSelectContext           = "GPA_SelectContext"
	procBeginSample             = "GPA_BeginSample"
	procEndSample               = "GPA_EndSample"
	procGetSampleUInt64         = "GPA_GetSampleUInt64"
)

// loggingErrorAndMessage asks the library for errors and informational messages.
const loggingErrorAndMessage = 3

// Library is a timing backend implemented by a native DLL.
type Library struct {
	fence *Fence

	mu       sync.Mutex
	dll      *windows.DLL
	procs    map[string]*windows.Proc
	callback uintptr
}

// NewLibrary returns an unloaded library backend.
func NewLibrary() *Library {
	return &Library{fence: NewFence()}
}

// Load loads the DLL at path and resolves every required export. A partially
// resolved library is released again.
func (l *Library) Load(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dll != nil {
		return errors.Errorf("timing library already loaded from %s", l.dll.Name)
	}

	dll, err := windows.LoadDLL(path)
	if err != nil {
		return errors.Wrapf(err, "load timing library %s", path)
	}
	procs := make(map[string]*windows.Proc)
	for _, name := range []string{
		procRegisterLoggingCallback,
		procSelectContext,
		procBeginSample,
		procEndSample,
		procGetSampleUInt64,
	} {
		p, err := dll.FindProc(name)
		if err != nil {
			_ = dll.Release()
			return errors.Wrapf(err, "resolve %s in %s", name, path)
		}
		procs[name] = p
	}
	l.dll = dll
	l.procs = procs
	return nil
}

func (l *Library) call(name string, args ...uintptr) Status {
	l.mu.Lock()
	p := l.procs[name]
	l.mu.Unlock()
	if p == nil {
		return StatusUnsupported
	}
	r, _, _ := p.Call(args...)
	return Status(int32(r))
}

func (l *Library) RegisterLoggingCallback(fn LogFunc) Status {
	cb := windows.NewCallback(func(typ uintptr, msg *byte) uintptr {
		fn(LogType(typ), windows.BytePtrToString(msg))
		return 0
	})
	l.mu.Lock()
	l.callback = cb
	l.mu.Unlock()
	return l.call(procRegisterLoggingCallback, loggingErrorAndMessage, cb)
}

func (l *Library) SelectContext(ctx handle.Handle) Status {
	return l.call(procSelectContext, uintptr(ctx))
}

func (l *Library) BeginSample(id uint64) Status {
	native, ok := nativeSampleID(id)
	if !ok {
		return StatusFailed
	}
	return l.call(procBeginSample, native)
}

func (l *Library) EndSample() Status {
	return l.call(procEndSample)
}

// Signal completes at once; the library synchronizes inside GPA_GetSampleUInt64.
func (l *Library) Signal(handle.Handle) uint64 {
	v := l.fence.Signal()
	l.fence.Complete(v)
	return v
}

func (l *Library) Wait(ctx context.Context, value uint64) error {
	return l.fence.Wait(ctx, value)
}

func (l *Library) Result(id uint64) (Result, Status) {
	native, ok := nativeSampleID(id)
	if !ok {
		return Result{}, StatusFailed
	}
	var ns uint64
	s := l.call(procGetSampleUInt64, 0, native, 0, uintptr(unsafe.Pointer(&ns)))
	if !s.OK() {
		return Result{}, s
	}
	return Result{SampleID: id, Duration: durationFromNanos(ns)}, StatusOK
}

// Close releases the DLL.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dll == nil {
		return nil
	}
	err := l.dll.Release()
	l.dll = nil
	l.procs = nil
	return err
}
