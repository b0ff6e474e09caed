package apitrace

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/pkg/config"
	"github.com/perfstudio/go-apitrace/pkg/handle"
	"github.com/perfstudio/go-apitrace/pkg/objectdb"
	"github.com/perfstudio/go-apitrace/pkg/timing"
	"github.com/perfstudio/go-apitrace/pkg/trace"
)

// Entry point symbols hooked by Initialize.
const (
	SymbolCreateDevice                    = "D3D12CreateDevice"
	SymbolGetDebugInterface               = "D3D12GetDebugInterface"
	SymbolSerializeRootSignature          = "D3D12SerializeRootSignature"
	SymbolCreateRootSignatureDeserializer = "D3D12CreateRootSignatureDeserializer"
)

// Driver is the real graphics runtime. Every replacement entry point calls
// through to it.
type Driver interface {
	CreateDevice(adapter handle.Handle, minimumFeatureLevel uint32) (handle.Handle, error)
	GetDebugInterface() (handle.Handle, error)
	SerializeRootSignature(desc []byte) ([]byte, error)
	CreateRootSignatureDeserializer(data []byte) (handle.Handle, error)
	ExecuteCommandLists(queue handle.Handle, lists []handle.Handle)
}

// Interceptor hooks a Driver's entry points and instruments calls for a
// Session.
type Interceptor struct {
	s   *Session
	drv Driver
	log logrus.FieldLogger

	mu          sync.Mutex
	initialized bool
	installed   []string
}

// NewInterceptor returns an interceptor forwarding to drv.
func NewInterceptor(s *Session, drv Driver) *Interceptor {
	return &Interceptor{s: s, drv: drv, log: s.log}
}

func (i *Interceptor) Session() *Session { return i.s }

type entryPoint struct {
	symbol      string
	replacement any
}

func (i *Interceptor) entryPoints() []entryPoint {
	return []entryPoint{
		{SymbolCreateDevice, i.CreateDevice},
		{SymbolGetDebugInterface, i.GetDebugInterface},
		{SymbolSerializeRootSignature, i.SerializeRootSignature},
		{SymbolCreateRootSignatureDeserializer, i.CreateRootSignatureDeserializer},
	}
}

// Initialize loads the configured timing library and hooks every entry point.
// If anything fails the hooks installed so far are removed again and the
// error is returned; a *HookError names the entry point that failed.
func (i *Interceptor) Initialize() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.initialized {
		return ErrAlreadyInitialized
	}

	if path := i.s.cfg.TimingLibrary; path != "" {
		if err := i.loadTimingLibrary(path); err != nil {
			return err
		}
	}

	for _, ep := range i.entryPoints() {
		if err := i.s.installer.Install(ep.symbol, ep.replacement); err != nil {
			i.log.WithFields(logrus.Fields{
				"symbol":        ep.symbol,
				logrus.ErrorKey: err,
			}).Error("failed to hook entry point")
			i.rollbackLocked()
			return &HookError{Symbol: ep.symbol, Op: "install", Err: err}
		}
		i.installed = append(i.installed, ep.symbol)
		i.log.WithField("symbol", ep.symbol).Debug("hooked entry point")
	}
	i.initialized = true
	return nil
}

func (i *Interceptor) loadTimingLibrary(path string) error {
	loader, ok := i.s.backend.(timing.Loader)
	if !ok {
		return errors.Errorf("timing backend %T cannot load %s", i.s.backend, path)
	}
	if err := loader.Load(path); err != nil {
		return errors.Wrap(err, "initialize timing backend")
	}
	if err := loader.RegisterLoggingCallback(timing.LogrusCallback(i.log)).Err("register logging callback"); err != nil {
		return errors.Wrap(err, "initialize timing backend")
	}
	return nil
}

func (i *Interceptor) rollbackLocked() {
	for n := len(i.installed) - 1; n >= 0; n-- {
		sym := i.installed[n]
		if err := i.s.installer.Uninstall(sym); err != nil {
			i.log.WithFields(logrus.Fields{
				"symbol":        sym,
				logrus.ErrorKey: err,
			}).Error("failed to remove hook during rollback")
		}
	}
	i.installed = nil
}

// Shutdown removes every hook. All removals are attempted; failures are
// returned together as HookErrors.
func (i *Interceptor) Shutdown() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.initialized {
		return ErrNotInitialized
	}

	var errs HookErrors
	for _, sym := range i.installed {
		if err := i.s.installer.Uninstall(sym); err != nil {
			i.log.WithFields(logrus.Fields{
				"symbol":        sym,
				logrus.ErrorKey: err,
			}).Error("failed to remove hook")
			errs = append(errs, &HookError{Symbol: sym, Op: "uninstall", Err: err})
		}
	}
	i.installed = nil
	i.initialized = false
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// logUnprofiled records a call that never carries a sample.
func (i *Interceptor) logUnprofiled(fn trace.FuncID, target handle.Handle, args string, ret int64) {
	if !i.s.cfg.CollectAPITrace {
		return
	}
	i.s.sink.LogCall(trace.Entry{
		Func:   fn,
		Thread: i.s.threadID(),
		Target: target,
		Args:   args,
		Return: ret,
		Frame:  i.s.Frame(),
	})
}

func errReturn(err error) int64 {
	if err != nil {
		return -1
	}
	return 0
}

// CreateDevice replaces D3D12CreateDevice. The device is wrapped and gets a
// profiler unless only frame statistics are collected.
func (i *Interceptor) CreateDevice(adapter handle.Handle, minimumFeatureLevel uint32) (handle.Handle, error) {
	real, err := i.drv.CreateDevice(adapter, minimumFeatureLevel)
	i.logUnprofiled(trace.FuncCreateDevice, handle.Nil, fmt.Sprintf("%s, 0x%x", adapter, minimumFeatureLevel), errReturn(err))
	if err != nil || real.IsNil() {
		return real, err
	}
	if i.s.cfg.CollectFrameStats {
		return real, nil
	}

	md, created := i.s.registry.Wrap(real, handle.TypeDevice, objectdb.DeviceInfo{
		Adapter:             adapter,
		MinimumFeatureLevel: minimumFeatureLevel,
	}, nil)
	if created {
		i.s.profilers.Create(real, i.s.profilerConfig())
		i.log.WithFields(logrus.Fields{
			"handle":  md.WrapperHandle(),
			"real":    real,
			"adapter": adapter,
		}).Debug("wrapped device")
	}
	return md.WrapperHandle(), nil
}

// GetDebugInterface replaces D3D12GetDebugInterface. The interface is passed
// through unwrapped.
func (i *Interceptor) GetDebugInterface() (handle.Handle, error) {
	h, err := i.drv.GetDebugInterface()
	i.logUnprofiled(trace.FuncGetDebugInterface, handle.Nil, "", errReturn(err))
	return h, err
}

// SerializeRootSignature replaces D3D12SerializeRootSignature and passes
// through.
func (i *Interceptor) SerializeRootSignature(desc []byte) ([]byte, error) {
	b, err := i.drv.SerializeRootSignature(desc)
	i.logUnprofiled(trace.FuncSerializeRootSignature, handle.Nil, fmt.Sprintf("%d bytes", len(desc)), errReturn(err))
	return b, err
}

// CreateRootSignatureDeserializer replaces
// D3D12CreateRootSignatureDeserializer and wraps the deserializer.
func (i *Interceptor) CreateRootSignatureDeserializer(data []byte) (handle.Handle, error) {
	real, err := i.drv.CreateRootSignatureDeserializer(data)
	i.logUnprofiled(trace.FuncCreateRootSignatureDeserializer, handle.Nil, fmt.Sprintf("%d bytes", len(data)), errReturn(err))
	if err != nil || real.IsNil() {
		return real, err
	}
	md, _ := i.s.registry.Wrap(real, handle.TypeRootSignatureDeserializer, objectdb.NewRootSignatureDeserializerInfo(data), nil)
	return md.WrapperHandle(), nil
}

// WrapChild wraps an object created from device, which may be given by its
// proxy or real handle. A nil info records only the type. It returns the
// proxy the application should see.
func (i *Interceptor) WrapChild(device, real handle.Handle, typ handle.ObjectType, info objectdb.CreationInfo) handle.Handle {
	if real.IsNil() {
		return real
	}
	parent, ok := i.s.registry.Lookup(device)
	if !ok {
		i.log.WithField("handle", device).Debug("creating object on unknown device")
	}
	if info == nil {
		info = objectdb.ChildInfo{Type: typ}
	}
	md, _ := i.s.registry.Wrap(real, typ, info, parent)
	return md.WrapperHandle()
}

// OnDeviceDestroyed marks a device and every object created from it as
// destroyed and drops the device's profiler, discarding unread samples. The
// records stay queryable until the session is closed.
func (i *Interceptor) OnDeviceDestroyed(device handle.Handle) {
	md, ok := i.s.registry.Lookup(device)
	if !ok || md.Type() != handle.TypeDevice {
		i.log.WithField("handle", device).Debug("destroy of unknown device")
		return
	}
	changed := i.s.registry.MarkDeviceDestroyed(md.WrapperHandle())
	_, hadProfiler := i.s.profilers.Remove(md.RealHandle())
	i.log.WithFields(logrus.Fields{
		"handle":   md.WrapperHandle(),
		"objects":  len(changed),
		"profiler": hadProfiler,
	}).Debug("device destroyed")
}

// BeginFrame starts a new frame and returns its number.
func (i *Interceptor) BeginFrame() uint64 {
	return i.s.frame.Add(1)
}

// EndFrame clears per-frame sampling state.
func (i *Interceptor) EndFrame() {
	i.s.pipeline.ResetForNewFrame()
}

// ExecuteCommandLists submits lists on queue through the driver, then waits
// for the GPU to finish them and attaches the result of every sample they
// carry to its call record. ctx bounds only the wait; a nil ctx waits as long
// as the GPU takes.
func (i *Interceptor) ExecuteCommandLists(ctx context.Context, queue handle.Handle, lists []handle.Handle) error {
	realQueue, _ := i.s.registry.Unwrap(queue)
	realLists := make([]handle.Handle, len(lists))
	byDevice := make(map[handle.Handle][]handle.Handle)
	for n, l := range lists {
		realLists[n], _ = i.s.registry.Unwrap(l)
		if md, ok := i.s.registry.Lookup(l); ok {
			if dev := md.Device(); dev != nil {
				byDevice[dev.RealHandle()] = append(byDevice[dev.RealHandle()], realLists[n])
			}
		}
	}

	i.drv.ExecuteCommandLists(realQueue, realLists)
	i.logUnprofiled(trace.FuncExecuteCommandLists, queue, fmt.Sprintf("%d, %v", len(lists), lists), trace.ReturnVoid)

	if i.s.resolver == nil || i.s.cfg.ResolveMode != config.ResolveSubmit {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for dev, ls := range byDevice {
		p, ok := i.s.profilers.Get(dev)
		if !ok {
			continue
		}
		n, err := p.Gather(ctx, i.s.resolver, realQueue, ls, i.s.sink)
		if err != nil {
			return errors.Wrap(err, "gather profiler results")
		}
		i.log.WithFields(logrus.Fields{
			"queue":   queue,
			"results": n,
		}).Trace("gathered profiler results")
	}
	return nil
}
