//go:build windows

package etw

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/perfstudio/go-apitrace/pkg/guid"
)

// Provider is a registered TraceLogging provider.
type Provider struct {
	ID   guid.GUID
	name string

	handle   providerHandle
	metadata []byte
	index    uintptr

	mu         sync.RWMutex
	enabled    bool
	level      Level
	keywordAny uint64
	keywordAll uint64
}

// ETW passes the callback context back as an integer, so live providers are
// kept in a table keyed by it.
var (
	providersMu sync.Mutex
	providers   = make(map[uintptr]*Provider)
	nextIndex   uintptr

	callbackOnce sync.Once
	callbackPtr  uintptr
)

const (
	stateDisable = 0
	stateEnable  = 1
)

func providerCallback(_ *windows.GUID, state, level, matchAny, matchAll, _, index uintptr) uintptr {
	providersMu.Lock()
	p := providers[index]
	providersMu.Unlock()
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch state {
	case stateDisable:
		p.enabled = false
	case stateEnable:
		p.enabled = true
		p.level = Level(level)
		p.keywordAny = uint64(matchAny)
		p.keywordAll = uint64(matchAll)
	}
	return 0
}

// NewProvider registers a provider whose id is derived from name.
func NewProvider(name string) (*Provider, error) {
	return NewProviderWithID(name, ProviderIDFromName(name))
}

// NewProviderWithID registers a provider under an explicit id.
func NewProviderWithID(name string, id guid.GUID) (*Provider, error) {
	callbackOnce.Do(func() {
		callbackPtr = windows.NewCallback(providerCallback)
	})

	p := &Provider{
		ID:       id,
		name:     name,
		metadata: providerMetadata(name),
	}
	providersMu.Lock()
	p.index = nextIndex
	nextIndex++
	providers[p.index] = p
	providersMu.Unlock()

	wid := id.ToWindows()
	if err := eventRegister(&wid, callbackPtr, p.index, &p.handle); err != nil {
		providersMu.Lock()
		delete(providers, p.index)
		providersMu.Unlock()
		return nil, errors.Wrapf(err, "register ETW provider %s", name)
	}
	return p, nil
}

// Close unregisters the provider.
func (p *Provider) Close() error {
	providersMu.Lock()
	delete(providers, p.index)
	providersMu.Unlock()
	return eventUnregister(p.handle)
}

// IsEnabledForLevel reports whether any session listens at level.
func (p *Provider) IsEnabledForLevel(level Level) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	// ETW reports level 0 as 255, so level 0 needs no special case.
	return p.enabled && level <= p.level
}

// WriteEvent writes a TraceLogging event. activityID may be nil.
func (p *Provider) WriteEvent(name string, activityID *guid.GUID, opts []EventOpt, fields []FieldOpt) error {
	d := NewEventDescriptor()
	for _, o := range opts {
		o(d)
	}
	if !p.IsEnabledForLevel(d.Level) {
		return nil
	}

	metadata, data := encodeEvent(name, fields)
	var descriptors [3]eventDataDescriptor
	descriptors[0].set(dataTypeProviderMetadata, p.metadata)
	descriptors[1].set(dataTypeEventMetadata, metadata)
	descriptors[2].set(dataTypeUser, data)

	var aid *windows.GUID
	if activityID != nil {
		w := activityID.ToWindows()
		aid = &w
	}
	err := eventWriteTransfer(p.handle, d, aid, uint32(len(descriptors)), &descriptors[0])
	runtime.KeepAlive(metadata)
	runtime.KeepAlive(data)
	return err
}
