// Package objectdb tracks the identity of every intercepted driver object.
//
// The Registry keeps two maps, real handle to record and proxy handle to
// record, and changes both under a single exclusive lock so they are never
// observed out of step. Records are never removed while a capture session is
// running: destruction only flips a flag, so historical trace entries can still
// be resolved.
package objectdb

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/perfstudio/go-apitrace/pkg/handle"
)

// Registry is the bidirectional real<->proxy object map. It is safe for
// concurrent use.
type Registry struct {
	log    logrus.FieldLogger
	minter handle.Minter

	mu        sync.RWMutex
	byReal    map[handle.Handle]*WrapperMetadata
	byWrapper map[handle.Handle]*WrapperMetadata
}

// New returns an empty registry. A nil logger selects the logrus standard
// logger.
func New(log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		log:       log,
		byReal:    make(map[handle.Handle]*WrapperMetadata),
		byWrapper: make(map[handle.Handle]*WrapperMetadata),
	}
}

// Register records that wrapper stands in for real.
//
// If real is already registered nothing changes and the existing record is
// returned with false; the caller must hand that record's wrapper to the
// application and discard its own. A nil handle, or a wrapper already bound to
// a different real object, is refused with a nil record.
func (r *Registry) Register(real, wrapper handle.Handle, typ handle.ObjectType, info CreationInfo, parent *WrapperMetadata) (*WrapperMetadata, bool) {
	if real.IsNil() || wrapper.IsNil() {
		r.log.WithFields(logrus.Fields{"real": real, "wrapper": wrapper}).Error("refusing to register a nil handle")
		return nil, false
	}
	md := newMetadata(real, wrapper, typ, info, parent)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byReal[real]; ok {
		return existing, false
	}
	if other, ok := r.byWrapper[wrapper]; ok {
		r.log.WithFields(logrus.Fields{
			"wrapper":  wrapper,
			"real":     real,
			"existing": other.real,
		}).Error("wrapper handle already bound to another object")
		return nil, false
	}
	r.insertLocked(md)
	return md, true
}

// Wrap is the creation fast path: it returns the record for real, minting and
// registering a new proxy if real has not been seen. The boolean is true only
// for the caller that created the record, so concurrent wraps of one object
// agree on a single proxy.
func (r *Registry) Wrap(real handle.Handle, typ handle.ObjectType, info CreationInfo, parent *WrapperMetadata) (*WrapperMetadata, bool) {
	if real.IsNil() {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byReal[real]; ok {
		return existing, false
	}
	md := newMetadata(real, r.minter.Mint(), typ, info, parent)
	r.insertLocked(md)
	return md, true
}

func newMetadata(real, wrapper handle.Handle, typ handle.ObjectType, info CreationInfo, parent *WrapperMetadata) *WrapperMetadata {
	return &WrapperMetadata{
		real:    real,
		wrapper: wrapper,
		typ:     typ,
		info:    info,
		parent:  parent,
	}
}

func (r *Registry) insertLocked(md *WrapperMetadata) {
	r.byReal[md.real] = md
	r.byWrapper[md.wrapper] = md
	r.log.WithFields(logrus.Fields{
		"type":    md.typ,
		"real":    md.real,
		"wrapper": md.wrapper,
	}).Trace("wrapped object")
}

// LookupByWrapper resolves a proxy handle. It reports false for real or unknown
// handles.
func (r *Registry) LookupByWrapper(h handle.Handle) (*WrapperMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	md, ok := r.byWrapper[h]
	return md, ok
}

// LookupByReal resolves a driver handle.
func (r *Registry) LookupByReal(h handle.Handle) (*WrapperMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	md, ok := r.byReal[h]
	return md, ok
}

// Lookup resolves h whether it is a real or a proxy handle.
func (r *Registry) Lookup(h handle.Handle) (*WrapperMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if md, ok := r.byReal[h]; ok {
		return md, true
	}
	md, ok := r.byWrapper[h]
	return md, ok
}

// Unwrap returns the real handle behind h. Handles that are not proxies are
// returned unchanged with false; that is expected for handles the driver hands
// out directly, so it is only logged at debug level.
func (r *Registry) Unwrap(h handle.Handle) (handle.Handle, bool) {
	md, ok := r.LookupByWrapper(h)
	if !ok {
		r.log.WithField("handle", h).Debug("failed to unwrap handle, likely not a wrapped object")
		return h, false
	}
	return md.real, true
}

// ObjectsOfType returns a snapshot of the records of type typ, ordered by proxy
// handle. With onlyLive set, destroyed objects are skipped.
func (r *Registry) ObjectsOfType(typ handle.ObjectType, onlyLive bool) []*WrapperMetadata {
	r.mu.RLock()
	out := make([]*WrapperMetadata, 0)
	for _, md := range r.byWrapper {
		if md.typ != typ {
			continue
		}
		if onlyLive && md.IsDestroyed() {
			continue
		}
		out = append(out, md)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].wrapper < out[j].wrapper })
	return out
}

// MarkDestroyed flags the object behind wrapper as destroyed. It reports true
// only for the call that changed the flag. The record stays queryable.
func (r *Registry) MarkDestroyed(wrapper handle.Handle) bool {
	md, ok := r.LookupByWrapper(wrapper)
	if !ok {
		r.log.WithField("handle", wrapper).Debug("destroy of unknown wrapper")
		return false
	}
	return md.destroyed.CompareAndSwap(false, true)
}

// MarkDeviceDestroyed flags a device and every object created from it as
// destroyed, returning the records that changed state. device may be either
// the real or the proxy handle.
func (r *Registry) MarkDeviceDestroyed(device handle.Handle) []*WrapperMetadata {
	dev, ok := r.Lookup(device)
	if !ok || dev.typ != handle.TypeDevice {
		r.log.WithField("handle", device).Debug("device destroy for unknown device")
		return nil
	}

	r.mu.RLock()
	var changed []*WrapperMetadata
	for _, md := range r.byWrapper {
		if md.Device() != dev {
			continue
		}
		if md.destroyed.CompareAndSwap(false, true) {
			changed = append(changed, md)
		}
	}
	r.mu.RUnlock()

	sort.Slice(changed, func(i, j int) bool { return changed[i].wrapper < changed[j].wrapper })
	return changed
}

// Len returns the number of registered objects, destroyed ones included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byReal)
}

// Reset drops every record. It is meant for the end of a capture session.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byReal = make(map[handle.Handle]*WrapperMetadata)
	r.byWrapper = make(map[handle.Handle]*WrapperMetadata)
}
