package objectdb

import (
	"sync/atomic"

	"github.com/perfstudio/go-apitrace/pkg/handle"
)

// CreationInfo is an immutable snapshot of the parameters an object was created
// with. The concrete type is selected by ObjectType.
type CreationInfo interface {
	ObjectType() handle.ObjectType
}

// DeviceInfo describes a device creation call.
type DeviceInfo struct {
	Adapter             handle.Handle
	MinimumFeatureLevel uint32
}

func (DeviceInfo) ObjectType() handle.ObjectType { return handle.TypeDevice }

// RootSignatureDeserializerInfo describes a root signature deserializer
// creation call. Data is owned by the snapshot; use NewRootSignatureDeserializerInfo
// to copy the caller's buffer.
type RootSignatureDeserializerInfo struct {
	Data []byte
}

// NewRootSignatureDeserializerInfo copies src so the snapshot cannot change
// after the application reuses its buffer.
func NewRootSignatureDeserializerInfo(src []byte) RootSignatureDeserializerInfo {
	data := make([]byte, len(src))
	copy(data, src)
	return RootSignatureDeserializerInfo{Data: data}
}

func (RootSignatureDeserializerInfo) ObjectType() handle.ObjectType {
	return handle.TypeRootSignatureDeserializer
}

// ChildInfo describes any device-created object whose creation parameters are
// only kept as a printable description.
type ChildInfo struct {
	Type handle.ObjectType
	Desc string
}

func (c ChildInfo) ObjectType() handle.ObjectType { return c.Type }

// Unwrapper is implemented by anything that stands in for a driver object and
// can name the real object behind it.
type Unwrapper interface {
	RealHandle() handle.Handle
	WrapperHandle() handle.Handle
}

var _ Unwrapper = (*WrapperMetadata)(nil)

// WrapperMetadata is the single record kept for every intercepted object. It is
// created and owned by a Registry; every field except the destroyed flag is
// fixed before the record is published.
type WrapperMetadata struct {
	real    handle.Handle
	wrapper handle.Handle
	typ     handle.ObjectType
	info    CreationInfo
	// parent is a lookup relation to the owning device, never an ownership edge.
	parent    *WrapperMetadata
	destroyed atomic.Bool
}

// RealHandle returns the driver object's identity.
func (m *WrapperMetadata) RealHandle() handle.Handle { return m.real }

// WrapperHandle returns the proxy identity handed to the application.
func (m *WrapperMetadata) WrapperHandle() handle.Handle { return m.wrapper }

func (m *WrapperMetadata) Type() handle.ObjectType { return m.typ }

func (m *WrapperMetadata) CreationInfo() CreationInfo { return m.info }

// Parent returns the metadata of the device that created this object, or nil
// for top-level objects.
func (m *WrapperMetadata) Parent() *WrapperMetadata { return m.parent }

// IsDestroyed reports whether the application released the object. Once true
// it stays true.
func (m *WrapperMetadata) IsDestroyed() bool { return m.destroyed.Load() }

// Device walks up the parent chain to the owning device, returning m itself for
// devices and nil if no device is known.
func (m *WrapperMetadata) Device() *WrapperMetadata {
	for cur := m; cur != nil; cur = cur.parent {
		if cur.typ == handle.TypeDevice {
			return cur
		}
	}
	return nil
}
