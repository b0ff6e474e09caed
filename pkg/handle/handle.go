// Package handle defines the opaque identities exchanged between an
// application, the graphics driver and the instrumentation layer.
//
// A Handle is either "real", meaning it was produced by the driver, or a
// "proxy" minted by this module and handed to the application in place of the
// real one. Proxy handles carry a tag bit that user-space driver pointers never
// have, so the two families cannot collide.
package handle

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=ObjectType -trimprefix=Type

// Handle is an opaque object identity. The zero value is Nil.
type Handle uintptr

// Nil is the empty handle.
const Nil Handle = 0

// proxyTag is set on every minted proxy handle.
const proxyTag Handle = 1 << (bits.UintSize - 1)

var _ fmt.Stringer = Handle(0)

func (h Handle) String() string {
	return fmt.Sprintf("0x%x", uintptr(h))
}

// IsNil reports whether h is the empty handle.
func (h Handle) IsNil() bool {
	return h == Nil
}

// IsProxy reports whether h was produced by a Minter.
func (h Handle) IsProxy() bool {
	return h&proxyTag != 0
}

// ObjectType tags the kind of driver object behind a handle. The set is closed;
// creation info and lookups switch on it instead of inspecting wrapper types.
type ObjectType uint8

const (
	TypeUnknown ObjectType = iota
	TypeDevice
	TypeCommandQueue
	TypeCommandAllocator
	TypeCommandList
	TypeFence
	TypeHeap
	TypeResource
	TypePipelineState
	TypeRootSignature
	TypeRootSignatureDeserializer
	TypeDescriptorHeap
	TypeQueryHeap
	TypeCommandSignature
	TypeDebug
)

const numObjectTypes = int(TypeDebug) + 1

// Valid reports whether t is a known, non-Unknown object type.
func (t ObjectType) Valid() bool {
	return t > TypeUnknown && int(t) < numObjectTypes
}

// Minter hands out unique proxy handles. The zero value is ready to use and is
// safe for concurrent use.
type Minter struct {
	next atomic.Uint64
}

// Mint returns a proxy handle that has never been returned by this Minter.
func (m *Minter) Mint() Handle {
	return proxyTag | Handle(m.next.Add(1))
}
