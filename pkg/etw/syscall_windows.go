//go:build windows

package etw

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modadvapi32 = windows.NewLazySystemDLL("advapi32.dll")

	procEventRegister      = modadvapi32.NewProc("EventRegister")
	procEventUnregister    = modadvapi32.NewProc("EventUnregister")
	procEventWriteTransfer = modadvapi32.NewProc("EventWriteTransfer")
)

type providerHandle uint64

func errnoOrNil(r uintptr) error {
	if r != 0 {
		return windows.Errno(r)
	}
	return nil
}

func eventRegister(providerID *windows.GUID, callback uintptr, callbackContext uintptr, h *providerHandle) error {
	r0, _, _ := procEventRegister.Call(
		uintptr(unsafe.Pointer(providerID)),
		callback,
		callbackContext,
		uintptr(unsafe.Pointer(h)))
	return errnoOrNil(r0)
}

// eventDataDescriptor matches EVENT_DATA_DESCRIPTOR.
type eventDataDescriptor struct {
	ptr      uint64
	size     uint32
	dataType uint8
	_        uint8
	_        uint16
}

const (
	dataTypeUser uint8 = iota
	dataTypeEventMetadata
	dataTypeProviderMetadata
)

func (d *eventDataDescriptor) set(dataType uint8, b []byte) {
	if len(b) == 0 {
		return
	}
	d.ptr = uint64(uintptr(unsafe.Pointer(&b[0])))
	d.size = uint32(len(b))
	d.dataType = dataType
}
