//go:build windows && (386 || arm)

package etw

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// The 64-bit registration handle is passed as two 32-bit halves.

func eventUnregister(h providerHandle) error {
	r0, _, _ := procEventUnregister.Call(uintptr(h), uintptr(h>>32))
	return errnoOrNil(r0)
}

func eventWriteTransfer(h providerHandle, descriptor *EventDescriptor, activityID *windows.GUID, count uint32, descriptors *eventDataDescriptor) error {
	r0, _, _ := procEventWriteTransfer.Call(
		uintptr(h),
		uintptr(h>>32),
		uintptr(unsafe.Pointer(descriptor)),
		uintptr(unsafe.Pointer(activityID)),
		0,
		uintptr(count),
		uintptr(unsafe.Pointer(descriptors)))
	return errnoOrNil(r0)
}
