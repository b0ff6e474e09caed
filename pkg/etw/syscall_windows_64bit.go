//go:build windows && (amd64 || arm64)

package etw

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func eventUnregister(h providerHandle) error {
	r0, _, _ := procEventUnregister.Call(uintptr(h))
	return errnoOrNil(r0)
}

func eventWriteTransfer(h providerHandle, descriptor *EventDescriptor, activityID *windows.GUID, count uint32, descriptors *eventDataDescriptor) error {
	r0, _, _ := procEventWriteTransfer.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(descriptor)),
		uintptr(unsafe.Pointer(activityID)),
		0,
		uintptr(count),
		uintptr(unsafe.Pointer(descriptors)))
	return errnoOrNil(r0)
}
