//go:build freebsd

package thread

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func currentID() uint32 {
	var id int64
	if _, _, errno := unix.RawSyscall(unix.SYS_THR_SELF, uintptr(unsafe.Pointer(&id)), 0, 0); errno != 0 {
		return uint32(unix.Getpid())
	}
	return uint32(id)
}
