//go:build netbsd

package thread

import "golang.org/x/sys/unix"

func currentID() uint32 {
	id, _, _ := unix.RawSyscall(unix.SYS__LWP_SELF, 0, 0, 0)
	return uint32(id)
}
