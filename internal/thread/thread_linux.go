//go:build linux

package thread

import "golang.org/x/sys/unix"

func currentID() uint32 {
	return uint32(unix.Gettid())
}
