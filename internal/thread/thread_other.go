//go:build unix && !linux && !freebsd && !netbsd

package thread

import "golang.org/x/sys/unix"

// currentID falls back to the process id where the kernel has no thread id
// reachable through x/sys. All threads then share one id, so concurrent
// profiled calls from different threads look nested and go unsampled.
func currentID() uint32 {
	return uint32(unix.Getpid())
}
