//go:build windows

package thread

import "golang.org/x/sys/windows"

func currentID() uint32 {
	return windows.GetCurrentThreadId()
}
