//go:build linux || freebsd || netbsd || windows

package thread

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentIDDistinctPerThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	mine := CurrentID()

	other := make(chan uint32)
	go func() {
		// Stays locked until the goroutine exits, so this thread cannot be
		// the test's.
		runtime.LockOSThread()
		other <- CurrentID()
	}()
	assert.NotEqual(t, mine, <-other)
}
