package thread

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentIDStableWhileLocked(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	id := CurrentID()
	assert.NotZero(t, id)
	for i := 0; i < 10; i++ {
		runtime.Gosched()
		assert.Equal(t, id, CurrentID())
	}
}
